// internal/rules/catalog.go
package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoActiveRuleSet indicates no rule set is active. Games cannot finish without one.
	ErrNoActiveRuleSet = errors.New("no active rule set")

	// ErrInvalidRuleItem indicates an unknown condition or role filter.
	ErrInvalidRuleItem = errors.New("invalid rule item")

	// ErrInvalidName indicates an empty or overlong rule set name.
	ErrInvalidName = errors.New("invalid rule set name")

	// ErrRuleSetInUse indicates an item edit on a rule set that finished games
	// are scored against. Such a rule set is frozen.
	ErrRuleSetInUse = errors.New("rule set is in use by finished games")
)

// MaxNameLen is the longest rule set name accepted.
const MaxNameLen = 64

// ItemSpec describes a rule item to create.
type ItemSpec struct {
	Condition  models.Condition `json:"condition"`
	RoleFilter *models.Role     `json:"role_filter"`
	Delta      decimal.Decimal  `json:"delta"`
}

// Validate checks the enum values and the delta of the item.
func (s ItemSpec) Validate() error {
	if !s.Condition.Valid() {
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidRuleItem, s.Condition)
	}
	if s.RoleFilter != nil && !s.RoleFilter.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRuleItem, *s.RoleFilter)
	}
	return ValidateRuleDelta(s.Delta)
}

func (s ItemSpec) key() models.RuleKey {
	return models.RuleItem{Condition: s.Condition, RoleFilter: s.RoleFilter}.Key()
}

// Create stores a new rule set with its items. When active is set, the new set
// replaces the active one inside the same unit of work. All input is validated
// before the first write.
func Create(ctx context.Context, tx store.RuleSets, name string, active bool, items []ItemSpec) (*models.RuleSet, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	seen := make(map[models.RuleKey]bool, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
		k := it.key()
		if seen[k] {
			return nil, fmt.Errorf("%s/%s: %w", k.Condition, k.Role, store.ErrDuplicateRuleKey)
		}
		seen[k] = true
	}

	rs := &models.RuleSet{Name: name}
	if err := tx.InsertRuleSet(ctx, rs); err != nil {
		return nil, fmt.Errorf("insert rule set: %w", err)
	}
	for _, spec := range items {
		it := models.RuleItem{
			RuleSetID:  rs.ID,
			Condition:  spec.Condition,
			RoleFilter: spec.RoleFilter,
			Delta:      spec.Delta,
		}
		if err := tx.InsertRuleItem(ctx, &it); err != nil {
			return nil, fmt.Errorf("insert rule item: %w", err)
		}
		rs.Items = append(rs.Items, it)
	}
	if active {
		if err := tx.SwapActiveRuleSet(ctx, rs.ID); err != nil {
			return nil, fmt.Errorf("activate rule set: %w", err)
		}
		rs.IsActive = true
	}
	return rs, nil
}

// Activate makes id the single active rule set.
func Activate(ctx context.Context, tx store.RuleSets, id int64) error {
	return tx.SwapActiveRuleSet(ctx, id)
}

// Deactivate clears the active flag of id. Afterwards no rule set may be active.
func Deactivate(ctx context.Context, tx store.RuleSets, id int64) error {
	return tx.DeactivateRuleSet(ctx, id)
}

// Rename changes the name of a rule set.
func Rename(ctx context.Context, tx store.RuleSets, id int64, name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	return tx.RenameRuleSet(ctx, id, name)
}

// Active returns the active rule set with its items.
func Active(ctx context.Context, tx store.RuleSets) (*models.RuleSet, error) {
	rs, err := tx.ActiveRuleSet(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveRuleSet
	}
	if err != nil {
		return nil, err
	}
	return withItems(ctx, tx, rs)
}

// Get returns a rule set with its items.
func Get(ctx context.Context, tx store.RuleSets, id int64) (*models.RuleSet, error) {
	rs, err := tx.GetRuleSet(ctx, id)
	if err != nil {
		return nil, err
	}
	return withItems(ctx, tx, rs)
}

// List returns every rule set with its items, ordered by id.
func List(ctx context.Context, tx store.RuleSets) ([]models.RuleSet, error) {
	sets, err := tx.ListRuleSets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		items, err := tx.ListRuleItems(ctx, sets[i].ID)
		if err != nil {
			return nil, err
		}
		sets[i].Items = items
	}
	return sets, nil
}

// AddItem adds an item to a rule set. A second item for the same
// (condition, role filter) pair fails with store.ErrDuplicateRuleKey.
func AddItem(ctx context.Context, tx store.RuleSets, ruleSetID int64, spec ItemSpec) (*models.RuleItem, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ensureEditable(ctx, tx, ruleSetID); err != nil {
		return nil, err
	}
	it := &models.RuleItem{
		RuleSetID:  ruleSetID,
		Condition:  spec.Condition,
		RoleFilter: spec.RoleFilter,
		Delta:      spec.Delta,
	}
	if err := tx.InsertRuleItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// SetItemDelta changes the delta of an existing item.
func SetItemDelta(ctx context.Context, tx store.RuleSets, itemID int64, delta decimal.Decimal) error {
	if err := ValidateRuleDelta(delta); err != nil {
		return err
	}
	if err := ensureItemEditable(ctx, tx, itemID); err != nil {
		return err
	}
	return tx.UpdateRuleItemDelta(ctx, itemID, delta)
}

// DeleteItem removes an item from its rule set.
func DeleteItem(ctx context.Context, tx store.RuleSets, itemID int64) error {
	if err := ensureItemEditable(ctx, tx, itemID); err != nil {
		return err
	}
	return tx.DeleteRuleItem(ctx, itemID)
}

// ensureEditable rejects item edits on rule sets pinned by finished games,
// whose cached totals must keep matching their rule set.
func ensureEditable(ctx context.Context, tx store.RuleSets, ruleSetID int64) error {
	pinned, err := tx.RuleSetPinned(ctx, ruleSetID)
	if err != nil {
		return err
	}
	if pinned {
		return fmt.Errorf("%w: rule set %d", ErrRuleSetInUse, ruleSetID)
	}
	return nil
}

func ensureItemEditable(ctx context.Context, tx store.RuleSets, itemID int64) error {
	it, err := tx.GetRuleItem(ctx, itemID)
	if err != nil {
		return err
	}
	return ensureEditable(ctx, tx, it.RuleSetID)
}

func withItems(ctx context.Context, tx store.RuleSets, rs *models.RuleSet) (*models.RuleSet, error) {
	items, err := tx.ListRuleItems(ctx, rs.ID)
	if err != nil {
		return nil, fmt.Errorf("list items of rule set %d: %w", rs.ID, err)
	}
	rs.Items = items
	return rs, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLen)
	}
	return nil
}
