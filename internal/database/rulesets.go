// internal/database/rulesets.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/shopspring/decimal"
)

func (t *pgTx) InsertRuleSet(ctx context.Context, rs *models.RuleSet) error {
	q := `INSERT INTO rule_sets (name, is_active) VALUES ($1, FALSE) RETURNING id, created_at`
	if err := t.tx.QueryRow(ctx, q, rs.Name).Scan(&rs.ID, &rs.CreatedAt); err != nil {
		return mapErr(err, fmt.Sprintf("insert rule set %q", rs.Name))
	}
	rs.IsActive = false
	return nil
}

func (t *pgTx) GetRuleSet(ctx context.Context, id int64) (*models.RuleSet, error) {
	var rs models.RuleSet
	q := `SELECT id, name, is_active, created_at FROM rule_sets WHERE id = $1`
	if err := t.tx.QueryRow(ctx, q, id).Scan(&rs.ID, &rs.Name, &rs.IsActive, &rs.CreatedAt); err != nil {
		return nil, mapErr(err, fmt.Sprintf("rule set %d", id))
	}
	return &rs, nil
}

func (t *pgTx) ListRuleSets(ctx context.Context) ([]models.RuleSet, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, name, is_active, created_at FROM rule_sets ORDER BY id`)
	if err != nil {
		return nil, mapErr(err, "list rule sets")
	}
	defer rows.Close()

	var out []models.RuleSet
	for rows.Next() {
		var rs models.RuleSet
		if err := rows.Scan(&rs.ID, &rs.Name, &rs.IsActive, &rs.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (t *pgTx) RenameRuleSet(ctx context.Context, id int64, name string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE rule_sets SET name = $1 WHERE id = $2`, name, id)
	return expectOne(tag, err, fmt.Sprintf("rename rule set %d", id))
}

// SwapActiveRuleSet serializes activations on an advisory lock so two
// concurrent swaps cannot both observe the old active set.
func (t *pgTx) SwapActiveRuleSet(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, activeRuleSetLock); err != nil {
		return mapErr(err, "lock active rule set")
	}
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT TRUE FROM rule_sets WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
		return mapErr(err, fmt.Sprintf("rule set %d", id))
	}
	if _, err := t.tx.Exec(ctx, `UPDATE rule_sets SET is_active = FALSE WHERE is_active AND id <> $1`, id); err != nil {
		return mapErr(err, "deactivate rule sets")
	}
	tag, err := t.tx.Exec(ctx, `UPDATE rule_sets SET is_active = TRUE WHERE id = $1`, id)
	return expectOne(tag, err, fmt.Sprintf("activate rule set %d", id))
}

func (t *pgTx) DeactivateRuleSet(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, activeRuleSetLock); err != nil {
		return mapErr(err, "lock active rule set")
	}
	tag, err := t.tx.Exec(ctx, `UPDATE rule_sets SET is_active = FALSE WHERE id = $1`, id)
	return expectOne(tag, err, fmt.Sprintf("deactivate rule set %d", id))
}

func (t *pgTx) ActiveRuleSet(ctx context.Context) (*models.RuleSet, error) {
	var rs models.RuleSet
	// FOR SHARE keeps item edits out until a finishing game has pinned the set
	q := `SELECT id, name, is_active, created_at FROM rule_sets WHERE is_active FOR SHARE`
	if err := t.tx.QueryRow(ctx, q).Scan(&rs.ID, &rs.Name, &rs.IsActive, &rs.CreatedAt); err != nil {
		return nil, mapErr(err, "active rule set")
	}
	return &rs, nil
}

// RuleSetPinned locks the rule set row, so a concurrent finish reading it
// FOR SHARE waits until this unit of work ends.
func (t *pgTx) RuleSetPinned(ctx context.Context, ruleSetID int64) (bool, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, `SELECT id FROM rule_sets WHERE id = $1 FOR UPDATE`, ruleSetID).Scan(&id); err != nil {
		return false, mapErr(err, fmt.Sprintf("rule set %d", ruleSetID))
	}
	var pinned bool
	q := `SELECT EXISTS (SELECT 1 FROM games WHERE rule_set_id = $1)`
	if err := t.tx.QueryRow(ctx, q, ruleSetID).Scan(&pinned); err != nil {
		return false, mapErr(err, fmt.Sprintf("games of rule set %d", ruleSetID))
	}
	return pinned, nil
}

func (t *pgTx) GetRuleItem(ctx context.Context, id int64) (*models.RuleItem, error) {
	q := `SELECT id, rule_set_id, condition, role_filter, delta FROM rule_items WHERE id = $1`
	it, err := scanRuleItem(t.tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("rule item %d", id))
	}
	return &it, nil
}

func (t *pgTx) ListRuleItems(ctx context.Context, ruleSetID int64) ([]models.RuleItem, error) {
	q := `SELECT id, rule_set_id, condition, role_filter, delta FROM rule_items WHERE rule_set_id = $1 ORDER BY id`
	rows, err := t.tx.Query(ctx, q, ruleSetID)
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("list rule items of %d", ruleSetID))
	}
	defer rows.Close()

	var out []models.RuleItem
	for rows.Next() {
		it, err := scanRuleItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanRuleItem(row pgx.Row) (models.RuleItem, error) {
	var (
		it         models.RuleItem
		condition  string
		roleFilter *string
	)
	if err := row.Scan(&it.ID, &it.RuleSetID, &condition, &roleFilter, &it.Delta); err != nil {
		return it, err
	}
	it.Condition = models.Condition(condition)
	if roleFilter != nil {
		it.RoleFilter = models.RolePtr(models.Role(*roleFilter))
	}
	return it, nil
}

func (t *pgTx) InsertRuleItem(ctx context.Context, it *models.RuleItem) error {
	var roleFilter *string
	if it.RoleFilter != nil {
		r := string(*it.RoleFilter)
		roleFilter = &r
	}
	q := `INSERT INTO rule_items (rule_set_id, condition, role_filter, delta) VALUES ($1, $2, $3, $4) RETURNING id`
	err := t.tx.QueryRow(ctx, q, it.RuleSetID, string(it.Condition), roleFilter, it.Delta).Scan(&it.ID)
	return mapErr(err, fmt.Sprintf("insert rule item %s/%s", it.Condition, it.Key().Role))
}

func (t *pgTx) UpdateRuleItemDelta(ctx context.Context, id int64, delta decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `UPDATE rule_items SET delta = $1 WHERE id = $2`, delta, id)
	return expectOne(tag, err, fmt.Sprintf("rule item %d", id))
}

func (t *pgTx) DeleteRuleItem(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM rule_items WHERE id = $1`, id)
	return expectOne(tag, err, fmt.Sprintf("rule item %d", id))
}
