// internal/scoring/engine.go
package scoring

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOutcome indicates missing or malformed outcome facts.
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrUnscorableOutcome indicates the rule set has no item at all for the
	// outcome condition, so scoring the game against it would be meaningless.
	ErrUnscorableOutcome = errors.New("rule set has no item for outcome condition")
)

// Match tells which tier of the lookup produced a delta.
type Match int

const (
	NoMatch Match = iota
	ExactMatch
	WildcardMatch
)

// Table indexes rule items by (condition, role) with an explicit wildcard tier.
type Table struct {
	exact    map[models.RuleKey]decimal.Decimal
	wildcard map[models.Condition]decimal.Decimal
}

// NewTable builds a lookup table from the items of one rule set.
func NewTable(items []models.RuleItem) Table {
	t := Table{
		exact:    make(map[models.RuleKey]decimal.Decimal),
		wildcard: make(map[models.Condition]decimal.Decimal),
	}
	for _, it := range items {
		if it.RoleFilter == nil {
			t.wildcard[it.Condition] = it.Delta
			continue
		}
		t.exact[it.Key()] = it.Delta
	}
	return t
}

// Lookup returns the delta for role under condition: the role-specific item
// first, then the any-role item, otherwise zero.
func (t Table) Lookup(c models.Condition, role models.Role) (decimal.Decimal, Match) {
	if d, ok := t.exact[models.RuleKey{Condition: c, Role: role}]; ok {
		return d, ExactMatch
	}
	if d, ok := t.wildcard[c]; ok {
		return d, WildcardMatch
	}
	return decimal.Zero, NoMatch
}

// Covers reports whether any item, for any role, scores condition c.
func (t Table) Covers(c models.Condition) bool {
	if _, ok := t.wildcard[c]; ok {
		return true
	}
	for k := range t.exact {
		if k.Condition == c {
			return true
		}
	}
	return false
}

// Seat is the part of a roster entry the engine reads.
type Seat struct {
	No   int
	Role models.Role
}

// SeatsOf projects a roster onto engine seats.
func SeatsOf(players []models.GamePlayer) []Seat {
	seats := make([]Seat, len(players))
	for i, gp := range players {
		seats[i] = Seat{No: gp.SeatNo, Role: gp.Role}
	}
	return seats
}

// ValidateOutcome checks the facts against the roster: a win condition, known
// award conditions each given once, and award seats that exist.
func ValidateOutcome(o *models.Outcome, seats []Seat) error {
	if o == nil {
		return fmt.Errorf("%w: no outcome supplied", ErrInvalidOutcome)
	}
	if !o.Condition.IsWin() {
		return fmt.Errorf("%w: %q is not a win condition", ErrInvalidOutcome, o.Condition)
	}
	bySeat := make(map[int]bool, len(seats))
	for _, s := range seats {
		bySeat[s.No] = true
	}
	awarded := make(map[models.Condition]bool, len(o.Awards))
	for _, aw := range o.Awards {
		if !aw.Condition.Valid() || aw.Condition.IsWin() {
			return fmt.Errorf("%w: %q cannot be awarded to seats", ErrInvalidOutcome, aw.Condition)
		}
		if awarded[aw.Condition] {
			return fmt.Errorf("%w: %s awarded twice", ErrInvalidOutcome, aw.Condition)
		}
		awarded[aw.Condition] = true
		if len(aw.Seats) == 0 {
			return fmt.Errorf("%w: %s names no seats", ErrInvalidOutcome, aw.Condition)
		}
		seen := make(map[int]bool, len(aw.Seats))
		for _, no := range aw.Seats {
			if !bySeat[no] {
				return fmt.Errorf("%w: %s names unknown seat %d", ErrInvalidOutcome, aw.Condition, no)
			}
			if seen[no] {
				return fmt.Errorf("%w: %s names seat %d twice", ErrInvalidOutcome, aw.Condition, no)
			}
			seen[no] = true
		}
	}
	return nil
}

// Evaluate computes the rule-driven delta of every seat. The win condition
// scores every seat; each award scores only the seats it names. Evaluate has no
// side effects and returns the same result for the same input.
func Evaluate(items []models.RuleItem, o *models.Outcome, seats []Seat) (map[int]decimal.Decimal, error) {
	if err := ValidateOutcome(o, seats); err != nil {
		return nil, err
	}
	table := NewTable(items)
	if !table.Covers(o.Condition) {
		return nil, fmt.Errorf("%w: %s", ErrUnscorableOutcome, o.Condition)
	}

	roles := make(map[int]models.Role, len(seats))
	base := make(map[int]decimal.Decimal, len(seats))
	for _, s := range seats {
		roles[s.No] = s.Role
		d, _ := table.Lookup(o.Condition, s.Role)
		base[s.No] = d
	}
	for _, aw := range o.Awards {
		for _, no := range aw.Seats {
			d, _ := table.Lookup(aw.Condition, roles[no])
			base[no] = base[no].Add(d)
		}
	}
	return base, nil
}
