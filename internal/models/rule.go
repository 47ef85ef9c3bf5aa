// internal/models/rule.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleSet is a named, versioned scoring table. At most one RuleSet is active.
type RuleSet struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []RuleItem `json:"items,omitempty"`
}

// RuleItem awards Delta to seats matching (Condition, RoleFilter).
// A nil RoleFilter matches any role.
type RuleItem struct {
	ID         int64           `json:"id"`
	RuleSetID  int64           `json:"rule_set_id"`
	Condition  Condition       `json:"condition"`
	RoleFilter *Role           `json:"role_filter"`
	Delta      decimal.Decimal `json:"delta"`
}

// RuleKey identifies a RuleItem inside its RuleSet.
type RuleKey struct {
	Condition Condition
	Role      Role // empty for the wildcard
}

// Key returns the lookup key of the item.
func (it RuleItem) Key() RuleKey {
	k := RuleKey{Condition: it.Condition}
	if it.RoleFilter != nil {
		k.Role = *it.RoleFilter
	}
	return k
}

// RolePtr is a helper for building optional role filters.
func RolePtr(r Role) *Role {
	return &r
}
