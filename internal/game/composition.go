// internal/game/composition.go
package game

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/mafiastats/internal/models"
)

// ErrInvalidComposition is matched by every *CompositionError.
var ErrInvalidComposition = errors.New("invalid composition")

// Composition rule numbers, in the order they are checked.
const (
	RuleOneSheriff = iota + 1
	RuleOneDon
	RuleMafiaTotal
	RuleFactionBalance
	RulePlayersQty
)

// CompositionError names the first composition rule a roster breaks.
type CompositionError struct {
	Rule   int
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("invalid composition (rule %d): %s", e.Rule, e.Reason)
}

func (e *CompositionError) Is(target error) bool {
	return target == ErrInvalidComposition
}

// RoleCount tallies the roles of a roster.
type RoleCount map[models.Role]int

// CountRoles tallies roles.
func CountRoles(roles []models.Role) RoleCount {
	c := make(RoleCount, 4)
	for _, r := range roles {
		c[r]++
	}
	return c
}

// City returns citizens plus the sheriff.
func (c RoleCount) City() int { return c[models.RoleCitizen] + c[models.RoleSheriff] }

// Mafia returns mafia plus the don.
func (c RoleCount) Mafia() int { return c[models.RoleMafia] + c[models.RoleDon] }

// ValidateComposition checks the canonical faction ratios of a 7-10 seat table
// and returns a *CompositionError for the first rule broken.
func ValidateComposition(playersQty int, roles []models.Role) error {
	c := CountRoles(roles)
	mafia, city := c.Mafia(), c.City()

	if n := c[models.RoleSheriff]; n != 1 {
		return &CompositionError{RuleOneSheriff, fmt.Sprintf("there must be exactly 1 sheriff, got %d", n)}
	}
	if n := c[models.RoleDon]; n != 1 {
		return &CompositionError{RuleOneDon, fmt.Sprintf("there must be exactly 1 don, got %d", n)}
	}
	if mafia != 2 && mafia != 3 {
		return &CompositionError{RuleMafiaTotal, fmt.Sprintf("total mafia (don + mafia) must be 2 or 3, got %d", mafia)}
	}
	if mafia == 2 && city != 5 && city != 6 {
		return &CompositionError{RuleFactionBalance, fmt.Sprintf("2 mafia require 5 or 6 city players, got %d", city)}
	}
	if mafia == 3 {
		if n := c[models.RoleCitizen]; n != 5 && n != 6 {
			return &CompositionError{RuleFactionBalance, fmt.Sprintf("3 mafia require 5 or 6 citizens, got %d", n)}
		}
	}
	if city+mafia != playersQty {
		return &CompositionError{RulePlayersQty, fmt.Sprintf("%d roles do not match players_qty %d", city+mafia, playersQty)}
	}
	return nil
}

// RolesOf lists the roles of a roster in seat order.
func RolesOf(players []models.GamePlayer) []models.Role {
	roles := make([]models.Role, len(players))
	for i, gp := range players {
		roles[i] = gp.Role
	}
	return roles
}
