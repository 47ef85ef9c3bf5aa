package game

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roster builds a role list from counts of citizens, sheriffs, mafia and dons.
func roster(citizens, sheriffs, mafia, dons int) []models.Role {
	var roles []models.Role
	add := func(n int, r models.Role) {
		for i := 0; i < n; i++ {
			roles = append(roles, r)
		}
	}
	add(citizens, models.RoleCitizen)
	add(sheriffs, models.RoleSheriff)
	add(mafia, models.RoleMafia)
	add(dons, models.RoleDon)
	return roles
}

func TestValidateCompositionCanonicalTables(t *testing.T) {
	valid := []struct {
		qty   int
		roles []models.Role
	}{
		{7, roster(4, 1, 1, 1)},
		{8, roster(5, 1, 1, 1)},
		{9, roster(5, 1, 2, 1)},
		{10, roster(6, 1, 2, 1)},
	}
	for _, tc := range valid {
		assert.NoError(t, ValidateComposition(tc.qty, tc.roles), "%d players", tc.qty)
	}
}

func TestValidateCompositionFirstBrokenRule(t *testing.T) {
	cases := []struct {
		name  string
		qty   int
		roles []models.Role
		rule  int
	}{
		{"no sheriff", 7, roster(5, 0, 1, 1), RuleOneSheriff},
		{"two sheriffs and no don", 7, roster(3, 2, 2, 0), RuleOneSheriff},
		{"no don", 7, roster(4, 1, 2, 0), RuleOneDon},
		{"four mafia", 10, roster(5, 1, 3, 1), RuleMafiaTotal},
		{"lone don", 7, roster(5, 1, 0, 1), RuleMafiaTotal},
		{"2 mafia, 4 city", 6, roster(3, 1, 1, 1), RuleFactionBalance},
		{"2 mafia, 7 city", 9, roster(6, 1, 1, 1), RuleFactionBalance},
		{"3 mafia, 4 citizens", 8, roster(4, 1, 2, 1), RuleFactionBalance},
		{"qty mismatch", 8, roster(4, 1, 1, 1), RulePlayersQty},
	}
	for _, tc := range cases {
		err := ValidateComposition(tc.qty, tc.roles)
		require.Error(t, err, tc.name)
		assert.ErrorIs(t, err, ErrInvalidComposition, tc.name)

		var ce *CompositionError
		require.True(t, errors.As(err, &ce), tc.name)
		assert.Equal(t, tc.rule, ce.Rule, tc.name)
	}
}

func TestCompositionErrorMessageNamesRule(t *testing.T) {
	err := ValidateComposition(7, roster(5, 0, 1, 1))
	assert.EqualError(t, err, "invalid composition (rule 1): there must be exactly 1 sheriff, got 0")
}
