package scoring

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedFinished stores a finished 10-seat game pinned to a rule set.
func seedFinished(t *testing.T, st store.Store) (gameID int64, ruleSetID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		rs := &models.RuleSet{Name: "s"}
		if err := tx.InsertRuleSet(ctx, rs); err != nil {
			return err
		}
		ruleSetID = rs.ID
		it := item(models.CityWin, models.RolePtr(models.RoleCitizen), "3")
		it.RuleSetID = rs.ID
		if err := tx.InsertRuleItem(ctx, &it); err != nil {
			return err
		}

		g := &models.Game{
			PlayersQty: 10,
			GMID:       uuid.New(),
			State:      models.StateFinished,
			RuleSetID:  &rs.ID,
			Outcome:    &models.Outcome{Condition: models.CityWin},
		}
		if err := tx.InsertGame(ctx, g); err != nil {
			return err
		}
		gameID = g.ID
		for i, s := range tenSeats() {
			gp := &models.GamePlayer{GameID: g.ID, PlayerID: int64(100 + i), SeatNo: s.No, Role: s.Role}
			if err := tx.InsertGamePlayer(ctx, gp); err != nil {
				return err
			}
		}
		return nil
	}))
	return gameID, ruleSetID
}

func TestRecomputeIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	gameID, _ := seedFinished(t, st)

	run := func() []models.GamePlayer {
		var players []models.GamePlayer
		require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
			g, err := tx.GetGame(ctx, gameID)
			if err != nil {
				return err
			}
			if _, err := Recompute(ctx, tx, g); err != nil {
				return err
			}
			players, err = tx.ListGamePlayers(ctx, gameID)
			return err
		}))
		return players
	}

	a := run()
	b := run()
	require.Len(t, a, 10)
	for i := range a {
		assert.True(t, a[i].TotalPoints.Equal(b[i].TotalPoints))
	}
	assert.Equal(t, "3.00", a[0].TotalPoints.StringFixed(2))
	assert.True(t, a[9].TotalPoints.IsZero())
}

func TestRecomputeReadsStoredItems(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	gameID, ruleSetID := seedFinished(t, st)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		items, err := tx.ListRuleItems(ctx, ruleSetID)
		if err != nil {
			return err
		}
		if err := tx.UpdateRuleItemDelta(ctx, items[0].ID, dec("2.5")); err != nil {
			return err
		}
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		totals, err := Recompute(ctx, tx, g)
		if err != nil {
			return err
		}
		assert.Equal(t, "2.50", totals[1].StringFixed(2))
		return nil
	}))
}

func TestBaseDeltasZeroUnlessFinished(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		g := &models.Game{ID: 1, State: models.StateAborted}
		base, err := BaseDeltas(ctx, tx, g, nil)
		assert.Empty(t, base)
		return err
	}))
}
