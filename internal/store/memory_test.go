package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertRuleSet(ctx, &models.RuleSet{Name: "a"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		sets, err := tx.ListRuleSets(ctx)
		assert.Empty(t, sets)
		return err
	}))
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewMemory().WithTx(ctx, func(tx Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryRuleSets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		a := &models.RuleSet{Name: "a", IsActive: true}
		require.NoError(t, tx.InsertRuleSet(ctx, a))
		assert.False(t, a.IsActive, "inserted rule sets start inactive")

		assert.ErrorIs(t, tx.InsertRuleSet(ctx, &models.RuleSet{Name: "a"}), ErrDuplicateName)

		b := &models.RuleSet{Name: "b"}
		require.NoError(t, tx.InsertRuleSet(ctx, b))
		assert.ErrorIs(t, tx.RenameRuleSet(ctx, b.ID, "a"), ErrDuplicateName)

		_, err := tx.ActiveRuleSet(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, tx.SwapActiveRuleSet(ctx, a.ID))
		require.NoError(t, tx.SwapActiveRuleSet(ctx, b.ID))
		active, err := tx.ActiveRuleSet(ctx)
		require.NoError(t, err)
		assert.Equal(t, b.ID, active.ID)

		assert.ErrorIs(t, tx.SwapActiveRuleSet(ctx, 999), ErrNotFound)

		it := &models.RuleItem{RuleSetID: a.ID, Condition: models.CityWin}
		require.NoError(t, tx.InsertRuleItem(ctx, it))
		dup := &models.RuleItem{RuleSetID: a.ID, Condition: models.CityWin}
		assert.ErrorIs(t, tx.InsertRuleItem(ctx, dup), ErrDuplicateRuleKey)
		scoped := &models.RuleItem{RuleSetID: a.ID, Condition: models.CityWin, RoleFilter: models.RolePtr(models.RoleSheriff)}
		assert.NoError(t, tx.InsertRuleItem(ctx, scoped))
		return nil
	}))
}

func TestMemoryListGamesOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

	var ids []int64
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		for _, d := range []int{1, 3, 3, 2} {
			g := &models.Game{PlayersQty: 7, State: models.StateDraft, Date: day(d)}
			if err := tx.InsertGame(ctx, g); err != nil {
				return err
			}
			ids = append(ids, g.ID)
		}
		return nil
	}))

	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		all, err := tx.ListGames(ctx, 0, 0)
		require.NoError(t, err)
		got := make([]int64, len(all))
		for i, g := range all {
			got[i] = g.ID
		}
		assert.Equal(t, []int64{ids[2], ids[1], ids[3], ids[0]}, got)

		page, err := tx.ListGames(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[1], page[0].ID)

		past, err := tx.ListGames(ctx, 10, 2)
		require.NoError(t, err)
		assert.Empty(t, past)
		return nil
	}))
}

func TestMemorySeatUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		g := &models.Game{PlayersQty: 7, State: models.StateDraft}
		require.NoError(t, tx.InsertGame(ctx, g))
		require.NoError(t, tx.InsertGamePlayer(ctx, &models.GamePlayer{GameID: g.ID, PlayerID: 1, SeatNo: 1}))
		assert.ErrorIs(t, tx.InsertGamePlayer(ctx, &models.GamePlayer{GameID: g.ID, PlayerID: 2, SeatNo: 1}), ErrSeatTaken)
		assert.ErrorIs(t, tx.InsertGamePlayer(ctx, &models.GamePlayer{GameID: g.ID, PlayerID: 1, SeatNo: 2}), ErrSeatTaken)
		assert.ErrorIs(t, tx.InsertGamePlayer(ctx, &models.GamePlayer{GameID: 999, PlayerID: 1, SeatNo: 1}), ErrNotFound)
		return nil
	}))
}

func TestMemoryGamesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		g := &models.Game{
			PlayersQty: 7,
			State:      models.StateFinished,
			Outcome: &models.Outcome{
				Condition: models.CityWin,
				Awards:    []models.Award{{Condition: models.FirstNightKilled, Seats: []int{3}}},
			},
		}
		require.NoError(t, tx.InsertGame(ctx, g))
		g.Outcome.Awards[0].Seats[0] = 5

		stored, err := tx.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, stored.Outcome.Awards[0].Seats)
		return nil
	}))
}
