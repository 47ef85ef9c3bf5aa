package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newLedger() *Ledger {
	return &Ledger{Now: func() time.Time { return stamp }}
}

// seedGame stores a draft game with one seat and returns both.
func seedGame(t *testing.T, st store.Store) (*models.Game, *models.GamePlayer) {
	t.Helper()
	var (
		g  *models.Game
		gp *models.GamePlayer
	)
	require.NoError(t, st.WithTx(context.Background(), func(tx store.Tx) error {
		g = &models.Game{PlayersQty: 7, State: models.StateDraft, Date: stamp}
		if err := tx.InsertGame(context.Background(), g); err != nil {
			return err
		}
		gp = &models.GamePlayer{GameID: g.ID, PlayerID: 11, SeatNo: 1, Role: models.RoleCitizen}
		return tx.InsertGamePlayer(context.Background(), gp)
	}))
	return g, gp
}

func rows(t *testing.T, st store.Store, gameID int64) []models.GameAudit {
	t.Helper()
	var out []models.GameAudit
	require.NoError(t, st.WithTx(context.Background(), func(tx store.Tx) error {
		var err error
		out, err = tx.ListAudit(context.Background(), gameID)
		return err
	}))
	return out
}

func TestRecordExtraPointsLifecycle(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newLedger()
	g, gp := seedGame(t, st)
	actor := uuid.New()

	e := &models.ExtraPoints{ID: 42, GamePlayerID: gp.ID, Delta: decimal.RequireFromString("0.5"), Reason: "best speech"}
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return l.RecordExtraPoints(ctx, tx, g.ID, OpCreate, nil, e, actor)
	}))

	created := rows(t, st, g.ID)
	require.Len(t, created, 3)
	for _, r := range created {
		assert.Nil(t, r.OldValue, r.Field)
		require.NotNil(t, r.NewValue, r.Field)
		assert.Equal(t, actor, r.UserID)
		assert.Equal(t, stamp, r.TS)
	}
	assert.Equal(t, "extra_points.42.delta", created[1].Field)
	assert.Equal(t, "0.50", *created[1].NewValue)

	after := *e
	after.Delta = decimal.RequireFromString("-1")
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return l.RecordExtraPoints(ctx, tx, g.ID, OpUpdate, e, &after, actor)
	}))
	updated := rows(t, st, g.ID)[3:]
	require.Len(t, updated, 1, "unchanged reason is not recorded")
	assert.Equal(t, "extra_points.42.delta", updated[0].Field)
	assert.Equal(t, "0.50", *updated[0].OldValue)
	assert.Equal(t, "-1.00", *updated[0].NewValue)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return l.RecordExtraPoints(ctx, tx, g.ID, OpDelete, &after, nil, actor)
	}))
	deleted := rows(t, st, g.ID)[4:]
	require.Len(t, deleted, 3)
	for _, r := range deleted {
		assert.NotNil(t, r.OldValue, r.Field)
		assert.Nil(t, r.NewValue, r.Field)
	}
}

func TestRecordExtraPointsRejectsMissingSide(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	g, _ := seedGame(t, st)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return newLedger().RecordExtraPoints(ctx, tx, g.ID, OpUpdate, nil, &models.ExtraPoints{}, uuid.New())
	})
	assert.Error(t, err)
	assert.Empty(t, rows(t, st, g.ID))
}

func TestRecordAdminCorrectionRecomputes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	g, gp := seedGame(t, st)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return tx.InsertExtraPoints(ctx, &models.ExtraPoints{GamePlayerID: gp.ID, Delta: decimal.NewFromInt(2), Reason: "x"})
	}))

	var totals map[int]decimal.Decimal
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		var err error
		totals, err = newLedger().RecordAdminCorrection(ctx, tx, g, "seat.1.fouls_count", "0", "1", uuid.New())
		return err
	}))
	assert.Equal(t, "2.00", totals[1].StringFixed(2))

	got := rows(t, st, g.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "seat.1.fouls_count", got[0].Field)
	assert.Equal(t, "0", *got[0].OldValue)
	assert.Equal(t, "1", *got[0].NewValue)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		stored, err := tx.GetGamePlayer(ctx, gp.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "2.00", stored.TotalPoints.StringFixed(2))
		return nil
	}))
}
