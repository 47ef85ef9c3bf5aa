// internal/scoring/totals.go
package scoring

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
)

// Totals adds each seat's extra points to its base delta. Seats missing from
// base score zero before adjustments.
func Totals(base map[int]decimal.Decimal, players []models.GamePlayer, extras []models.ExtraPoints) map[int]decimal.Decimal {
	seatOf := make(map[int64]int, len(players))
	totals := make(map[int]decimal.Decimal, len(players))
	for _, gp := range players {
		seatOf[gp.ID] = gp.SeatNo
		totals[gp.SeatNo] = base[gp.SeatNo]
	}
	for _, e := range extras {
		no, ok := seatOf[e.GamePlayerID]
		if !ok {
			continue
		}
		totals[no] = totals[no].Add(e.Delta)
	}
	return totals
}

// BaseDeltas returns the rule-driven part of the score. Only finished games
// carry one; every other state scores zero.
func BaseDeltas(ctx context.Context, tx store.Tx, g *models.Game, players []models.GamePlayer) (map[int]decimal.Decimal, error) {
	if g.State != models.StateFinished {
		return map[int]decimal.Decimal{}, nil
	}
	if g.RuleSetID == nil {
		return nil, fmt.Errorf("finished game %d has no rule set", g.ID)
	}
	items, err := tx.ListRuleItems(ctx, *g.RuleSetID)
	if err != nil {
		return nil, fmt.Errorf("list rule items: %w", err)
	}
	return Evaluate(items, g.Outcome, SeatsOf(players))
}

// Recompute derives every seat total of g from its inputs and rewrites the
// cached GamePlayer.TotalPoints where it differs. Totals are keyed by seat.
func Recompute(ctx context.Context, tx store.Tx, g *models.Game) (map[int]decimal.Decimal, error) {
	players, err := tx.ListGamePlayers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list game players: %w", err)
	}
	base, err := BaseDeltas(ctx, tx, g, players)
	if err != nil {
		return nil, err
	}
	extras, err := tx.ListExtraPoints(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list extra points: %w", err)
	}

	totals := Totals(base, players, extras)
	for i := range players {
		gp := &players[i]
		want := totals[gp.SeatNo]
		if gp.TotalPoints.Equal(want) {
			continue
		}
		gp.TotalPoints = want
		if err := tx.UpdateGamePlayer(ctx, gp); err != nil {
			return nil, fmt.Errorf("update total of seat %d: %w", gp.SeatNo, err)
		}
	}
	return totals, nil
}
