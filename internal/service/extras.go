// internal/service/extras.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/audit"
	"github.com/jason-s-yu/mafiastats/internal/cache"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/rules"
	"github.com/jason-s-yu/mafiastats/internal/scoring"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ExtraPointsUpdate lists the fields of an adjustment to change; nil fields are kept.
type ExtraPointsUpdate struct {
	Delta  *decimal.Decimal `json:"delta"`
	Reason *string          `json:"reason"`
}

// ApplyExtraPoints grants a manual bonus (or penalty, when negative) to a seat,
// records it in the audit ledger and recomputes the seat totals.
func (s *Service) ApplyExtraPoints(ctx context.Context, gamePlayerID int64, delta decimal.Decimal, reason string, actor uuid.UUID) (*models.ExtraPoints, error) {
	if err := rules.ValidateAdjustment(delta); err != nil {
		return nil, err
	}
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}

	var (
		e       *models.ExtraPoints
		g       *models.Game
		players []models.GamePlayer
		totals  map[int]decimal.Decimal
	)
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		gp, err := getGamePlayer(ctx, tx, gamePlayerID)
		if err != nil {
			return err
		}
		if g, err = lockAdjustable(ctx, tx, gp.GameID); err != nil {
			return err
		}
		e = &models.ExtraPoints{
			GamePlayerID: gp.ID,
			Delta:        delta,
			Reason:       reason,
			CreatedBy:    actor,
		}
		if err := tx.InsertExtraPoints(ctx, e); err != nil {
			return err
		}
		if err := s.ledger.RecordExtraPoints(ctx, tx, g.ID, audit.OpCreate, nil, e, actor); err != nil {
			return err
		}
		if totals, err = scoring.Recompute(ctx, tx, g); err != nil {
			return err
		}
		players, err = tx.ListGamePlayers(ctx, g.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"game_id":         g.ID,
		"game_player_id":  gamePlayerID,
		"extra_points_id": e.ID,
		"delta":           delta.String(),
		"actor":           actor,
	}).Info("extra points applied")
	s.publish(ctx, scoreEvent(cache.EventScoresRecomputed, g, players, totals))
	return e, nil
}

// UpdateExtraPoints changes the delta and/or reason of an adjustment.
func (s *Service) UpdateExtraPoints(ctx context.Context, id int64, u ExtraPointsUpdate, actor uuid.UUID) (*models.ExtraPoints, error) {
	if u.Delta != nil {
		if err := rules.ValidateAdjustment(*u.Delta); err != nil {
			return nil, err
		}
	}
	if u.Reason != nil {
		reason, err := validateReason(*u.Reason)
		if err != nil {
			return nil, err
		}
		u.Reason = &reason
	}

	var (
		after   *models.ExtraPoints
		g       *models.Game
		players []models.GamePlayer
		totals  map[int]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		before, err := tx.GetExtraPoints(ctx, id)
		if err != nil {
			return err
		}
		gp, err := getGamePlayer(ctx, tx, before.GamePlayerID)
		if err != nil {
			return err
		}
		if g, err = lockAdjustable(ctx, tx, gp.GameID); err != nil {
			return err
		}
		next := *before
		if u.Delta != nil {
			next.Delta = *u.Delta
		}
		if u.Reason != nil {
			next.Reason = *u.Reason
		}
		after = &next
		if err := tx.UpdateExtraPoints(ctx, after); err != nil {
			return err
		}
		if err := s.ledger.RecordExtraPoints(ctx, tx, g.ID, audit.OpUpdate, before, after, actor); err != nil {
			return err
		}
		if totals, err = scoring.Recompute(ctx, tx, g); err != nil {
			return err
		}
		players, err = tx.ListGamePlayers(ctx, g.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game_id": g.ID, "extra_points_id": id, "actor": actor}).Info("extra points updated")
	s.publish(ctx, scoreEvent(cache.EventScoresRecomputed, g, players, totals))
	return after, nil
}

// DeleteExtraPoints removes an adjustment and recomputes the seat totals.
func (s *Service) DeleteExtraPoints(ctx context.Context, id int64, actor uuid.UUID) error {
	var (
		g       *models.Game
		players []models.GamePlayer
		totals  map[int]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		before, err := tx.GetExtraPoints(ctx, id)
		if err != nil {
			return err
		}
		gp, err := getGamePlayer(ctx, tx, before.GamePlayerID)
		if err != nil {
			return err
		}
		if g, err = lockAdjustable(ctx, tx, gp.GameID); err != nil {
			return err
		}
		if err := tx.DeleteExtraPoints(ctx, id); err != nil {
			return err
		}
		if err := s.ledger.RecordExtraPoints(ctx, tx, g.ID, audit.OpDelete, before, nil, actor); err != nil {
			return err
		}
		if totals, err = scoring.Recompute(ctx, tx, g); err != nil {
			return err
		}
		players, err = tx.ListGamePlayers(ctx, g.ID)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"game_id": g.ID, "extra_points_id": id, "actor": actor}).Info("extra points deleted")
	s.publish(ctx, scoreEvent(cache.EventScoresRecomputed, g, players, totals))
	return nil
}

// ListExtraPoints returns the adjustments of a game, oldest first.
func (s *Service) ListExtraPoints(ctx context.Context, gameID int64) ([]models.ExtraPoints, error) {
	var out []models.ExtraPoints
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetGame(ctx, gameID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListExtraPoints(ctx, gameID)
		return err
	})
	return out, err
}

// lockAdjustable locks the game of an adjustment and rejects aborted games.
func lockAdjustable(ctx context.Context, tx store.Tx, gameID int64) (*models.Game, error) {
	g, err := tx.LockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.State == models.StateAborted {
		return nil, fmt.Errorf("%w: game %d", ErrGameAborted, g.ID)
	}
	return g, nil
}
