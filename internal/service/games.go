// internal/service/games.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/audit"
	"github.com/jason-s-yu/mafiastats/internal/cache"
	"github.com/jason-s-yu/mafiastats/internal/game"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/scoring"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CreateGame opens a draft game for playersQty seats.
func (s *Service) CreateGame(ctx context.Context, playersQty int, gmID uuid.UUID) (*models.Game, error) {
	var g *models.Game
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		g, err = s.games.Create(ctx, tx, playersQty, gmID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game_id": g.ID, "players_qty": g.PlayersQty}).Info("game created")
	return g, nil
}

// GetGame returns a game with its roster.
func (s *Service) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	var g *models.Game
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		g, err = loadGame(ctx, tx, id)
		return err
	})
	return g, err
}

// ListGames pages through games, newest first.
func (s *Service) ListGames(ctx context.Context, offset, limit int) ([]models.Game, error) {
	var games []models.Game
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		games, err = tx.ListGames(ctx, offset, limit)
		return err
	})
	return games, err
}

// SeatPlayer assigns a player to a seat of a draft or live game.
func (s *Service) SeatPlayer(ctx context.Context, gameID, playerID int64, seatNo int, role models.Role) (*models.GamePlayer, error) {
	var gp *models.GamePlayer
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		gp, err = s.games.Seat(ctx, tx, gameID, playerID, seatNo, role)
		return err
	})
	return gp, err
}

// UpdateSeat edits a seat of a draft or live game.
func (s *Service) UpdateSeat(ctx context.Context, gamePlayerID int64, u game.SeatUpdate) (*models.GamePlayer, error) {
	var gp *models.GamePlayer
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := getGamePlayer(ctx, tx, gamePlayerID); err != nil {
			return err
		}
		var err error
		gp, err = s.games.UpdateSeat(ctx, tx, gamePlayerID, u)
		return err
	})
	return gp, err
}

// CorrectSeat is an audited admin correction of a seat of a finished or
// aborted game. It writes one audit row per changed field, keeps the state
// and recomputes the game's scores.
func (s *Service) CorrectSeat(ctx context.Context, gamePlayerID int64, u game.SeatUpdate, actor uuid.UUID) (*models.GamePlayer, error) {
	var (
		gp      *models.GamePlayer
		g       *models.Game
		players []models.GamePlayer
		totals  map[int]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		gp, err = getGamePlayer(ctx, tx, gamePlayerID)
		if err != nil {
			return err
		}
		g, err = tx.LockGame(ctx, gp.GameID)
		if err != nil {
			return err
		}
		if !g.State.Terminal() {
			return fmt.Errorf("%w: game %d is %s", ErrNotFinished, g.ID, g.State)
		}

		changed, err := u.Apply(gp)
		if err != nil || len(changed) == 0 {
			return err
		}
		if err := tx.UpdateGamePlayer(ctx, gp); err != nil {
			return err
		}
		changes := make([]audit.Change, len(changed))
		for i, c := range changed {
			old, upd := c.Old, c.New
			changes[i] = audit.Change{
				Field: fmt.Sprintf("seat.%d.%s", gp.SeatNo, c.Field),
				Old:   &old,
				New:   &upd,
			}
		}
		totals, err = s.ledger.RecordAdminCorrections(ctx, tx, g, changes, actor)
		if err != nil {
			return err
		}
		gp.TotalPoints = totals[gp.SeatNo]
		players, err = tx.ListGamePlayers(ctx, g.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if totals != nil {
		s.log.WithFields(logrus.Fields{
			"game_id": g.ID,
			"seat":    gp.SeatNo,
			"actor":   actor,
		}).Info("seat corrected")
		s.publish(ctx, scoreEvent(cache.EventScoresRecomputed, g, players, totals))
	}
	return gp, nil
}

// TransitionGame moves a game to state to. outcome is required when finishing
// and ignored otherwise. On failure the stored game is unchanged.
func (s *Service) TransitionGame(ctx context.Context, gameID int64, to models.GameState, outcome *models.Outcome) (*models.Game, error) {
	var (
		g      *models.Game
		totals map[int]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if _, totals, err = s.games.Transition(ctx, tx, gameID, to, outcome); err != nil {
			return err
		}
		g, err = loadGame(ctx, tx, gameID)
		return err
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"game_id": gameID, "to": to}).Debug("transition refused")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"game_id": g.ID, "state": g.State}).Info("game transitioned")
	switch g.State {
	case models.StateFinished:
		s.publish(ctx, scoreEvent(cache.EventGameFinished, g, g.Players, totals))
	case models.StateAborted:
		s.publish(ctx, scoreEvent(cache.EventGameAborted, g, g.Players, totals))
	}
	return g, nil
}

// CorrectOutcome replaces the outcome facts of a finished game, records the
// correction and recomputes scores. The state stays finished.
func (s *Service) CorrectOutcome(ctx context.Context, gameID int64, outcome *models.Outcome, actor uuid.UUID) (*models.Game, error) {
	var (
		g      *models.Game
		totals map[int]decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if locked.State != models.StateFinished {
			return fmt.Errorf("%w: game %d is %s", ErrNotFinished, gameID, locked.State)
		}
		players, err := tx.ListGamePlayers(ctx, gameID)
		if err != nil {
			return err
		}
		items, err := tx.ListRuleItems(ctx, *locked.RuleSetID)
		if err != nil {
			return err
		}
		if _, err := scoring.Evaluate(items, outcome, scoring.SeatsOf(players)); err != nil {
			return err
		}

		changes, err := outcomeChanges(locked.Outcome, outcome)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			g, err = loadGame(ctx, tx, gameID)
			return err
		}
		locked.Outcome = outcome
		if err := tx.UpdateGame(ctx, locked); err != nil {
			return err
		}
		if totals, err = s.ledger.RecordAdminCorrections(ctx, tx, locked, changes, actor); err != nil {
			return err
		}
		g, err = loadGame(ctx, tx, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if totals != nil {
		s.log.WithFields(logrus.Fields{"game_id": g.ID, "actor": actor}).Info("outcome corrected")
		s.publish(ctx, scoreEvent(cache.EventScoresRecomputed, g, g.Players, totals))
	}
	return g, nil
}

// RecomputeScores derives every seat total of the game from the pinned rule
// set, the outcome facts, the roster and the extra points. Running it twice
// over unchanged inputs yields the same result.
func (s *Service) RecomputeScores(ctx context.Context, gameID int64) (map[int]decimal.Decimal, error) {
	var totals map[int]decimal.Decimal
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		g, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		totals, err = scoring.Recompute(ctx, tx, g)
		return err
	})
	return totals, err
}

// ListAudit returns the audit trail of a game, oldest first.
func (s *Service) ListAudit(ctx context.Context, gameID int64) ([]models.GameAudit, error) {
	var rows []models.GameAudit
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetGame(ctx, gameID); err != nil {
			return err
		}
		var err error
		rows, err = tx.ListAudit(ctx, gameID)
		return err
	})
	return rows, err
}

func loadGame(ctx context.Context, tx store.Tx, id int64) (*models.Game, error) {
	g, err := tx.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players, err = tx.ListGamePlayers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list game players: %w", err)
	}
	return g, nil
}

func getGamePlayer(ctx context.Context, tx store.Tx, id int64) (*models.GamePlayer, error) {
	gp, err := tx.GetGamePlayer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrGamePlayerNotFound, id)
	}
	return gp, err
}

func outcomeChanges(before, after *models.Outcome) ([]audit.Change, error) {
	var changes []audit.Change
	oldCond, newCond := "", string(after.Condition)
	if before != nil {
		oldCond = string(before.Condition)
	}
	if oldCond != newCond {
		changes = append(changes, audit.Change{Field: "outcome.condition", Old: &oldCond, New: &newCond})
	}

	var oldAwards, newAwards []models.Award
	if before != nil && len(before.Awards) > 0 {
		oldAwards = before.Awards
	}
	if len(after.Awards) > 0 {
		newAwards = after.Awards
	}
	oldJSON, err := json.Marshal(oldAwards)
	if err != nil {
		return nil, err
	}
	newJSON, err := json.Marshal(newAwards)
	if err != nil {
		return nil, err
	}
	if string(oldJSON) != string(newJSON) {
		o, n := string(oldJSON), string(newJSON)
		changes = append(changes, audit.Change{Field: "outcome.awards", Old: &o, New: &n})
	}
	return changes, nil
}

func scoreEvent(t cache.EventType, g *models.Game, players []models.GamePlayer, totals map[int]decimal.Decimal) cache.ScoreEvent {
	seats := make(map[int]int64, len(players))
	for _, gp := range players {
		seats[gp.SeatNo] = gp.PlayerID
	}
	return cache.ScoreEvent{
		Type:      t,
		GameID:    g.ID,
		RuleSetID: g.RuleSetID,
		Totals:    totals,
		Players:   seats,
		Timestamp: time.Now().UnixMilli(),
	}
}
