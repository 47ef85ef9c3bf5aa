// internal/game/lifecycle.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/rules"
	"github.com/jason-s-yu/mafiastats/internal/scoring"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
)

var (
	// ErrIncompleteRoster indicates a game cannot go live with its current seats.
	ErrIncompleteRoster = errors.New("incomplete roster")

	// ErrIllegalTransition indicates the requested state change is not allowed from the current state.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrInvalidPlayersQty indicates a table size outside 7..10.
	ErrInvalidPlayersQty = errors.New("players_qty must be between 7 and 10")

	// ErrInvalidSeat indicates a seat number outside 1..players_qty or an unknown role.
	ErrInvalidSeat = errors.New("invalid seat")

	// ErrRosterClosed indicates the roster of a finished or aborted game was
	// edited outside of an audited correction.
	ErrRosterClosed = errors.New("roster is closed")
)

// Controller owns the lifecycle of games. All methods run inside a caller
// supplied unit of work and lock the game row first.
type Controller struct {
	// Now stamps started_at / finished_at.
	Now func() time.Time
}

// NewController returns a Controller using wall-clock time.
func NewController() *Controller {
	return &Controller{Now: time.Now}
}

// Create stores a new draft game.
func (c *Controller) Create(ctx context.Context, tx store.Games, playersQty int, gmID uuid.UUID) (*models.Game, error) {
	if playersQty < models.MinPlayers || playersQty > models.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayersQty, playersQty)
	}
	now := c.Now().UTC()
	g := &models.Game{
		PlayersQty: playersQty,
		GMID:       gmID,
		State:      models.StateDraft,
		Date:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := tx.InsertGame(ctx, g); err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	return g, nil
}

// Seat places a player on a seat of a draft or live game. The role may be
// left empty while the game is a draft.
func (c *Controller) Seat(ctx context.Context, tx store.Games, gameID, playerID int64, seatNo int, role models.Role) (*models.GamePlayer, error) {
	g, err := tx.LockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.State.Terminal() {
		return nil, fmt.Errorf("%w: game %d is %s", ErrRosterClosed, g.ID, g.State)
	}
	if seatNo < 1 || seatNo > g.PlayersQty {
		return nil, fmt.Errorf("%w: seat %d outside 1..%d", ErrInvalidSeat, seatNo, g.PlayersQty)
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSeat, role)
	}
	if role == "" && g.State != models.StateDraft {
		return nil, fmt.Errorf("%w: a live game needs a role for seat %d", ErrInvalidSeat, seatNo)
	}
	gp := &models.GamePlayer{
		GameID:   g.ID,
		PlayerID: playerID,
		SeatNo:   seatNo,
		Role:     role,
	}
	if err := tx.InsertGamePlayer(ctx, gp); err != nil {
		return nil, err
	}
	return gp, nil
}

// SeatUpdate lists the seat fields to change; nil fields are kept.
type SeatUpdate struct {
	Role       *models.Role `json:"role"`
	FoulsCount *int         `json:"fouls_count"`
	Removed    *bool        `json:"removed"`
}

// FieldChange is one field of a seat that an update changed.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Apply validates u and writes it onto gp, returning the fields it changed.
func (u SeatUpdate) Apply(gp *models.GamePlayer) ([]FieldChange, error) {
	var changed []FieldChange
	if u.Role != nil {
		if !u.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSeat, *u.Role)
		}
		if *u.Role != gp.Role {
			changed = append(changed, FieldChange{"role", string(gp.Role), string(*u.Role)})
			gp.Role = *u.Role
		}
	}
	if u.FoulsCount != nil {
		if *u.FoulsCount < 0 {
			return nil, fmt.Errorf("%w: negative fouls count", ErrInvalidSeat)
		}
		if *u.FoulsCount != gp.FoulsCount {
			changed = append(changed, FieldChange{"fouls_count", fmt.Sprint(gp.FoulsCount), fmt.Sprint(*u.FoulsCount)})
			gp.FoulsCount = *u.FoulsCount
		}
	}
	if u.Removed != nil && *u.Removed != gp.Removed {
		changed = append(changed, FieldChange{"removed", fmt.Sprint(gp.Removed), fmt.Sprint(*u.Removed)})
		gp.Removed = *u.Removed
	}
	return changed, nil
}

// UpdateSeat edits a seat of a draft or live game. Finished and aborted
// games are corrected through the audit ledger instead.
func (c *Controller) UpdateSeat(ctx context.Context, tx store.Games, gamePlayerID int64, u SeatUpdate) (*models.GamePlayer, error) {
	gp, err := tx.GetGamePlayer(ctx, gamePlayerID)
	if err != nil {
		return nil, err
	}
	g, err := tx.LockGame(ctx, gp.GameID)
	if err != nil {
		return nil, err
	}
	if g.State.Terminal() {
		return nil, fmt.Errorf("%w: game %d is %s", ErrRosterClosed, g.ID, g.State)
	}
	if _, err := u.Apply(gp); err != nil {
		return nil, err
	}
	if err := tx.UpdateGamePlayer(ctx, gp); err != nil {
		return nil, err
	}
	return gp, nil
}

// Transition moves a game to state to. Finishing requires outcome facts, a
// valid composition and an active rule set; on any failure the game is left
// untouched. Returned totals are keyed by seat and empty unless scores changed.
func (c *Controller) Transition(ctx context.Context, tx store.Tx, gameID int64, to models.GameState, outcome *models.Outcome) (*models.Game, map[int]decimal.Decimal, error) {
	g, err := tx.LockGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	from := g.State

	switch {
	case from == models.StateDraft && to == models.StateLive:
		if err := c.start(ctx, tx, g); err != nil {
			return nil, nil, err
		}
	case from == models.StateLive && to == models.StateFinished:
		totals, err := c.finish(ctx, tx, g, outcome)
		if err != nil {
			return nil, nil, err
		}
		return g, totals, nil
	case (from == models.StateDraft || from == models.StateLive) && to == models.StateAborted:
		totals, err := c.abort(ctx, tx, g)
		if err != nil {
			return nil, nil, err
		}
		return g, totals, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return g, map[int]decimal.Decimal{}, nil
}

func (c *Controller) start(ctx context.Context, tx store.Tx, g *models.Game) error {
	players, err := tx.ListGamePlayers(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("list game players: %w", err)
	}
	if err := CheckRoster(g.PlayersQty, players); err != nil {
		return err
	}
	now := c.Now().UTC()
	g.State = models.StateLive
	g.StartedAt = &now
	return tx.UpdateGame(ctx, g)
}

func (c *Controller) finish(ctx context.Context, tx store.Tx, g *models.Game, outcome *models.Outcome) (map[int]decimal.Decimal, error) {
	players, err := tx.ListGamePlayers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list game players: %w", err)
	}
	if err := ValidateComposition(g.PlayersQty, RolesOf(players)); err != nil {
		return nil, err
	}
	if err := scoring.ValidateOutcome(outcome, scoring.SeatsOf(players)); err != nil {
		return nil, err
	}
	rs, err := rules.Active(ctx, tx)
	if err != nil {
		return nil, err
	}
	// evaluate before the first write so an unscorable outcome changes nothing
	if _, err := scoring.Evaluate(rs.Items, outcome, scoring.SeatsOf(players)); err != nil {
		return nil, err
	}

	now := c.Now().UTC()
	g.State = models.StateFinished
	g.FinishedAt = &now
	g.RuleSetID = &rs.ID
	g.Outcome = outcome
	if err := tx.UpdateGame(ctx, g); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}
	return scoring.Recompute(ctx, tx, g)
}

func (c *Controller) abort(ctx context.Context, tx store.Tx, g *models.Game) (map[int]decimal.Decimal, error) {
	g.State = models.StateAborted
	g.Aborted = true
	g.Outcome = nil
	if err := tx.UpdateGame(ctx, g); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}
	return scoring.Recompute(ctx, tx, g)
}

// CheckRoster verifies a roster is ready to go live: exactly playersQty seats,
// unique seat numbers within 1..playersQty and a role on every seat.
func CheckRoster(playersQty int, players []models.GamePlayer) error {
	if len(players) != playersQty {
		return fmt.Errorf("%w: %d of %d seats filled", ErrIncompleteRoster, len(players), playersQty)
	}
	seen := make(map[int]bool, len(players))
	for _, gp := range players {
		if gp.SeatNo < 1 || gp.SeatNo > playersQty {
			return fmt.Errorf("%w: seat %d outside 1..%d", ErrIncompleteRoster, gp.SeatNo, playersQty)
		}
		if seen[gp.SeatNo] {
			return fmt.Errorf("%w: seat %d assigned twice", ErrIncompleteRoster, gp.SeatNo)
		}
		seen[gp.SeatNo] = true
		if !gp.Role.Valid() {
			return fmt.Errorf("%w: seat %d has no role", ErrIncompleteRoster, gp.SeatNo)
		}
	}
	return nil
}
