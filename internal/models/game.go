// internal/models/game.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinPlayers = 7
	MaxPlayers = 10
)

// Game is a single table of mafia. Its lifecycle is driven by game.Controller only.
type Game struct {
	ID         int64      `json:"id"`
	PlayersQty int        `json:"players_qty"`
	RuleSetID  *int64     `json:"rule_set_id"` // pinned when the game finishes
	GMID       uuid.UUID  `json:"gm_id"`
	State      GameState  `json:"state"`
	Date       time.Time  `json:"date"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Aborted    bool       `json:"aborted"`
	Outcome    *Outcome   `json:"outcome,omitempty"`

	Players []GamePlayer `json:"players,omitempty"`
}

// GamePlayer is a player's seat and secret role in one game.
type GamePlayer struct {
	ID         int64 `json:"id"`
	GameID     int64 `json:"game_id"`
	PlayerID   int64 `json:"player_id"`
	SeatNo     int   `json:"seat_no"`
	Role       Role  `json:"role"`
	FoulsCount int   `json:"fouls_count"`
	Removed    bool  `json:"removed"`

	// TotalPoints caches base delta + extra points. It is only ever written by
	// scoring.Recompute and never edited on its own.
	TotalPoints decimal.Decimal `json:"total_points"`
}

// Outcome holds the facts recorded when a game finishes.
type Outcome struct {
	// Condition is the terminal fact, CITY_WIN or MAFIA_WIN. It scores every seat.
	Condition Condition `json:"condition"`

	// Awards are bonus conditions scored only for the seats they name, e.g. the
	// first-night victim or the seat that made a best move guess.
	Awards []Award `json:"awards,omitempty"`
}

// Award designates the seats eligible for a non-win condition.
type Award struct {
	Condition Condition `json:"condition"`
	Seats     []int     `json:"seats"`
}
