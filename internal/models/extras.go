// internal/models/extras.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtraPoints is a manual bonus or penalty layered on top of rule scoring.
type ExtraPoints struct {
	ID           int64           `json:"id"`
	GamePlayerID int64           `json:"game_player_id"`
	Delta        decimal.Decimal `json:"delta"` // signed
	Reason       string          `json:"reason"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// GameAudit records one changed field of one mutation. Rows are never updated or deleted.
type GameAudit struct {
	ID       int64     `json:"id"`
	GameID   int64     `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	Field    string    `json:"field"`
	OldValue *string   `json:"old_value"`
	NewValue *string   `json:"new_value"`
	TS       time.Time `json:"ts"`
}

// Actor is the pre-validated caller identity handed to the core.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role UserRole  `json:"role"`
}
