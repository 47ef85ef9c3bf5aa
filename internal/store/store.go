// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a rule set with the same name exists.
	ErrDuplicateName = errors.New("duplicate rule set name")

	// ErrDuplicateRuleKey indicates the (condition, role filter) pair is already defined in the rule set.
	ErrDuplicateRuleKey = errors.New("duplicate rule key")

	// ErrSeatTaken indicates the seat number or the player is already present in the game.
	ErrSeatTaken = errors.New("seat already taken")
)

// Store hands out units of work.
type Store interface {
	// WithTx runs fn inside one atomic unit of work. If fn returns an error,
	// every write made through tx is discarded.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside a unit of work.
type Tx interface {
	RuleSets
	Games
	Extras
	Audits
}

type RuleSets interface {
	// InsertRuleSet stores rs as inactive and fills in its ID and CreatedAt.
	// Activation always goes through SwapActiveRuleSet.
	InsertRuleSet(ctx context.Context, rs *models.RuleSet) error
	GetRuleSet(ctx context.Context, id int64) (*models.RuleSet, error)
	ListRuleSets(ctx context.Context) ([]models.RuleSet, error)
	RenameRuleSet(ctx context.Context, id int64, name string) error

	// SwapActiveRuleSet makes id the only active rule set in a single step.
	SwapActiveRuleSet(ctx context.Context, id int64) error
	DeactivateRuleSet(ctx context.Context, id int64) error

	// ActiveRuleSet returns ErrNotFound when no rule set is active.
	ActiveRuleSet(ctx context.Context) (*models.RuleSet, error)

	// RuleSetPinned reports whether a finished game is scored against the rule
	// set. The rule set is held against concurrent finishes until the unit of
	// work ends.
	RuleSetPinned(ctx context.Context, ruleSetID int64) (bool, error)

	ListRuleItems(ctx context.Context, ruleSetID int64) ([]models.RuleItem, error)
	GetRuleItem(ctx context.Context, id int64) (*models.RuleItem, error)
	InsertRuleItem(ctx context.Context, it *models.RuleItem) error
	UpdateRuleItemDelta(ctx context.Context, id int64, delta decimal.Decimal) error
	DeleteRuleItem(ctx context.Context, id int64) error
}

type Games interface {
	InsertGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, id int64) (*models.Game, error)

	// LockGame loads the game and holds it against concurrent writers until
	// the unit of work ends.
	LockGame(ctx context.Context, id int64) (*models.Game, error)

	// ListGames orders by date, then id, newest first.
	ListGames(ctx context.Context, offset, limit int) ([]models.Game, error)
	UpdateGame(ctx context.Context, g *models.Game) error

	// ListGamePlayers orders by seat number.
	ListGamePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error)
	GetGamePlayer(ctx context.Context, id int64) (*models.GamePlayer, error)
	InsertGamePlayer(ctx context.Context, gp *models.GamePlayer) error
	UpdateGamePlayer(ctx context.Context, gp *models.GamePlayer) error
}

type Extras interface {
	InsertExtraPoints(ctx context.Context, e *models.ExtraPoints) error
	GetExtraPoints(ctx context.Context, id int64) (*models.ExtraPoints, error)
	UpdateExtraPoints(ctx context.Context, e *models.ExtraPoints) error
	DeleteExtraPoints(ctx context.Context, id int64) error

	// ListExtraPoints returns every adjustment of the game, oldest first.
	ListExtraPoints(ctx context.Context, gameID int64) ([]models.ExtraPoints, error)
}

// Audits is append-only.
type Audits interface {
	InsertAudit(ctx context.Context, a *models.GameAudit) error
	ListAudit(ctx context.Context, gameID int64) ([]models.GameAudit, error)
}
