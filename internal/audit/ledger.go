// internal/audit/ledger.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/scoring"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
)

// Op is the kind of ExtraPoints mutation being recorded.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

// Change is one changed field. A nil side means the value did not exist.
type Change struct {
	Field string
	Old   *string
	New   *string
}

// Ledger writes GameAudit rows. It only ever inserts.
type Ledger struct {
	Now func() time.Time
}

// NewLedger returns a Ledger using wall-clock time.
func NewLedger() *Ledger {
	return &Ledger{Now: time.Now}
}

// RecordExtraPoints writes one row per field touched by an ExtraPoints
// mutation. before is nil for OpCreate, after is nil for OpDelete.
func (l *Ledger) RecordExtraPoints(ctx context.Context, tx store.Audits, gameID int64, op Op, before, after *models.ExtraPoints, actor uuid.UUID) error {
	changes, err := extraPointsChanges(op, before, after)
	if err != nil {
		return err
	}
	return l.write(ctx, tx, gameID, changes, actor)
}

// RecordAdminCorrection records one corrected field of a finished or aborted
// game and recomputes its scores. The game state is never changed here.
func (l *Ledger) RecordAdminCorrection(ctx context.Context, tx store.Tx, g *models.Game, field string, oldValue, newValue string, actor uuid.UUID) (map[int]decimal.Decimal, error) {
	return l.RecordAdminCorrections(ctx, tx, g, []Change{{Field: field, Old: &oldValue, New: &newValue}}, actor)
}

// RecordAdminCorrections records several fields corrected in one event and
// recomputes scores once.
func (l *Ledger) RecordAdminCorrections(ctx context.Context, tx store.Tx, g *models.Game, changes []Change, actor uuid.UUID) (map[int]decimal.Decimal, error) {
	if err := l.write(ctx, tx, g.ID, changes, actor); err != nil {
		return nil, err
	}
	return scoring.Recompute(ctx, tx, g)
}

func (l *Ledger) write(ctx context.Context, tx store.Audits, gameID int64, changes []Change, actor uuid.UUID) error {
	ts := l.Now().UTC()
	for _, c := range changes {
		row := &models.GameAudit{
			GameID:   gameID,
			UserID:   actor,
			Field:    c.Field,
			OldValue: c.Old,
			NewValue: c.New,
			TS:       ts,
		}
		if err := tx.InsertAudit(ctx, row); err != nil {
			return fmt.Errorf("insert audit %s: %w", c.Field, err)
		}
	}
	return nil
}

func extraPointsChanges(op Op, before, after *models.ExtraPoints) ([]Change, error) {
	switch op {
	case OpCreate:
		if after == nil {
			return nil, fmt.Errorf("audit create: missing extra points")
		}
		p := prefix(after.ID)
		return []Change{
			{Field: p + "game_player_id", New: str(fmt.Sprint(after.GamePlayerID))},
			{Field: p + "delta", New: str(after.Delta.StringFixed(2))},
			{Field: p + "reason", New: str(after.Reason)},
		}, nil
	case OpUpdate:
		if before == nil || after == nil {
			return nil, fmt.Errorf("audit update: missing extra points")
		}
		p := prefix(after.ID)
		var out []Change
		if !before.Delta.Equal(after.Delta) {
			out = append(out, Change{p + "delta", str(before.Delta.StringFixed(2)), str(after.Delta.StringFixed(2))})
		}
		if before.Reason != after.Reason {
			out = append(out, Change{p + "reason", str(before.Reason), str(after.Reason)})
		}
		return out, nil
	case OpDelete:
		if before == nil {
			return nil, fmt.Errorf("audit delete: missing extra points")
		}
		p := prefix(before.ID)
		return []Change{
			{Field: p + "game_player_id", Old: str(fmt.Sprint(before.GamePlayerID))},
			{Field: p + "delta", Old: str(before.Delta.StringFixed(2))},
			{Field: p + "reason", Old: str(before.Reason)},
		}, nil
	}
	return nil, fmt.Errorf("audit: unknown op %d", op)
}

func prefix(id int64) string {
	return fmt.Sprintf("extra_points.%d.", id)
}

func str(s string) *string {
	return &s
}
