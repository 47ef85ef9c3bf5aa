// internal/database/extras.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mafiastats/internal/models"
)

func scanExtraPoints(row pgx.Row) (*models.ExtraPoints, error) {
	var e models.ExtraPoints
	if err := row.Scan(&e.ID, &e.GamePlayerID, &e.Delta, &e.Reason, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *pgTx) InsertExtraPoints(ctx context.Context, e *models.ExtraPoints) error {
	q := `
		INSERT INTO extra_points (game_player_id, delta, reason, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := t.tx.QueryRow(ctx, q, e.GamePlayerID, e.Delta, e.Reason, e.CreatedBy).Scan(&e.ID, &e.CreatedAt)
	return mapErr(err, fmt.Sprintf("insert extra points for game player %d", e.GamePlayerID))
}

func (t *pgTx) GetExtraPoints(ctx context.Context, id int64) (*models.ExtraPoints, error) {
	q := `SELECT id, game_player_id, delta, reason, created_by, created_at FROM extra_points WHERE id = $1`
	e, err := scanExtraPoints(t.tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("extra points %d", id))
	}
	return e, nil
}

func (t *pgTx) UpdateExtraPoints(ctx context.Context, e *models.ExtraPoints) error {
	tag, err := t.tx.Exec(ctx, `UPDATE extra_points SET delta = $1, reason = $2 WHERE id = $3`, e.Delta, e.Reason, e.ID)
	return expectOne(tag, err, fmt.Sprintf("extra points %d", e.ID))
}

func (t *pgTx) DeleteExtraPoints(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM extra_points WHERE id = $1`, id)
	return expectOne(tag, err, fmt.Sprintf("extra points %d", id))
}

func (t *pgTx) ListExtraPoints(ctx context.Context, gameID int64) ([]models.ExtraPoints, error) {
	q := `
		SELECT e.id, e.game_player_id, e.delta, e.reason, e.created_by, e.created_at
		FROM extra_points e
		JOIN game_players gp ON gp.id = e.game_player_id
		WHERE gp.game_id = $1
		ORDER BY e.created_at, e.id
	`
	rows, err := t.tx.Query(ctx, q, gameID)
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("list extra points of game %d", gameID))
	}
	defer rows.Close()

	var out []models.ExtraPoints
	for rows.Next() {
		e, err := scanExtraPoints(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertAudit(ctx context.Context, a *models.GameAudit) error {
	q := `
		INSERT INTO game_audit (game_id, user_id, field, old_value, new_value, ts)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, ts
	`
	var ts any
	if !a.TS.IsZero() {
		ts = a.TS
	}
	err := t.tx.QueryRow(ctx, q, a.GameID, a.UserID, a.Field, a.OldValue, a.NewValue, ts).Scan(&a.ID, &a.TS)
	return mapErr(err, fmt.Sprintf("insert audit %s", a.Field))
}

func (t *pgTx) ListAudit(ctx context.Context, gameID int64) ([]models.GameAudit, error) {
	q := `
		SELECT id, game_id, user_id, field, old_value, new_value, ts
		FROM game_audit
		WHERE game_id = $1
		ORDER BY ts, id
	`
	rows, err := t.tx.Query(ctx, q, gameID)
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("list audit of game %d", gameID))
	}
	defer rows.Close()

	var out []models.GameAudit
	for rows.Next() {
		var a models.GameAudit
		if err := rows.Scan(&a.ID, &a.GameID, &a.UserID, &a.Field, &a.OldValue, &a.NewValue, &a.TS); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
