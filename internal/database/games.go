// internal/database/games.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/mafiastats/internal/models"
)

const gameColumns = `id, players_qty, rule_set_id, gm_id, state, date, started_at, finished_at, aborted, outcome`

func scanGame(row pgx.Row) (*models.Game, error) {
	var (
		g       models.Game
		state   string
		outcome []byte
	)
	err := row.Scan(&g.ID, &g.PlayersQty, &g.RuleSetID, &g.GMID, &state, &g.Date,
		&g.StartedAt, &g.FinishedAt, &g.Aborted, &outcome)
	if err != nil {
		return nil, err
	}
	g.State = models.GameState(state)
	if len(outcome) > 0 {
		g.Outcome = &models.Outcome{}
		if err := json.Unmarshal(outcome, g.Outcome); err != nil {
			return nil, fmt.Errorf("decode outcome of game %d: %w", g.ID, err)
		}
	}
	return &g, nil
}

func encodeOutcome(o *models.Outcome) ([]byte, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

func (t *pgTx) InsertGame(ctx context.Context, g *models.Game) error {
	outcome, err := encodeOutcome(g.Outcome)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO games (players_qty, rule_set_id, gm_id, state, date, started_at, finished_at, aborted, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err = t.tx.QueryRow(ctx, q, g.PlayersQty, g.RuleSetID, g.GMID, string(g.State), g.Date,
		g.StartedAt, g.FinishedAt, g.Aborted, outcome).Scan(&g.ID)
	return mapErr(err, "insert game")
}

func (t *pgTx) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := scanGame(t.tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("game %d", id))
	}
	return g, nil
}

func (t *pgTx) LockGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := scanGame(t.tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("game %d", id))
	}
	return g, nil
}

func (t *pgTx) ListGames(ctx context.Context, offset, limit int) ([]models.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games ORDER BY date DESC, id DESC OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err, "list games")
	}
	defer rows.Close()

	out := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateGame(ctx context.Context, g *models.Game) error {
	outcome, err := encodeOutcome(g.Outcome)
	if err != nil {
		return err
	}
	q := `
		UPDATE games
		SET rule_set_id = $1, state = $2, started_at = $3, finished_at = $4, aborted = $5, outcome = $6
		WHERE id = $7
	`
	tag, err := t.tx.Exec(ctx, q, g.RuleSetID, string(g.State), g.StartedAt, g.FinishedAt, g.Aborted, outcome, g.ID)
	return expectOne(tag, err, fmt.Sprintf("update game %d", g.ID))
}

const playerColumns = `id, game_id, player_id, seat_no, COALESCE(role, ''), fouls_count, removed, total_points`

func scanGamePlayer(row pgx.Row) (*models.GamePlayer, error) {
	var (
		gp   models.GamePlayer
		role string
	)
	err := row.Scan(&gp.ID, &gp.GameID, &gp.PlayerID, &gp.SeatNo, &role, &gp.FoulsCount, &gp.Removed, &gp.TotalPoints)
	if err != nil {
		return nil, err
	}
	gp.Role = models.Role(role)
	return &gp, nil
}

func (t *pgTx) ListGamePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+playerColumns+` FROM game_players WHERE game_id = $1 ORDER BY seat_no`, gameID)
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("list players of game %d", gameID))
	}
	defer rows.Close()

	var out []models.GamePlayer
	for rows.Next() {
		gp, err := scanGamePlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *gp)
	}
	return out, rows.Err()
}

func (t *pgTx) GetGamePlayer(ctx context.Context, id int64) (*models.GamePlayer, error) {
	gp, err := scanGamePlayer(t.tx.QueryRow(ctx, `SELECT `+playerColumns+` FROM game_players WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, fmt.Sprintf("game player %d", id))
	}
	return gp, nil
}

func (t *pgTx) InsertGamePlayer(ctx context.Context, gp *models.GamePlayer) error {
	q := `
		INSERT INTO game_players (game_id, player_id, seat_no, role, fouls_count, removed, total_points)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, q, gp.GameID, gp.PlayerID, gp.SeatNo, string(gp.Role),
		gp.FoulsCount, gp.Removed, gp.TotalPoints).Scan(&gp.ID)
	return mapErr(err, fmt.Sprintf("game %d seat %d", gp.GameID, gp.SeatNo))
}

func (t *pgTx) UpdateGamePlayer(ctx context.Context, gp *models.GamePlayer) error {
	q := `
		UPDATE game_players
		SET role = NULLIF($1, ''), fouls_count = $2, removed = $3, total_points = $4
		WHERE id = $5
	`
	tag, err := t.tx.Exec(ctx, q, string(gp.Role), gp.FoulsCount, gp.Removed, gp.TotalPoints, gp.ID)
	return expectOne(tag, err, fmt.Sprintf("game player %d", gp.ID))
}
