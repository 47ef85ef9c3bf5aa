// internal/database/postgres.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/mafiastats/internal/store"
)

// activeRuleSetLock keys the advisory lock taken while swapping the active rule set.
const activeRuleSetLock int64 = 0x6d61666961

// Store implements store.Store on PostgreSQL. Each unit of work is one
// read-committed transaction; games are serialized with row locks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

// mapErr translates driver errors into store sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique violation
			switch pgErr.ConstraintName {
			case "rule_sets_name_key":
				return fmt.Errorf("%s: %w", what, store.ErrDuplicateName)
			case "rule_items_key_idx":
				return fmt.Errorf("%s: %w", what, store.ErrDuplicateRuleKey)
			case "game_players_seat_key", "game_players_player_key":
				return fmt.Errorf("%s: %w", what, store.ErrSeatTaken)
			}
		case "23503": // foreign key violation
			return fmt.Errorf("%s: %w", what, store.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// expectOne turns an UPDATE or DELETE that matched no row into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return mapErr(err, what)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*pgTx)(nil)
