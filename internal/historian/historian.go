// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jason-s-yu/mafiastats/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultLeaderboardKey is the sorted set of player id -> accumulated points.
	DefaultLeaderboardKey = "mafia_leaderboard"

	popTimeout = 3 * time.Second

	maxApplyAttempts = 10
)

// Historian pops score events off the queue and folds them into a leaderboard.
// A game's contribution is tracked per player, so a recompute replaces the
// earlier contribution instead of adding to it.
type Historian struct {
	rdb   *redis.Client
	queue string
	board string
}

// New builds a Historian over rdb. Empty names use the defaults.
func New(rdb *redis.Client, queue, board string) *Historian {
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	if board == "" {
		board = DefaultLeaderboardKey
	}
	return &Historian{rdb: rdb, queue: queue, board: board}
}

// Run consumes events until ctx is cancelled.
func (h *Historian) Run(ctx context.Context) error {
	log.WithField("queue", h.queue).Info("historian started")
	for {
		if err := ctx.Err(); err != nil {
			log.Info("historian shutting down")
			return nil
		}

		res, err := h.rdb.BLPop(ctx, popTimeout, h.queue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.WithError(err).Error("BLPop failed")
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var ev cache.ScoreEvent
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			log.WithError(err).Warn("invalid score event")
			continue
		}
		if err := h.Apply(ctx, ev); err != nil {
			log.WithError(err).WithField("game_id", ev.GameID).Error("failed to apply score event")
		}
	}
}

// Apply folds one event into the leaderboard. The read of the game's earlier
// contributions and the write of the difference run under WATCH, so a
// concurrent Apply for the same game makes this one retry instead of applying
// a stale diff. Events of one game must still arrive in order, so run a single
// consumer per queue.
func (h *Historian) Apply(ctx context.Context, ev cache.ScoreEvent) error {
	key := gameKey(ev.GameID)
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		n, err := h.apply(ctx, key, ev)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("game %d: %w", ev.GameID, err)
		}
		if n > 0 {
			log.WithFields(log.Fields{"game_id": ev.GameID, "type": ev.Type, "players": n}).Debug("leaderboard updated")
		}
		return nil
	}
	return fmt.Errorf("game %d: leaderboard update kept conflicting after %d attempts", ev.GameID, maxApplyAttempts)
}

func (h *Historian) apply(ctx context.Context, key string, ev cache.ScoreEvent) (int, error) {
	var applied int
	err := h.rdb.Watch(ctx, func(tx *redis.Tx) error {
		prev, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("load contributions: %w", err)
		}
		previous, err := parseContributions(prev)
		if err != nil {
			return err
		}
		current := Contributions(ev)
		incr := Increments(previous, current)
		if len(incr) == 0 {
			return nil
		}

		cmds, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for player, d := range incr {
				pipe.ZIncrBy(ctx, h.board, d.InexactFloat64(), strconv.FormatInt(player, 10))
			}
			fields := make(map[string]any, len(current))
			for player, total := range current {
				fields[strconv.FormatInt(player, 10)] = total.StringFixed(2)
			}
			for player := range previous {
				if _, ok := current[player]; !ok {
					pipe.HDel(ctx, key, strconv.FormatInt(player, 10))
				}
			}
			if len(fields) > 0 {
				pipe.HSet(ctx, key, fields)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return fmt.Errorf("update leaderboard: %w", err)
			}
		}
		applied = len(incr)
		return nil
	}, key)
	return applied, err
}

// Contributions maps each player of the event to their seat total.
func Contributions(ev cache.ScoreEvent) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(ev.Players))
	for seat, player := range ev.Players {
		out[player] = ev.Totals[seat]
	}
	return out
}

// Increments returns how far each player's leaderboard score has to move to
// go from the previous contributions of a game to the current ones. Players
// whose contribution is unchanged are omitted.
func Increments(previous, current map[int64]decimal.Decimal) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for player, total := range current {
		if d := total.Sub(previous[player]); !d.IsZero() {
			out[player] = d
		}
	}
	for player, total := range previous {
		if _, ok := current[player]; !ok && !total.IsZero() {
			out[player] = total.Neg()
		}
	}
	return out
}

func parseContributions(raw map[string]string) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(raw))
	for k, v := range raw {
		player, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad player id %q: %w", k, err)
		}
		total, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("bad total %q: %w", v, err)
		}
		out[player] = total
	}
	return out, nil
}

func gameKey(gameID int64) string {
	return fmt.Sprintf("mafia_game_totals:%d", gameID)
}
