// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultQueueName is the Redis list that receives score events.
const DefaultQueueName = "mafia_score_events"

// EventType names what happened to a game's scores.
type EventType string

const (
	EventGameFinished     EventType = "game_finished"
	EventGameAborted      EventType = "game_aborted"
	EventScoresRecomputed EventType = "scores_recomputed"
)

// ScoreEvent is pushed after a unit of work that changed a game's totals commits.
// Downstream stats consumers rebuild leaderboards from it.
type ScoreEvent struct {
	Type      EventType               `json:"type"`
	GameID    int64                   `json:"game_id"`
	RuleSetID *int64                  `json:"rule_set_id,omitempty"`
	Totals    map[int]decimal.Decimal `json:"totals"`  // by seat
	Players   map[int]int64           `json:"players"` // seat -> player id
	Timestamp int64                   `json:"timestamp"`
}

// Publisher pushes score events onto a Redis list.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// Options configures the Redis connection of a Publisher.
type Options struct {
	Addr  string
	DB    int
	Queue string
}

// ConnectRedis opens a client and verifies the server is reachable.
func ConnectRedis(ctx context.Context, opts Options) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return NewPublisher(rdb, opts.Queue), nil
}

// NewPublisher wraps an existing client. An empty queue uses DefaultQueueName.
func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// PublishScoreEvent serializes the event to JSON and pushes it to the queue.
func (p *Publisher) PublishScoreEvent(ctx context.Context, ev ScoreEvent) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal ScoreEvent: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
