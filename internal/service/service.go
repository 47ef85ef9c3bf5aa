// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/mafiastats/internal/audit"
	"github.com/jason-s-yu/mafiastats/internal/cache"
	"github.com/jason-s-yu/mafiastats/internal/game"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrGamePlayerNotFound indicates the seat an adjustment targets does not exist.
	ErrGamePlayerNotFound = fmt.Errorf("game player %w", store.ErrNotFound)

	// ErrGameAborted indicates points were adjusted on an aborted game.
	ErrGameAborted = errors.New("game is aborted")

	// ErrInvalidReason indicates an empty or overlong adjustment reason.
	ErrInvalidReason = errors.New("reason must be 1-255 characters")

	// ErrNotFinished indicates an admin correction on a game that is still in
	// progress, or an outcome correction on a game that has no outcome.
	ErrNotFinished = errors.New("game is not finished")
)

// MaxReasonLen bounds ExtraPoints.Reason.
const MaxReasonLen = 255

// EventPublisher receives score events after their unit of work commits.
type EventPublisher interface {
	PublishScoreEvent(ctx context.Context, ev cache.ScoreEvent) error
}

// Service is the entry point of the game lifecycle and scoring core. Every
// state-changing method runs as one unit of work of the underlying store.
type Service struct {
	store  store.Store
	games  *game.Controller
	ledger *audit.Ledger
	events EventPublisher
	log    logrus.FieldLogger
}

// Option customizes a Service.
type Option func(*Service)

// WithEvents publishes score events to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithController replaces the lifecycle controller, e.g. to pin the clock in tests.
func WithController(c *game.Controller) Option {
	return func(s *Service) { s.games = c }
}

// New builds a Service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		games:  game.NewController(),
		ledger: audit.NewLedger(),
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.ledger.Now = s.games.Now
	return s
}

func (s *Service) publish(ctx context.Context, ev cache.ScoreEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishScoreEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithField("game_id", ev.GameID).Warn("failed to publish score event")
	}
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || utf8.RuneCountInString(reason) > MaxReasonLen {
		return "", ErrInvalidReason
	}
	return reason, nil
}
