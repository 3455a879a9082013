// Package janitor resets conversations whose workflow was abandoned midway.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/persistence"
)

const (
	DefaultSchedule   = "@every 15m"
	DefaultStaleAfter = 24 * time.Hour
)

// ErrInvalidStaleAfter is returned for a non-positive idle window.
var ErrInvalidStaleAfter = errors.New("stale-after must be positive")

// Config controls when a workflow counts as abandoned and how often to look.
type Config struct {
	Schedule   string
	StaleAfter time.Duration
}

// Janitor periodically resets workflows idle for longer than StaleAfter.
type Janitor struct {
	conversations persistence.ConversationRepository
	publisher     eventbus.EventPublisher
	config        Config
	logger        *slog.Logger
	now           func() time.Time

	cron  *cron.Cron
	mutex sync.Mutex
}

// New validates config and creates a janitor. publisher may be nil.
func New(
	logger *slog.Logger,
	conversations persistence.ConversationRepository,
	publisher eventbus.EventPublisher,
	config Config,
) (*Janitor, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}

	if config.StaleAfter == 0 {
		config.StaleAfter = DefaultStaleAfter
	}

	if config.StaleAfter < 0 {
		return nil, ErrInvalidStaleAfter
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule '%s': %w", config.Schedule, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		conversations: conversations,
		publisher:     publisher,
		config:        config,
		logger:        logger.With("module", "janitor"),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start schedules the sweep. It returns immediately.
func (j *Janitor) Start(ctx context.Context) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cron != nil {
		return nil
	}

	logger := cronLogger{logger: j.logger}

	j.cron = cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if _, err := j.Sweep(context.WithoutCancel(ctx)); err != nil {
			j.logger.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		j.cron = nil

		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Janitor started", "schedule", j.config.Schedule, "stale_after", j.config.StaleAfter)

	return nil
}

// Stop unschedules the sweep and waits for a running one to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) error {
	j.mutex.Lock()
	scheduler := j.cron
	j.cron = nil
	j.mutex.Unlock()

	if scheduler == nil {
		return nil
	}

	select {
	case <-scheduler.Stop().Done():
		j.logger.Info("Janitor stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep resets every conversation idle past StaleAfter and returns how many it reset.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	now := j.now()

	stale, err := j.conversations.ListStale(ctx, now.Add(-j.config.StaleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale conversations: %w", err)
	}

	var (
		reset int
		errs  []error
	)

	for _, state := range stale {
		logger := j.logger.With("conversation_id", state.ConversationID, "operation", state.ActiveOperation)

		err := j.conversations.Reset(ctx, state.ConversationID, state.UserID)
		if persistence.IsConversationNotFound(err) {
			logger.Debug("Stale conversation already gone")

			continue
		}

		if err != nil {
			logger.Error("Failed to reset stale conversation", "error", err)
			errs = append(errs, err)

			continue
		}

		reset++

		idle := now.Sub(state.UpdatedAt)
		logger.Info("Reset abandoned workflow", "step", state.CurrentStep(), "idle_for", idle)

		j.publish(ctx, events.OperationExpired{
			BaseEvent: events.NewBaseEvent(uuid.NewString(), events.OperationExpiredEvent, state, now),
			Operation: state.ActiveOperation,
			Step:      state.CurrentStep(),
			IdleFor:   idle,
		})
	}

	return reset, errors.Join(errs...)
}

func (j *Janitor) publish(ctx context.Context, event events.OperationExpired) {
	if j.publisher == nil {
		return
	}

	if err := j.publisher.Publish(ctx, event.Key(), event); err != nil {
		j.logger.Warn("Failed to publish expiry event", "conversation_id", event.ConversationID, "error", err)
	}
}

// cronLogger routes the scheduler's own messages through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
