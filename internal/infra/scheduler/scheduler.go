package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/metrics"
	red "telegram-exchange-assistant/internal/infra/redis"
)

const jobName = "exchange_rate_request"

// RateRequester is the part of the exchange rate use case the scheduler drives.
type RateRequester interface {
	BroadcastRequest(ctx context.Context) (int, error)
}

// Scheduler periodically asks every vendor group for fresh exchange rates. A redis lock
// makes sure only one replica broadcasts per tick.
type Scheduler struct {
	interval  time.Duration
	requester RateRequester
	locker    red.Locker
	log       *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that broadcasts every interval.
// If interval <= 0 it defaults to 1 hour.
func NewScheduler(interval time.Duration, requester RateRequester, locker red.Locker, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "Scheduler").Str("job", jobName).Logger()
	return &Scheduler{
		interval:  interval,
		requester: requester,
		locker:    locker,
		log:       &l,
	}
}

// Start begins the loop in a background goroutine. Calling Start twice has no effect.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Run blocks until ctx is cancelled; it suits an errgroup.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one broadcast under the lock with a bounded timeout.
func (s *Scheduler) Tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(logging.WithTraceID(parent, ulid.Make().String()), 2*time.Minute)
	defer cancel()
	l := logging.With(ctx, s.log)

	// held slightly shorter than the interval so a crashed holder never skips two ticks
	ttl := s.interval - s.interval/10
	token, err := s.locker.TryLock(ctx, jobName, ttl)
	if errors.Is(err, red.ErrLockHeld) {
		metrics.IncSchedulerRun(jobName, "skipped")
		l.Debug().Msg("another instance holds the lock")
		return
	}
	if err != nil {
		metrics.IncSchedulerRun(jobName, "error")
		l.Error().Err(err).Msg("acquire scheduler lock")
		return
	}

	sent, err := s.requester.BroadcastRequest(ctx)
	if err != nil {
		metrics.IncSchedulerRun(jobName, "error")
		l.Error().Err(err).Msg("exchange rate broadcast failed")
		s.release(l, token)
		return
	}
	metrics.IncSchedulerRun(jobName, "ok")
	l.Info().Int("groups", sent).Msg("exchange rate requested")
	// the lock is kept until ttl expires so a lagging replica does not repeat this tick
}

func (s *Scheduler) release(l *zerolog.Logger, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.locker.Unlock(ctx, jobName, token); err != nil {
		l.Warn().Err(err).Msg("release scheduler lock")
	}
}
