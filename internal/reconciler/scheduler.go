package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SanyCska/serials-bot/internal/logging"
)

// Scheduler runs the engine on a fixed interval. Cycles never overlap: when
// a cycle is still running at the next tick, the tick is skipped.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Bool
}

// NewScheduler constructs a scheduler around an engine.
func NewScheduler(engine *Engine, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		logger:   logger.With(logging.String(logging.FieldComponent, "scheduler")),
	}
}

// Start launches the periodic loop. The first cycle runs one interval after
// start, not immediately, so a crash-looping process does not hammer the
// provider.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.loop(loopCtx)
	s.logger.Info("scheduler started", logging.Duration("interval", s.interval))
	return nil
}

// Stop halts the loop and waits for any in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// TriggerNow runs a cycle immediately, outside the periodic cadence. Returns
// false without running when a cycle is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (Summary, bool, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Summary{}, false, nil
	}
	defer s.inFlight.Store(false)
	summary, err := s.engine.RunCycle(ctx)
	return summary, true, err
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runGuarded(ctx)
		}
	}
}

func (s *Scheduler) runGuarded(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous cycle still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	if _, err := s.engine.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("reconciliation cycle failed", logging.Error(err))
	}
}
