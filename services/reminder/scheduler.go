package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sweeper is the part of *Sweeper the scheduler drives.
type sweeper interface {
	Sweep(ctx context.Context, now time.Time) (SweepReport, error)
}

// Scheduler runs a sweep on a fixed interval until stopped.
type Scheduler struct {
	sweeper  sweeper
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	sweepMu sync.Mutex
}

func NewScheduler(s sweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{sweeper: s, interval: interval, logger: logger, now: time.Now}
}

// Start launches the sweep loop in the background. It returns immediately;
// the loop ends when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval))
	go s.loop(ctx, s.stopCh, s.done)
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped by context")
			s.markStopped()
			return
		case <-stop:
			s.logger.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunNow(ctx); err != nil {
				s.logger.Error("reminder sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Stop ends the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()
	<-done
}

// RunNow performs one sweep immediately. Sweeps never overlap.
func (s *Scheduler) RunNow(ctx context.Context) (SweepReport, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.sweeper.Sweep(ctx, s.now())
}
