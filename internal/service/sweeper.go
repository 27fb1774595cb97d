package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepLock keeps several replicas from sweeping on the same tick
type SweepLock interface {
	TryAcquire(ctx context.Context) (func(context.Context), error)
}

// Sweeper runs both lifecycle sweeps on a fixed interval until its context is cancelled.
type Sweeper struct {
	lifecycle *LifecycleManager
	interval  time.Duration
	lock      SweepLock
	logger    *zap.Logger
}

// NewSweeper creates a sweeper. lock may be nil.
func NewSweeper(lifecycle *LifecycleManager, interval time.Duration, lock SweepLock, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		lifecycle: lifecycle,
		interval:  interval,
		lock:      lock,
		logger:    logger,
	}
}

// Run sweeps once immediately and then on every tick
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("lifecycle sweeper started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("lifecycle sweeper stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one round of both sweeps. Failures are logged; the next tick retries.
func (s *Sweeper) Tick(ctx context.Context) {
	if s.lock != nil {
		release, err := s.lock.TryAcquire(ctx)
		if err != nil {
			// Sweeps are idempotent, so sweeping without the lock is safe
			s.logger.Warn("sweep lock unavailable, sweeping anyway", zap.Error(err))
		} else if release == nil {
			s.logger.Debug("another instance holds the sweep lock")
			return
		} else {
			defer release(ctx)
		}
	}

	// Expire first so a campaign replacing an ended one is never shadowed by it
	if _, err := s.lifecycle.SweepExpired(ctx); err != nil {
		s.logger.Error("expired sweep failed", zap.Error(err))
	}
	if _, err := s.lifecycle.SweepScheduled(ctx); err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
	}
}
