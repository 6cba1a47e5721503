package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ListingExpirer flips live listings past their expiry
type ListingExpirer interface {
	ExpireStaleListings(ctx context.Context) (int, error)
}

// ListingSweeper periodically expires stale listings
type ListingSweeper struct {
	interval time.Duration
	expirer  ListingExpirer
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewListingSweeper creates a new listing sweeper
func NewListingSweeper(interval time.Duration, expirer ListingExpirer, logger *zap.Logger) *ListingSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ListingSweeper{
		interval: interval,
		expirer:  expirer,
		logger:   logger,
	}
}

// Start starts the sweep loop
func (s *ListingSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Listing expiry sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop gracefully stops the sweep loop
func (s *ListingSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Listing expiry sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Listing expiry sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *ListingSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ListingSweeper) sweep(ctx context.Context) {
	expired, err := s.expirer.ExpireStaleListings(ctx)
	if err != nil {
		s.logger.Error("listing expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		s.logger.Info("expired stale listings", zap.Int("count", expired))
	}
}
