package results

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically drops expired cache and outcome entries from the
// result store.
type Sweeper struct {
	logger   *zap.Logger
	store    Store
	interval time.Duration
}

func NewSweeper(logger *zap.Logger, store Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		store:    store,
		interval: interval,
	}
}

func (s *Sweeper) StartLoop(shutdownCh chan chan error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case ch := <-shutdownCh:
			s.logger.Info("Shutting down result store sweeper")
			ch <- nil
			return
		case <-ticker.C:
			dropped, err := s.store.DropExpired(context.Background())
			if err != nil {
				s.logger.Error("Failed to drop expired result store entries", zap.Error(err))
				continue
			}

			if dropped > 0 {
				s.logger.Debug("Dropped expired result store entries", zap.Int("count", dropped))
			}
		}
	}
}
