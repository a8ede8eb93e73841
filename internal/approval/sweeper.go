package approval

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Start begins the background expiry sweep at the configured interval.
//
// Idempotent in the negative sense: starting an already running store
// returns an error without spawning a second goroutine.
func (s *Store) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return fmt.Errorf("approval sweeper already running")
	}
	s.stopCh = make(chan struct{})
	s.running = true

	s.logger.Info("approval sweeper started",
		zap.Duration("interval", s.config.SweepInterval),
	)
	go s.run(s.stopCh)
	return nil
}

// Stop halts the background sweep. Calling Stop on a stopped store is a
// no-op.
func (s *Store) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.logger.Info("approval sweeper stopped")
}

// run is the sweep loop. Each tick removes expired entries; errors cannot
// occur, so the loop only ends on Stop.
func (s *Store) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.CleanupExpired(); n > 0 {
				s.logger.Info("expiry sweep removed approvals", zap.Int("count", n))
			}
		case <-stopCh:
			return
		}
	}
}
