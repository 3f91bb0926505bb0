package service

import (
	"context"
	"time"

	"collab-notes-be/internal/pkg/logger"
)

type ISweeperService interface {
	Run(ctx context.Context)
}

// sweeperService periodically clears expired locks. Purely advisory
// housekeeping: every read path evaluates expiry lazily, so correctness
// never depends on this cadence.
type sweeperService struct {
	lockService INoteLockService
	interval    time.Duration
	logger      logger.ILogger
}

func NewSweeperService(lockService INoteLockService, interval time.Duration, log logger.ILogger) ISweeperService {
	return &sweeperService{
		lockService: lockService,
		interval:    interval,
		logger:      log,
	}
}

func (s *sweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.lockService.SweepExpired(ctx); err != nil {
				s.logger.Error("sweeper", "Sweep failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
