package service

import (
	"context"
	"time"

	"github.com/careerforge/identity-service/internal/repository"
	"go.uber.org/zap"
)

// StateCleaner periodically removes oauth states past their TTL. Expired
// states already fail closed at consume time; the sweep keeps the table
// from accumulating abandoned authorization attempts.
type StateCleaner struct {
	states   repository.OAuthStateRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewStateCleaner creates a new state cleaner
func NewStateCleaner(states repository.OAuthStateRepository, interval time.Duration, logger *zap.Logger) *StateCleaner {
	return &StateCleaner{
		states:   states,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until the context is canceled
func (c *StateCleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := c.states.DeleteExpired(ctx)
			if err != nil {
				c.logger.Error("oauth state cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				c.logger.Info("removed expired oauth states", zap.Int64("count", removed))
			}
		}
	}
}
