// Package scheduler runs the alert pipeline on a plain timer.
package scheduler

import (
	"context"
	"time"

	"dealwatch/internal/alert"
	"dealwatch/internal/common/logger"
)

type Runner interface {
	ExecuteAll(ctx context.Context) *alert.ExecutionResult
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   logger.Logger
}

func New(runner Runner, interval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, logger: log}
}

// Run executes one cycle immediately, then on every tick until the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", nil)
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result := s.runner.ExecuteAll(ctx)
	fields := map[string]interface{}{
		"executionId":  result.ExecutionID,
		"fetched":      result.TotalProductsFetched,
		"deals":        result.QualifyingDeals,
		"telegramSent": result.TelegramSent,
		"durationMs":   result.ExecutionTimeMs,
	}
	if len(result.Errors) > 0 {
		fields["errors"] = result.Errors
		s.logger.Error("scheduled alert run finished with errors", fields)
		return
	}
	s.logger.Info("scheduled alert run finished", fields)
}
