// Package sweeper schedules the expiration sweep in the background.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hemabank/internal/donation/service"
)

// Engine is the sweep entry point the scheduler drives.
type Engine interface {
	RunExpirationSweep(ctx context.Context) (service.SweepResult, error)
}

// Sweeper runs the expiration sweep on a cron schedule. The sweep itself is
// idempotent, so overlapping or missed runs are harmless.
type Sweeper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New builds a sweeper from a cron expression ("@every 5m", "0 * * * *", ...).
func New(engine Engine, schedule string, logger *slog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		result, err := engine.RunExpirationSweep(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "scheduled expiration sweep failed", "error", err)
			return
		}
		if result.Expired > 0 || result.Skipped > 0 {
			logger.InfoContext(ctx, "scheduled expiration sweep",
				"expired", result.Expired,
				"skipped", result.Skipped,
			)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Sweeper{cron: c, logger: logger}, nil
}

// Start begins scheduled execution in the cron goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
