package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/payconsole/pkg/service/reports"
)

type dueRunner interface {
	RunDue(ctx context.Context, now time.Time) (reports.RunResult, error)
}

// runSchedules ticks every interval and generates the reports whose
// schedule is due. It returns when ctx is done.
func runSchedules(ctx context.Context, r dueRunner, interval time.Duration, now func() time.Time, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger = logger.With("component", "report-scheduler")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := r.RunDue(ctx, now())
			if err != nil {
				logger.Error("scheduled report pass failed", "error", err)
				continue
			}
			if res.Ran > 0 {
				logger.Info("scheduled reports generated", "ran", res.Ran, "failed", res.Failed)
			}
		}
	}
}
