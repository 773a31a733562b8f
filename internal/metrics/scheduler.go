package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartScheduler refreshes the database gauges immediately and then every interval.
// The returned scheduler must be shut down by the caller.
func StartScheduler(src CountSource, interval time.Duration, log *zap.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create metrics scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval/2)
			defer cancel()
			UpdateDatabaseMetrics(ctx, src, log)
		}),
		gocron.WithName("database-metrics"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule database metrics: %w", err)
	}

	sched.Start()
	log.Info("Metrics scheduler started", zap.Duration("interval", interval))
	return sched, nil
}
