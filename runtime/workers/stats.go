package workers

import (
	"context"
	"log/slog"
	"time"

	"collab-live/observability"
)

// StatsWorker logs a process snapshot at a fixed interval, the server-side
// counterpart of an ops dashboard.
type StatsWorker struct {
	log       *slog.Logger
	collector *observability.Collector
	interval  time.Duration
}

func NewStatsWorker(log *slog.Logger, collector *observability.Collector, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, collector: collector, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping stats worker")
			return nil
		case <-ticker.C:
			stats := w.collector.Snapshot()
			w.log.Info("Process stats",
				"connections", stats.Connections,
				"goroutines", stats.Goroutines,
				"alloc_mb", stats.AllocMemMb,
				"rss_mb", stats.RssMb,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}
