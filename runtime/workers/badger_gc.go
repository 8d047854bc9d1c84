package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// discardRatio: reclaim a value log file once half of it is stale.
const discardRatio = 0.5

// GCWorker runs Badger's value-log garbage collection on an interval.
// Badger never reclaims value-log space on its own; without this the store
// grows unbounded under message churn.
type GCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *GCWorker {
	return &GCWorker{log: log, db: db, interval: interval}
}

func (w *GCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping badger GC worker")
			return nil
		case <-ticker.C:
			// One call collects at most one file; loop until nothing is left.
			for {
				if err := w.db.RunValueLogGC(discardRatio); err != nil {
					if err != badger.ErrNoRewrite {
						w.log.Warn("Badger value log GC failed", "error", err)
					}
					break
				}
			}
		}
	}
}
