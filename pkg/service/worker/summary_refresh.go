package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// Recomputer rebuilds the cached summaries of every project
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// SummaryRefreshWorker periodically recomputes project summaries so that
// counters drifted by partial failures are repaired without a user write.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Concurrent writers are tolerated through the repository's optimistic update
type SummaryRefreshWorker struct {
	summary  Recomputer
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSummaryRefreshWorker creates a worker refreshing every interval
func NewSummaryRefreshWorker(summary Recomputer, interval time.Duration) *SummaryRefreshWorker {
	return &SummaryRefreshWorker{
		summary:  summary,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background loop. The first refresh runs immediately in
// the background and does not block the caller.
func (w *SummaryRefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("refresh interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Summary refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SummaryRefreshWorker) Stop() {
	logging.Default().Info("Summary refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Summary refresh worker stopped")
}

func (w *SummaryRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresh(ctx); err != nil {
		logging.Default().Error("Initial summary refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				logging.Default().Error("Summary refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Summary refresh worker context cancelled")
			return
		}
	}
}

func (w *SummaryRefreshWorker) refresh(ctx context.Context) error {
	startTime := time.Now()

	n, err := w.summary.RecomputeAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to recompute summaries")
	}

	logging.Default().Info("Summary refresh completed",
		"projects", n,
		"duration", time.Since(startTime).String())
	return nil
}
