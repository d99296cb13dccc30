package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/optishift/optishift/internal/httpapi"
)

// runWorkerLoop periodically polls for queued runs and executes them through
// the orchestrator. ClaimRun inside Execute guards against double-processing
// when several daemons share a Postgres store.
func runWorkerLoop(ctx context.Context, opts StartOptions, app *httpapi.App) {
	interval := time.Duration(opts.IntervalSec * float64(time.Second))
	if interval <= 0 {
		interval = 1 * time.Second
	}
	max := opts.MaxConcurrent
	if max <= 0 {
		max = 2
	}

	sem := make(chan struct{}, max)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := app.Store.NextPendingRun(ctx)
			if err != nil {
				slog.Error("worker poll failed", "err", err)
				continue
			}
			if run == nil {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			// Execute claims the run; a stale poll result loses the claim
			// inside and returns immediately.
			wg.Add(1)
			runID := run.RunID
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				if err := app.Orchestrator.Execute(ctx, runID); err != nil {
					slog.Error("run execution failed", "run_id", runID, "err", err)
				}
			}()
		}
	}
}
