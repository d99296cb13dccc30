package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	runsCounter         metric.Int64Counter
	stageDuration       metric.Float64Histogram
	candidatesCounter   metric.Int64Counter
	violationsCounter   metric.Int64Counter
	activeRunsGauge     metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnectionsGauge metric.Int64ObservableGauge
	activeRuns          int64
	activeRunsMu        sync.Mutex
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only
// runs once. Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		runsCounter, err = m.Int64Counter("optishift_runs_total", metric.WithDescription("Total optimization runs finished, by terminal status"))
		if err != nil {
			return
		}
		stageDuration, err = m.Float64Histogram("optishift_stage_duration_seconds", metric.WithDescription("Pipeline stage duration in seconds"))
		if err != nil {
			return
		}
		candidatesCounter, err = m.Int64Counter("optishift_candidates_total", metric.WithDescription("Total candidate suggestions generated"))
		if err != nil {
			return
		}
		violationsCounter, err = m.Int64Counter("optishift_constraint_violations_total", metric.WithDescription("Total constraint violations found during validation"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("optishift_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		activeRunsGauge, err = m.Int64ObservableGauge("optishift_active_runs", metric.WithDescription("Runs currently executing in the pipeline"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			activeRunsMu.Lock()
			n := activeRuns
			activeRunsMu.Unlock()
			o.ObserveInt64(activeRunsGauge, n)
			return nil
		}, activeRunsGauge)
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("optishift_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordRunFinished records a run reaching a terminal status.
func RecordRunFinished(ctx context.Context, status string) {
	if runsCounter == nil {
		return
	}
	runsCounter.Add(ctx, 1, metric.WithAttributes(AttrStatus.String(status)))
}

// RecordStage records one stage execution and its duration.
func RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	if stageDuration == nil {
		return
	}
	stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		AttrStage.String(stage),
		AttrStatus.String(status),
	))
}

// RecordCandidates records candidates produced for a pattern.
func RecordCandidates(ctx context.Context, pattern string, n int) {
	if candidatesCounter == nil || n <= 0 {
		return
	}
	candidatesCounter.Add(ctx, int64(n), metric.WithAttributes(AttrPattern.String(pattern)))
}

// RecordViolations records constraint violations found for a candidate.
func RecordViolations(ctx context.Context, n int) {
	if violationsCounter == nil || n <= 0 {
		return
	}
	violationsCounter.Add(ctx, int64(n))
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddActiveRun adds 1 to the active-run gauge (call when a run is claimed).
func AddActiveRun() {
	activeRunsMu.Lock()
	activeRuns++
	activeRunsMu.Unlock()
}

// RemoveActiveRun subtracts 1 from the active-run gauge (call when a run finishes).
func RemoveActiveRun() {
	activeRunsMu.Lock()
	activeRuns--
	if activeRuns < 0 {
		activeRuns = 0
	}
	activeRunsMu.Unlock()
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}
