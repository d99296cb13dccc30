package daemon

// StartOptions configures the daemon (home, port, worker loop, DB, metrics).
type StartOptions struct {
	Home          string
	Port          int
	IntervalSec   float64 // run-queue poll interval
	MaxConcurrent int     // concurrent run executions
	Dev           bool
	PprofAddr     string
	DBDriver      string  // "sqlite" (default) or "postgres"
	DBURL         string  // for postgres: connection string (or DATABASE_URL env)
	WidthMinutes  int     // coverage interval width
	MaxCandidates int     // candidate cap per pattern
	BudgetSec     float64 // wall-clock budget for variant generation
	EnableOtel    bool    // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE instrumentation)
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
