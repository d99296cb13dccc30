package cli

import (
	"github.com/spf13/cobra"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	var (
		port          int
		intervalSec   float64
		maxConcurrent int
		dev           bool
		pprofAddr     string
		dbDriver      string
		dbURL         string
		widthMinutes  int
		maxCandidates int
		budgetSec     float64
		enableOtel    bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home:          home,
				Port:          port,
				IntervalSec:   intervalSec,
				MaxConcurrent: maxConcurrent,
				Dev:           dev,
				PprofAddr:     pprofAddr,
				DBDriver:      dbDriver,
				DBURL:         dbURL,
				WidthMinutes:  widthMinutes,
				MaxCandidates: maxCandidates,
				BudgetSec:     budgetSec,
				EnableOtel:    enableOtel,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 3584, "Port for the HTTP API")
	cmd.Flags().Float64Var(&intervalSec, "interval", 1.0, "Run-queue poll interval (seconds)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 2, "Max concurrent run executions")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&dbDriver, "db", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	cmd.Flags().IntVar(&widthMinutes, "interval-width", 15, "Coverage interval width in minutes")
	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 3, "Max candidate suggestions per pattern")
	cmd.Flags().Float64Var(&budgetSec, "search-budget", 30, "Wall-clock budget for variant generation (seconds)")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics")

	return cmd
}
