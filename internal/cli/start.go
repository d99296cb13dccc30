package cli

import (
	"fmt"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/daemon"
)

func newStartCmd() *cobra.Command {
	var (
		port          int
		foreground    bool
		intervalSec   float64
		maxConcurrent int
		dev           bool
		pprofAddr     string
		envFile       string
		dbDriver      string
		dbURL         string
		widthMinutes  int
		maxCandidates int
		budgetSec     float64
		enableOtel    bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Optishift engine (HTTP API + run worker)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			home := config.MustHomeFrom(cmd.Context())

			opts := daemon.StartOptions{
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
			}

			api := (&url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port)}).String()

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting Optishift in foreground on %s\n", api)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Optishift started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API: %s\n", api)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 3584, "Port for the HTTP API")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().Float64Var(&intervalSec, "interval", 1.0, "Run-queue poll interval (seconds)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 2, "Max concurrent run executions")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file before starting")
	cmd.Flags().StringVar(&dbDriver, "db", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	cmd.Flags().IntVar(&widthMinutes, "interval-width", 15, "Coverage interval width in minutes")
	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 3, "Max candidate suggestions per pattern")
	cmd.Flags().Float64Var(&budgetSec, "search-budget", 30, "Wall-clock budget for variant generation (seconds)")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE instrumentation)")

	return cmd
}
