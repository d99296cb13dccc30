package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/daemon"
	"github.com/optishift/optishift/pkg/client"
	"github.com/optishift/optishift/pkg/models"
)

func newRunCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage optimization runs",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "API address (default: running daemon, or http://localhost:3584)")

	cmd.AddCommand(newRunCreateCmd(&addr))
	cmd.AddCommand(newRunListCmd(&addr))
	cmd.AddCommand(newRunShowCmd(&addr))
	cmd.AddCommand(newRunCancelCmd(&addr))
	cmd.AddCommand(newRunSuggestionsCmd(&addr))
	return cmd
}

// apiClient resolves the API base URL: explicit flag, then the running
// daemon's addr file, then the default port.
func apiClient(cmd *cobra.Command, addr string) *client.Client {
	base := addr
	if base == "" {
		home := config.MustHomeFrom(cmd.Context())
		if st, _ := daemon.Status(cmd.Context(), home); st.Running && st.Addr != "unknown" {
			base = "http://" + strings.Replace(st.Addr, "0.0.0.0", "localhost", 1)
		}
	}
	if base == "" {
		base = "http://localhost:3584"
	}
	return client.New(base, os.Getenv("OPTISHIFT_API_KEY"))
}

func newRunCreateCmd(addr *string) *cobra.Command {
	var (
		name     string
		from     string
		to       string
		coverage int
		cost     int
		service  int
		cmplx    int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an optimization run (queued for execution)",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return fmt.Errorf("--from must be RFC3339: %w", err)
			}
			end, err := time.Parse(time.RFC3339, to)
			if err != nil {
				return fmt.Errorf("--to must be RFC3339: %w", err)
			}
			c := apiClient(cmd, *addr)
			run, err := c.CreateRun(cmd.Context(), models.CreateRunRequest{
				Name:        name,
				WindowStart: start,
				WindowEnd:   end,
				Weights: models.Weights{
					Coverage:     coverage,
					Cost:         cost,
					ServiceLevel: service,
					Complexity:   cmplx,
				},
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created run %s (%s)\n", run.RunID, run.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Run name")
	cmd.Flags().StringVar(&from, "from", "", "Window start (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Window end (RFC3339)")
	cmd.Flags().IntVar(&coverage, "coverage", 40, "Coverage weight")
	cmd.Flags().IntVar(&cost, "cost", 30, "Cost weight")
	cmd.Flags().IntVar(&service, "service", 20, "Service level weight")
	cmd.Flags().IntVar(&cmplx, "complexity", 10, "Complexity weight")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRunListCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd, *addr)
			runs, err := c.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RUN ID\tNAME\tSTATUS\tWINDOW\tGENERATED\tVALID")
			for _, r := range runs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s .. %s\t%d\t%d\n",
					r.RunID, r.Name, r.Status,
					r.WindowStart.Format("2006-01-02 15:04"),
					r.WindowEnd.Format("2006-01-02 15:04"),
					r.GeneratedCount, r.ValidCount)
			}
			return w.Flush()
		},
	}
}

func newRunShowCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run with its stage progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd, *addr)
			st, err := c.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Run %s (%s): %s, %d%% complete\n",
				st.Run.RunID, st.Run.Name, st.Run.Status, st.Progress)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STAGE\tSTATUS\tPROGRESS\tERROR")
			for _, sr := range st.Stages {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\n", sr.Stage, sr.Status, sr.Progress, sr.Error)
			}
			return w.Flush()
		},
	}
}

func newRunCancelCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Request cancellation of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd, *addr)
			if err := c.CancelRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for run %s\n", args[0])
			return nil
		},
	}
}

func newRunSuggestionsCmd(addr *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "suggestions <run-id>",
		Short: "Show ranked suggestions for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := apiClient(cmd, *addr)
			suggestions, err := c.ListSuggestions(cmd.Context(), args[0], all)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RANK\tNAME\tSCORE\tCOVERAGE\tCOST/WK\tRISK\tCOMPLEXITY")
			for _, s := range suggestions {
				rank := "-"
				if s.Rank > 0 {
					rank = fmt.Sprintf("%d", s.Rank)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t+%.1f%%\t%+.0f\t%s\t%s\n",
					rank, s.Name, s.OverallScore, s.CoverageImprovement,
					s.WeeklyCostDelta, s.RiskTier, s.ComplexityTier)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include non-compliant and unranked suggestions")
	return cmd
}
