package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/store"
)

// forecastFile is the YAML import format for the demand forecast.
type forecastFile struct {
	Intervals []struct {
		At       time.Time `yaml:"at"`
		Required int       `yaml:"required"`
	} `yaml:"intervals"`
}

func newForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Manage the demand forecast",
	}
	cmd.AddCommand(newForecastImportCmd())
	return cmd
}

func newForecastImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import demand forecast from a YAML file (replaces overlapping rows)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var ff forecastFile
			if err := yaml.Unmarshal(b, &ff); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			rows := make([]store.DemandInterval, 0, len(ff.Intervals))
			for _, iv := range ff.Intervals {
				if iv.Required < 0 {
					return fmt.Errorf("required headcount cannot be negative (at %s)", iv.At)
				}
				rows = append(rows, store.DemandInterval{StartsAt: iv.At.UTC(), Required: iv.Required})
			}

			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.ReplaceDemand(cmd.Context(), rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d forecast interval(s)\n", len(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with forecast intervals")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
