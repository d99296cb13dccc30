package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/store"
)

// constraintFile is the YAML import format for the constraint catalog.
type constraintFile struct {
	Constraints []struct {
		Name               string     `yaml:"name"`
		Type               string     `yaml:"type"`
		Priority           string     `yaml:"priority"`
		Scope              string     `yaml:"scope"`
		MaxHoursPerDay     float64    `yaml:"max_hours_per_day"`
		MaxHoursPerWeek    float64    `yaml:"max_hours_per_week"`
		MinRestHours       float64    `yaml:"min_rest_hours"`
		MaxConsecutiveDays int        `yaml:"max_consecutive_days"`
		MinOperators       int        `yaml:"min_operators"`
		EffectiveFrom      *time.Time `yaml:"effective_from"`
		EffectiveTo        *time.Time `yaml:"effective_to"`
	} `yaml:"constraints"`
}

func newConstraintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constraint",
		Short: "Manage the constraint catalog",
	}
	cmd.AddCommand(newConstraintImportCmd())
	cmd.AddCommand(newConstraintListCmd())
	return cmd
}

func newConstraintImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import constraints from a YAML file (upsert by name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var cf constraintFile
			if err := yaml.Unmarshal(b, &cf); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			for _, c := range cf.Constraints {
				if c.Name == "" || c.Type == "" {
					return fmt.Errorf("constraint entries need name and type")
				}
				if err := st.UpsertConstraint(cmd.Context(), store.Constraint{
					Name:               c.Name,
					Type:               c.Type,
					Priority:           c.Priority,
					Scope:              c.Scope,
					MaxHoursPerDay:     c.MaxHoursPerDay,
					MaxHoursPerWeek:    c.MaxHoursPerWeek,
					MinRestHours:       c.MinRestHours,
					MaxConsecutiveDays: c.MaxConsecutiveDays,
					MinOperators:       c.MinOperators,
					EffectiveFrom:      c.EffectiveFrom,
					EffectiveTo:        c.EffectiveTo,
				}); err != nil {
					return fmt.Errorf("upsert %q: %w", c.Name, err)
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d constraint(s)\n", len(cf.Constraints))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with constraints")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newConstraintListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List constraints active now",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			constraints, err := st.ListConstraints(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tTYPE\tPRIORITY\tSCOPE")
			for _, c := range constraints {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Type, c.Priority, c.Scope)
			}
			return w.Flush()
		},
	}
}
