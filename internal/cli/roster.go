package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/optishift/optishift/internal/config"
	"github.com/optishift/optishift/internal/store"
)

// rosterFile is the YAML import format for employees and their shifts.
type rosterFile struct {
	Employees []struct {
		Name           string   `yaml:"name"`
		Role           string   `yaml:"role"`
		Skills         []string `yaml:"skills"`
		HourlyRate     float64  `yaml:"hourly_rate"`
		MaxWeeklyHours float64  `yaml:"max_weekly_hours"`
		AvailableFrom  int      `yaml:"available_from"`
		AvailableUntil int      `yaml:"available_until"`
		Preference     string   `yaml:"preference"`
		Shifts         []struct {
			Start time.Time `yaml:"start"`
			End   time.Time `yaml:"end"`
		} `yaml:"shifts"`
	} `yaml:"employees"`
}

func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the employee roster",
	}
	cmd.AddCommand(newRosterImportCmd())
	cmd.AddCommand(newRosterListCmd())
	return cmd
}

func newRosterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			employees, err := st.ListEmployees(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tROLE\tSKILLS\tMAX H/WK\tAVAILABLE\tPREFERENCE")
			for _, e := range employees {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f\t%02d:00-%02d:00\t%s\n",
					e.EmployeeID, e.Name, e.Role, strings.Join(e.Skills, ","),
					e.MaxWeeklyHours, e.AvailableFrom, e.AvailableUntil, e.Preference)
			}
			return w.Flush()
		},
	}
}

func newRosterImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import employees and shifts from a YAML file (upsert by name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var rf rosterFile
			if err := yaml.Unmarshal(b, &rf); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			home := config.MustHomeFrom(cmd.Context())
			st, err := store.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			shiftCount := 0
			for _, e := range rf.Employees {
				if e.Name == "" {
					return fmt.Errorf("employee entries need a name")
				}
				id, err := st.UpsertEmployee(cmd.Context(), store.Employee{
					Name:           e.Name,
					Role:           e.Role,
					Skills:         e.Skills,
					HourlyRate:     e.HourlyRate,
					MaxWeeklyHours: e.MaxWeeklyHours,
					AvailableFrom:  e.AvailableFrom,
					AvailableUntil: e.AvailableUntil,
					Preference:     e.Preference,
				})
				if err != nil {
					return fmt.Errorf("upsert %q: %w", e.Name, err)
				}
				for _, sh := range e.Shifts {
					if !sh.Start.Before(sh.End) {
						return fmt.Errorf("employee %q: shift start must precede end", e.Name)
					}
					if err := st.InsertShift(cmd.Context(), store.Shift{
						EmployeeID: id,
						StartsAt:   sh.Start.UTC(),
						EndsAt:     sh.End.UTC(),
					}); err != nil {
						return fmt.Errorf("insert shift for %q: %w", e.Name, err)
					}
					shiftCount++
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d employee(s), %d shift(s)\n", len(rf.Employees), shiftCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with employees and shifts")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
