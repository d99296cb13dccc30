package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/optishift/optishift/internal/store"
)

func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--home", home}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCommandTree(t *testing.T) {
	t.Parallel()
	cmd := NewRootCmd("1.2.3")
	if cmd.Version != "1.2.3" {
		t.Fatalf("version = %q", cmd.Version)
	}
	want := []string{"start", "stop", "status", "run", "constraint", "roster", "forecast", "daemon"}
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, w := range want {
		if !names[w] {
			t.Errorf("missing subcommand %q", w)
		}
	}
	for _, sub := range cmd.Commands() {
		if sub.Name() == "daemon" && !sub.Hidden {
			t.Error("daemon subcommand should be hidden")
		}
	}
}

func TestConstraintImportAndList(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "constraints.yaml", `
constraints:
  - name: rest floor
    type: labor_law
    priority: critical
    scope: all
    min_rest_hours: 11
  - name: weekly cap
    type: union_agreement
    priority: critical
    max_hours_per_week: 40
`)
	out, err := execute(t, home, "constraint", "import", "--file", file)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 constraint(s)") {
		t.Fatalf("output = %q", out)
	}

	out, err = execute(t, home, "constraint", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "rest floor") || !strings.Contains(out, "labor_law") {
		t.Fatalf("list output = %q", out)
	}
}

func TestConstraintImportRejectsNameless(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "bad.yaml", `
constraints:
  - type: labor_law
    priority: critical
`)
	_, err := execute(t, home, "constraint", "import", "--file", file)
	if err == nil || !strings.Contains(err.Error(), "name and type") {
		t.Fatalf("err = %v", err)
	}
}

func TestRosterImport(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "roster.yaml", `
employees:
  - name: Ada
    role: operator
    skills: [phones, chat]
    hourly_rate: 20
    max_weekly_hours: 40
    available_from: 6
    available_until: 22
    preference: morning
    shifts:
      - start: 2026-03-02T08:00:00Z
        end: 2026-03-02T16:00:00Z
`)
	out, err := execute(t, home, "roster", "import", "--file", file)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 1 employee(s), 1 shift(s)") {
		t.Fatalf("output = %q", out)
	}

	st, err := store.Open(home)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	emps, err := st.ListEmployees(context.Background())
	if err != nil || len(emps) != 1 {
		t.Fatalf("employees = %v, %v", emps, err)
	}
	if emps[0].Name != "Ada" || len(emps[0].Skills) != 2 {
		t.Fatalf("employee = %+v", emps[0])
	}
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	shifts, err := st.ListShifts(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil || len(shifts) != 1 {
		t.Fatalf("shifts = %v, %v", shifts, err)
	}

	out, err = execute(t, home, "roster", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "phones,chat") {
		t.Fatalf("list output = %q", out)
	}
}

func TestRosterImportRejectsInvertedShift(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "roster.yaml", `
employees:
  - name: Ada
    shifts:
      - start: 2026-03-02T16:00:00Z
        end: 2026-03-02T08:00:00Z
`)
	_, err := execute(t, home, "roster", "import", "--file", file)
	if err == nil || !strings.Contains(err.Error(), "start must precede end") {
		t.Fatalf("err = %v", err)
	}
}

func TestForecastImport(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "forecast.yaml", `
intervals:
  - at: 2026-03-02T08:00:00Z
    required: 5
  - at: 2026-03-02T08:15:00Z
    required: 8
`)
	out, err := execute(t, home, "forecast", "import", "--file", file)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 forecast interval(s)") {
		t.Fatalf("output = %q", out)
	}

	st, err := store.Open(home)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	demand, err := st.ListDemand(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil || len(demand) != 2 {
		t.Fatalf("demand = %v, %v", demand, err)
	}
	if demand[0].Required != 5 || demand[1].Required != 8 {
		t.Fatalf("demand = %+v", demand)
	}
}

func TestForecastImportRejectsNegative(t *testing.T) {
	home := t.TempDir()
	file := writeFile(t, home, "forecast.yaml", `
intervals:
  - at: 2026-03-02T08:00:00Z
    required: -1
`)
	_, err := execute(t, home, "forecast", "import", "--file", file)
	if err == nil || !strings.Contains(err.Error(), "cannot be negative") {
		t.Fatalf("err = %v", err)
	}
}
