package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

func day(d, hour, min int) time.Time {
	return time.Date(2026, 3, d, hour, min, 0, 0, time.UTC)
}

func gapInterval(d, hour, quarter, gap int) store.CoverageInterval {
	return store.CoverageInterval{
		StartsAt: day(d, hour, quarter*15),
		Gap:      gap,
		Severity: "high",
	}
}

func testEmployees() []store.Employee {
	return []store.Employee{
		{EmployeeID: 1, Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22, Preference: "morning"},
		{EmployeeID: 2, Name: "Ben", HourlyRate: 25, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22, Preference: "evening"},
		{EmployeeID: 3, Name: "Cleo", HourlyRate: 18, MaxWeeklyHours: 30, AvailableFrom: 8, AvailableUntil: 18},
	}
}

func lunchPattern() store.GapPattern {
	return store.GapPattern{Label: "lunch dip", HourOfDay: 12, AverageGap: 2, IntervalCount: 4, DominantSeverity: "high"}
}

func lunchIntervals() []store.CoverageInterval {
	return []store.CoverageInterval{
		gapInterval(2, 12, 0, 2),
		gapInterval(2, 12, 1, 2),
		gapInterval(3, 12, 0, 1),
		gapInterval(3, 12, 1, 1),
	}
}

func TestGenerateProducesBoundedCandidates(t *testing.T) {
	t.Parallel()
	g := Generator{Opts: Options{MaxPerPattern: 3, Budget: 5 * time.Second, Width: 15 * time.Minute}}
	cands, err := g.Generate(context.Background(), []store.GapPattern{lunchPattern()}, lunchIntervals(), testEmployees(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if len(cands) > 3 {
		t.Fatalf("candidates = %d, exceeds cap 3", len(cands))
	}
	for _, c := range cands {
		if len(c.Details) == 0 {
			t.Fatalf("candidate %q has no shift deltas", c.Suggestion.Name)
		}
		if c.Suggestion.PatternLabel != "lunch dip" {
			t.Fatalf("pattern label = %q", c.Suggestion.PatternLabel)
		}
		if c.Suggestion.CoverageImprovement <= 0 {
			t.Fatalf("coverage improvement = %v, want > 0", c.Suggestion.CoverageImprovement)
		}
		if !c.Suggestion.Compliant() {
			t.Fatal("fresh candidates must start with all compliance flags set")
		}
	}
}

func TestGenerateNoOverlappingAssignments(t *testing.T) {
	t.Parallel()
	g := Generator{Opts: Options{Width: 15 * time.Minute}}
	cands, err := g.Generate(context.Background(), []store.GapPattern{lunchPattern()}, lunchIntervals(), testEmployees(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, c := range cands {
		seen := make(map[string]bool)
		for _, d := range c.Details {
			if d.ProposedStart == nil {
				continue
			}
			key := d.ProposedStart.Format("2006-01-02") + "/" + d.EmployeeName
			if seen[key] {
				t.Fatalf("candidate %q assigns %s twice on the same day", c.Suggestion.Name, d.EmployeeName)
			}
			seen[key] = true
		}
	}
}

func TestGenerateRelocatesShiftAtMostOnce(t *testing.T) {
	t.Parallel()
	// One surplus early shift sitting in headroom, with the lunch gap recurring
	// across two days: the shift can only be vacated into one of them.
	e := store.Employee{EmployeeID: 1, Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22}
	shifts := []store.Shift{{ShiftID: 1, EmployeeID: 1, StartsAt: day(2, 6, 0), EndsAt: day(2, 6, 30)}}
	intervals := []store.CoverageInterval{
		{StartsAt: day(2, 6, 0), Gap: -1},
		{StartsAt: day(2, 6, 15), Gap: -1},
		gapInterval(2, 12, 0, 1),
		gapInterval(3, 12, 0, 1),
	}

	g := Generator{Opts: Options{Width: 15 * time.Minute}}
	cands, err := g.Generate(context.Background(), []store.GapPattern{lunchPattern()}, intervals, []store.Employee{e}, shifts, nil, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}
	for _, c := range cands {
		vacated := make(map[time.Time]int)
		for _, d := range c.Details {
			if d.ChangeType == models.ChangeMove && d.CurrentStart != nil {
				vacated[*d.CurrentStart]++
			}
		}
		for at, n := range vacated {
			if n > 1 {
				t.Fatalf("candidate %q vacates the shift starting %s %d times", c.Suggestion.Name, at, n)
			}
		}
	}
}

func TestGenerateEmptyPatterns(t *testing.T) {
	t.Parallel()
	g := Generator{}
	cands, err := g.Generate(context.Background(), nil, nil, testEmployees(), nil, nil, nil)
	if err != nil || cands != nil {
		t.Fatalf("Generate(no patterns) = %v, %v; want nil, nil", cands, err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	t.Parallel()
	g := Generator{Opts: Options{Width: 15 * time.Minute}}
	cancelled := func() bool { return true }
	_, err := g.Generate(context.Background(), []store.GapPattern{lunchPattern()}, lunchIntervals(), testEmployees(), nil, cancelled, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	t.Parallel()
	g := Generator{Opts: Options{Width: 15 * time.Minute}}
	var done, total int
	progress := func(d, tot int) { done, total = d, tot }
	_, err := g.Generate(context.Background(), []store.GapPattern{lunchPattern()}, lunchIntervals(), testEmployees(), nil, nil, progress)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if done != 1 || total != 1 {
		t.Fatalf("progress = %d/%d, want 1/1", done, total)
	}
}

func TestRiskTier(t *testing.T) {
	t.Parallel()
	cases := []struct {
		needed, available int
		want              string
	}{
		{0, 5, models.RiskLow},
		{1, 10, models.RiskLow},
		{5, 10, models.RiskMedium},
		{8, 10, models.RiskHigh},
		{3, 0, models.RiskHigh},
	}
	for _, c := range cases {
		if got := riskTier(c.needed, c.available); got != c.want {
			t.Errorf("riskTier(%d, %d) = %q, want %q", c.needed, c.available, got, c.want)
		}
	}
}

func TestComplexityTier(t *testing.T) {
	t.Parallel()
	if got := complexityTier(3); got != models.ComplexitySimple {
		t.Fatalf("complexityTier(3) = %q", got)
	}
	if got := complexityTier(8); got != models.ComplexityMedium {
		t.Fatalf("complexityTier(8) = %q", got)
	}
	if got := complexityTier(9); got != models.ComplexityComplex {
		t.Fatalf("complexityTier(9) = %q", got)
	}
}
