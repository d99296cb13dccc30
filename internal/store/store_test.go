package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/optishift/optishift/pkg/models"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id string) Run {
	return Run{
		RunID:       id,
		Name:        "week 10",
		WindowStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Weights:     Weights{Coverage: 40, Cost: 30, ServiceLevel: 20, Complexity: 10},
		Status:      models.RunStatusDraft,
	}
}

func TestRunRoundtrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Name != "week 10" || got.Status != models.RunStatusDraft {
		t.Fatalf("got %+v", got)
	}
	if got.Weights.Sum() != 100 {
		t.Fatalf("weights = %+v", got.Weights)
	}
	if !got.WindowStart.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start = %v", got.WindowStart)
	}

	if _, err := s.GetRun(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("missing run err = %v", err)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
}

func TestClaimRun(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	ok, err := s.ClaimRun(ctx, "r1", models.RunStatusDraft, models.RunStatusAnalyzing)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	// A second worker racing on the same transition loses.
	ok, err = s.ClaimRun(ctx, "r1", models.RunStatusDraft, models.RunStatusAnalyzing)
	if err != nil || ok {
		t.Fatalf("second claim = %v, %v; want false, nil", ok, err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != models.RunStatusAnalyzing || got.StartedAt == nil {
		t.Fatalf("claimed run = %+v", got)
	}
}

func TestNextPendingRun(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	r, err := s.NextPendingRun(ctx)
	if err != nil || r != nil {
		t.Fatalf("empty store: %v, %v", r, err)
	}

	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	r, err = s.NextPendingRun(ctx)
	if err != nil || r == nil || r.RunID != "r1" {
		t.Fatalf("NextPendingRun = %v, %v", r, err)
	}

	// A cancelled draft is not dispatchable.
	if err := s.RequestCancel(ctx, "r1"); err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	r, err = s.NextPendingRun(ctx)
	if err != nil || r != nil {
		t.Fatalf("after cancel: %v, %v", r, err)
	}
}

func TestRequestCancel(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	// Draft runs cancel immediately.
	if err := s.CreateRun(ctx, testRun("draft")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.RequestCancel(ctx, "draft"); err != nil {
		t.Fatalf("RequestCancel(draft): %v", err)
	}
	got, _ := s.GetRun(ctx, "draft")
	if got.Status != models.RunStatusCancelled || got.FinishedAt == nil {
		t.Fatalf("draft after cancel = %+v", got)
	}

	// In-flight runs only get the flag; the orchestrator stops them.
	if err := s.CreateRun(ctx, testRun("busy")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if _, err := s.ClaimRun(ctx, "busy", models.RunStatusDraft, models.RunStatusGenerating); err != nil {
		t.Fatalf("ClaimRun: %v", err)
	}
	if err := s.RequestCancel(ctx, "busy"); err != nil {
		t.Fatalf("RequestCancel(busy): %v", err)
	}
	got, _ = s.GetRun(ctx, "busy")
	if got.Status != models.RunStatusGenerating || !got.CancelRequested {
		t.Fatalf("busy after cancel = %+v", got)
	}
	flag, err := s.CancelRequested(ctx, "busy")
	if err != nil || !flag {
		t.Fatalf("CancelRequested = %v, %v", flag, err)
	}

	// Terminal runs are not cancellable.
	if err := s.CreateRun(ctx, testRun("done")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.FinishRun(ctx, "done", models.RunStatusCompleted); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := s.RequestCancel(ctx, "done"); err == nil || !strings.Contains(err.Error(), "not cancellable") {
		t.Fatalf("cancel terminal run err = %v", err)
	}
}

func TestStageRunLifecycle(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	stages := []StageRun{
		{Stage: models.StageAnalyze, OrderIndex: 0, Status: models.StageStatusPending},
		{Stage: models.StageDetect, OrderIndex: 1, Status: models.StageStatusPending, DependsOn: []string{models.StageAnalyze}},
	}
	if err := s.CreateStageRuns(ctx, "r1", stages); err != nil {
		t.Fatalf("CreateStageRuns: %v", err)
	}

	if err := s.StartStageRun(ctx, "r1", models.StageAnalyze); err != nil {
		t.Fatalf("StartStageRun: %v", err)
	}
	if err := s.SetStageProgress(ctx, "r1", models.StageAnalyze, 50); err != nil {
		t.Fatalf("SetStageProgress: %v", err)
	}
	if err := s.CompleteStageRun(ctx, "r1", models.StageAnalyze, `{"intervals":4}`); err != nil {
		t.Fatalf("CompleteStageRun: %v", err)
	}
	if err := s.FailStageRun(ctx, "r1", models.StageDetect, "boom"); err != nil {
		t.Fatalf("FailStageRun: %v", err)
	}

	got, err := s.ListStageRuns(ctx, "r1")
	if err != nil || len(got) != 2 {
		t.Fatalf("ListStageRuns = %v, %v", got, err)
	}
	if got[0].Status != models.StageStatusCompleted || got[0].Progress != 100 || got[0].Result != `{"intervals":4}` {
		t.Fatalf("analyze stage = %+v", got[0])
	}
	if got[0].StartedAt == nil || got[0].FinishedAt == nil {
		t.Fatalf("analyze timestamps = %+v", got[0])
	}
	if got[1].Status != models.StageStatusFailed || got[1].Error != "boom" {
		t.Fatalf("detect stage = %+v", got[1])
	}
	if len(got[1].DependsOn) != 1 || got[1].DependsOn[0] != models.StageAnalyze {
		t.Fatalf("detect depends_on = %v", got[1].DependsOn)
	}
}

func TestCoverageIntervalsAndLabeling(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	intervals := []CoverageInterval{
		{StartsAt: base, Required: 5, Scheduled: 3, Gap: 2, Ratio: 0.6, Severity: models.SeverityMedium, ServiceLevel: 76},
		{StartsAt: base.Add(15 * time.Minute), Required: 3, Scheduled: 3, Gap: 0, Ratio: 1, Severity: models.SeverityNone, ServiceLevel: 100},
		{StartsAt: base.Add(24 * time.Hour), Required: 6, Scheduled: 4, Gap: 2, Ratio: 0.66, Severity: models.SeverityMedium, ServiceLevel: 76},
	}
	if err := s.InsertCoverageIntervals(ctx, "r1", intervals); err != nil {
		t.Fatalf("InsertCoverageIntervals: %v", err)
	}
	if err := s.LabelIntervalsByHour(ctx, "r1", 12, "lunch dip", true); err != nil {
		t.Fatalf("LabelIntervalsByHour: %v", err)
	}

	got, err := s.ListCoverageIntervals(ctx, "r1")
	if err != nil || len(got) != 3 {
		t.Fatalf("ListCoverageIntervals = %v, %v", got, err)
	}
	if got[0].PatternLabel != "lunch dip" || !got[0].Recurring {
		t.Fatalf("gap interval not labeled: %+v", got[0])
	}
	// Covered intervals keep no label even inside the pattern hour.
	if got[1].PatternLabel != "" || got[1].Recurring {
		t.Fatalf("covered interval labeled: %+v", got[1])
	}
	if got[2].PatternLabel != "lunch dip" {
		t.Fatalf("next-day interval not labeled: %+v", got[2])
	}
}

func TestGapPatterns(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	patterns := []GapPattern{
		{Label: "morning rush", HourOfDay: 8, AverageGap: 2.5, IntervalCount: 4, DominantSeverity: models.SeverityMedium},
		{Label: "lunch dip", HourOfDay: 12, AverageGap: 6, IntervalCount: 2, DominantSeverity: models.SeverityCritical},
	}
	if err := s.InsertGapPatterns(ctx, "r1", patterns); err != nil {
		t.Fatalf("InsertGapPatterns: %v", err)
	}
	got, err := s.ListGapPatterns(ctx, "r1")
	if err != nil || len(got) != 2 {
		t.Fatalf("ListGapPatterns = %v, %v", got, err)
	}
	// Worst average gap first.
	if got[0].Label != "lunch dip" || got[1].Label != "morning rush" {
		t.Fatalf("pattern order = %q, %q", got[0].Label, got[1].Label)
	}
}

func TestSuggestionsRoundtrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	sg := Suggestion{
		SuggestionID:        "s1",
		RunID:               "r1",
		PatternLabel:        "lunch dip",
		Name:                "extend Ada",
		CoverageScore:       80,
		CoverageImprovement: 33.3,
		HeadcountNeeded:     2,
		HeadcountAvailable:  3,
		RiskTier:            models.RiskMedium,
		ComplexityTier:      models.ComplexitySimple,
		LaborLawOK:          true,
		UnionOK:             true,
		ContractOK:          true,
		BusinessRuleOK:      true,
	}
	details := []SuggestionDetail{{
		EmployeeID:    1,
		EmployeeName:  "Ada",
		ChangeType:    models.ChangeAdd,
		ProposedStart: &start,
		ProposedEnd:   &end,
		CostDelta:     10,
		CoverageDelta: 2,
	}}
	if err := s.InsertSuggestion(ctx, sg, details); err != nil {
		t.Fatalf("InsertSuggestion: %v", err)
	}

	gotDetails, err := s.ListSuggestionDetails(ctx, "s1")
	if err != nil || len(gotDetails) != 1 {
		t.Fatalf("ListSuggestionDetails = %v, %v", gotDetails, err)
	}
	d := gotDetails[0]
	if d.ChangeType != models.ChangeAdd || d.ProposedStart == nil || !d.ProposedStart.Equal(start) {
		t.Fatalf("detail = %+v", d)
	}
	if d.CurrentStart != nil {
		t.Fatalf("add detail should have no current slot: %+v", d)
	}

	if err := s.SetSuggestionCompliance(ctx, "s1", false, true, true, true); err != nil {
		t.Fatalf("SetSuggestionCompliance: %v", err)
	}
	all, err := s.ListSuggestions(ctx, "r1", false)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListSuggestions(all) = %v, %v", all, err)
	}
	if all[0].LaborLawOK || !all[0].UnionOK {
		t.Fatalf("compliance flags = %+v", all[0])
	}
	compliant, err := s.ListSuggestions(ctx, "r1", true)
	if err != nil || len(compliant) != 0 {
		t.Fatalf("ListSuggestions(compliant) = %v, %v", compliant, err)
	}
}

func TestListSuggestionsOrdering(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateRun(ctx, testRun("r1")); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	insert := func(id string) {
		t.Helper()
		sg := Suggestion{
			SuggestionID: id, RunID: "r1", Name: id,
			LaborLawOK: true, UnionOK: true, ContractOK: true, BusinessRuleOK: true,
		}
		if err := s.InsertSuggestion(ctx, sg, nil); err != nil {
			t.Fatalf("InsertSuggestion(%s): %v", id, err)
		}
	}
	insert("unranked")
	insert("second")
	insert("first")
	if err := s.SetSuggestionRank(ctx, "first", 1, 90); err != nil {
		t.Fatalf("SetSuggestionRank: %v", err)
	}
	if err := s.SetSuggestionRank(ctx, "second", 2, 70); err != nil {
		t.Fatalf("SetSuggestionRank: %v", err)
	}

	got, err := s.ListSuggestions(ctx, "r1", false)
	if err != nil || len(got) != 3 {
		t.Fatalf("ListSuggestions = %v, %v", got, err)
	}
	if got[0].SuggestionID != "first" || got[1].SuggestionID != "second" || got[2].SuggestionID != "unranked" {
		t.Fatalf("order = %s, %s, %s", got[0].SuggestionID, got[1].SuggestionID, got[2].SuggestionID)
	}
}

func TestConstraintsActiveAt(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	always := Constraint{Name: "rest floor", Type: models.ConstraintLaborLaw, Priority: models.PriorityCritical, MinRestHours: 11}
	seasonal := Constraint{
		Name: "spring staffing", Type: models.ConstraintBusinessRule, Priority: models.PriorityHigh,
		MinOperators: 2, EffectiveFrom: &march, EffectiveTo: &april,
	}
	for _, c := range []Constraint{always, seasonal} {
		if err := s.UpsertConstraint(ctx, c); err != nil {
			t.Fatalf("UpsertConstraint(%s): %v", c.Name, err)
		}
	}

	got, err := s.ListConstraints(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil || len(got) != 2 {
		t.Fatalf("mid-march constraints = %v, %v", got, err)
	}
	got, err = s.ListConstraints(ctx, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || len(got) != 1 || got[0].Name != "rest floor" {
		t.Fatalf("may constraints = %v, %v", got, err)
	}

	// Upsert by name replaces instead of duplicating.
	always.MinRestHours = 12
	if err := s.UpsertConstraint(ctx, always); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = s.ListConstraints(ctx, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || len(got) != 1 || got[0].MinRestHours != 12 {
		t.Fatalf("after re-upsert = %v, %v", got, err)
	}
}

func TestRosterAndDemand(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertEmployee(ctx, Employee{
		Name: "Ada", Role: "operator", Skills: []string{"phones", "chat"},
		HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22, Preference: "morning",
	})
	if err != nil || id == 0 {
		t.Fatalf("UpsertEmployee = %d, %v", id, err)
	}
	// Same name updates in place.
	id2, err := s.UpsertEmployee(ctx, Employee{Name: "Ada", Role: "lead", HourlyRate: 24, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22})
	if err != nil || id2 != id {
		t.Fatalf("re-upsert = %d, %v; want %d", id2, err, id)
	}
	emps, err := s.ListEmployees(ctx)
	if err != nil || len(emps) != 1 {
		t.Fatalf("ListEmployees = %v, %v", emps, err)
	}
	if emps[0].Role != "lead" || emps[0].HourlyRate != 24 {
		t.Fatalf("employee = %+v", emps[0])
	}

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	if err := s.InsertShift(ctx, Shift{EmployeeID: id, StartsAt: start, EndsAt: start.Add(8 * time.Hour)}); err != nil {
		t.Fatalf("InsertShift: %v", err)
	}
	// Window overlap, not containment.
	shifts, err := s.ListShifts(ctx, start.Add(7*time.Hour), start.Add(9*time.Hour))
	if err != nil || len(shifts) != 1 {
		t.Fatalf("ListShifts = %v, %v", shifts, err)
	}
	shifts, err = s.ListShifts(ctx, start.Add(9*time.Hour), start.Add(10*time.Hour))
	if err != nil || len(shifts) != 0 {
		t.Fatalf("disjoint ListShifts = %v, %v", shifts, err)
	}

	rows := []DemandInterval{
		{StartsAt: start, Required: 5},
		{StartsAt: start.Add(15 * time.Minute), Required: 8},
	}
	if err := s.ReplaceDemand(ctx, rows); err != nil {
		t.Fatalf("ReplaceDemand: %v", err)
	}
	// Re-importing the same slots overwrites.
	if err := s.ReplaceDemand(ctx, []DemandInterval{{StartsAt: start, Required: 6}}); err != nil {
		t.Fatalf("ReplaceDemand(update): %v", err)
	}
	demand, err := s.ListDemand(ctx, start, start.Add(time.Hour))
	if err != nil || len(demand) != 2 {
		t.Fatalf("ListDemand = %v, %v", demand, err)
	}
	if demand[0].Required != 6 || demand[1].Required != 8 {
		t.Fatalf("demand = %+v", demand)
	}
}
