package feed

import (
	"context"
	"testing"
	"time"

	"github.com/optishift/optishift/internal/store"
)

func TestCountHeadcount(t *testing.T) {
	t.Parallel()
	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	width := 15 * time.Minute

	shifts := []store.Shift{
		{ShiftID: 1, EmployeeID: 1, StartsAt: from, EndsAt: from.Add(30 * time.Minute)},
		{ShiftID: 2, EmployeeID: 2, StartsAt: from.Add(15 * time.Minute), EndsAt: to},
		// Ends exactly at the window start: never on duty inside it.
		{ShiftID: 3, EmployeeID: 3, StartsAt: from.Add(-2 * time.Hour), EndsAt: from},
		// Partial overlap of a slice still counts.
		{ShiftID: 4, EmployeeID: 4, StartsAt: from.Add(50 * time.Minute), EndsAt: to.Add(time.Hour)},
	}

	counts := CountHeadcount(shifts, from, to, width)
	want := map[int]int{0: 1, 1: 2, 2: 1, 3: 2}
	for slice, n := range want {
		at := from.Add(time.Duration(slice) * 15 * time.Minute)
		if counts[at] != n {
			t.Errorf("slice %d (%s): headcount = %d, want %d", slice, at.Format("15:04"), counts[at], n)
		}
	}
}

func TestStoreFeeds(t *testing.T) {
	t.Parallel()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	width := 15 * time.Minute

	id, err := st.UpsertEmployee(ctx, store.Employee{Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22})
	if err != nil {
		t.Fatalf("UpsertEmployee: %v", err)
	}
	if err := st.InsertShift(ctx, store.Shift{EmployeeID: id, StartsAt: from, EndsAt: from.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("InsertShift: %v", err)
	}
	if err := st.ReplaceDemand(ctx, []store.DemandInterval{
		{StartsAt: from, Required: 3},
		{StartsAt: from.Add(15 * time.Minute), Required: 5},
	}); err != nil {
		t.Fatalf("ReplaceDemand: %v", err)
	}

	b := StoreFeeds(st)

	demand, err := b.Demand.Demand(ctx, from, to, width)
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if demand[from] != 3 || demand[from.Add(15*time.Minute)] != 5 {
		t.Fatalf("demand = %v", demand)
	}

	scheduled, err := b.Schedule.Scheduled(ctx, from, to, width)
	if err != nil {
		t.Fatalf("Scheduled: %v", err)
	}
	if scheduled[from] != 1 || scheduled[from.Add(30*time.Minute)] != 0 {
		t.Fatalf("scheduled = %v", scheduled)
	}

	emps, shifts, err := b.Roster.Roster(ctx, from, to)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(emps) != 1 || len(shifts) != 1 {
		t.Fatalf("roster = %d employees, %d shifts", len(emps), len(shifts))
	}
}

func TestStaticFallsBackToShifts(t *testing.T) {
	t.Parallel()
	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s := &Static{Shifts: []store.Shift{{EmployeeID: 1, StartsAt: from, EndsAt: from.Add(15 * time.Minute)}}}
	got, err := s.Scheduled(context.Background(), from, from.Add(30*time.Minute), 15*time.Minute)
	if err != nil {
		t.Fatalf("Scheduled: %v", err)
	}
	if got[from] != 1 {
		t.Fatalf("scheduled = %v", got)
	}
}
