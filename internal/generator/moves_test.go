package generator

import (
	"testing"
	"time"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

func TestBlocksByDay(t *testing.T) {
	t.Parallel()
	members := []store.CoverageInterval{
		gapInterval(2, 12, 0, 2),
		gapInterval(2, 12, 1, 3),
		gapInterval(3, 12, 0, 1),
	}
	blocks := blocksByDay(members, 15*time.Minute)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	first := blocks[0]
	if !first.start.Equal(day(2, 12, 0)) || !first.end.Equal(day(2, 12, 30)) {
		t.Fatalf("day-2 block spans %s..%s", first.start, first.end)
	}
	if first.maxGap != 3 || len(first.slices) != 2 {
		t.Fatalf("day-2 block maxGap=%d slices=%d", first.maxGap, len(first.slices))
	}
}

func TestCostForOvertime(t *testing.T) {
	t.Parallel()
	e := store.Employee{EmployeeID: 1, HourlyRate: 10, MaxWeeklyHours: 40}
	shifts := []store.Shift{
		{EmployeeID: 1, StartsAt: day(2, 8, 0), EndsAt: day(2, 8, 0).Add(38 * time.Hour)},
	}
	r := indexRoster([]store.Employee{e}, shifts)

	// 38h worked, 4h more: 2h regular + 2h overtime at 1.5x.
	cost, ot := r.costFor(e, 4)
	if ot != 2 {
		t.Fatalf("overtime = %v, want 2", ot)
	}
	if cost != 2*10+2*15 {
		t.Fatalf("cost = %v, want 50", cost)
	}

	// Entirely within the weekly cap: no overtime.
	e2 := store.Employee{EmployeeID: 2, HourlyRate: 10, MaxWeeklyHours: 40}
	r2 := indexRoster([]store.Employee{e2}, nil)
	cost, ot = r2.costFor(e2, 4)
	if ot != 0 || cost != 40 {
		t.Fatalf("cost=%v ot=%v, want 40, 0", cost, ot)
	}
}

func TestMovesForBlockPrefersExtension(t *testing.T) {
	t.Parallel()
	e := store.Employee{EmployeeID: 1, Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22}
	// Shift ends exactly at the block start: extension is the natural delta.
	shifts := []store.Shift{{ShiftID: 1, EmployeeID: 1, StartsAt: day(2, 9, 0), EndsAt: day(2, 12, 0)}}
	r := indexRoster([]store.Employee{e}, shifts)

	members := []store.CoverageInterval{gapInterval(2, 12, 0, 1), gapInterval(2, 12, 1, 1)}
	blocks := blocksByDay(members, 15*time.Minute)
	moves := r.movesForBlock(blocks[0], nil)
	if len(moves) != 1 {
		t.Fatalf("moves = %d, want 1", len(moves))
	}
	m := moves[0]
	if m.detail.ChangeType != models.ChangeModify {
		t.Fatalf("change type = %q, want modify", m.detail.ChangeType)
	}
	if m.detail.ProposedEnd == nil || !m.detail.ProposedEnd.Equal(day(2, 12, 30)) {
		t.Fatalf("proposed end = %v, want 12:30", m.detail.ProposedEnd)
	}
}

func TestMovesForBlockSkipsOnDutyAndUnavailable(t *testing.T) {
	t.Parallel()
	onDuty := store.Employee{EmployeeID: 1, Name: "Ada", AvailableFrom: 0, AvailableUntil: 24}
	unavailable := store.Employee{EmployeeID: 2, Name: "Ben", AvailableFrom: 14, AvailableUntil: 20}
	free := store.Employee{EmployeeID: 3, Name: "Cleo", HourlyRate: 18, MaxWeeklyHours: 40, AvailableFrom: 8, AvailableUntil: 18}
	shifts := []store.Shift{{ShiftID: 1, EmployeeID: 1, StartsAt: day(2, 11, 0), EndsAt: day(2, 14, 0)}}
	r := indexRoster([]store.Employee{onDuty, unavailable, free}, shifts)

	members := []store.CoverageInterval{gapInterval(2, 12, 0, 1)}
	blocks := blocksByDay(members, 15*time.Minute)
	moves := r.movesForBlock(blocks[0], nil)
	if len(moves) != 1 {
		t.Fatalf("moves = %d, want 1 (only the free, available employee)", len(moves))
	}
	if moves[0].employeeID != 3 {
		t.Fatalf("move employee = %d, want 3", moves[0].employeeID)
	}
	if moves[0].detail.ChangeType != models.ChangeAdd {
		t.Fatalf("change type = %q, want add", moves[0].detail.ChangeType)
	}
}

func TestSurplusMoveStaysOnItsDay(t *testing.T) {
	t.Parallel()
	e := store.Employee{EmployeeID: 1, Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 22}
	surplus := []store.Shift{{ShiftID: 1, EmployeeID: 1, StartsAt: day(2, 6, 0), EndsAt: day(2, 6, 30)}}
	r := indexRoster([]store.Employee{e}, surplus)

	// Same day: the surplus shift relocates into the block.
	sameDay := blocksByDay([]store.CoverageInterval{gapInterval(2, 12, 0, 1)}, 15*time.Minute)
	moves := r.movesForBlock(sameDay[0], surplus)
	if len(moves) != 1 || moves[0].detail.ChangeType != models.ChangeMove {
		t.Fatalf("same-day moves = %+v, want one move", moves)
	}

	// Next day: the shift is not up for grabs again, a fresh shift is added.
	nextDay := blocksByDay([]store.CoverageInterval{gapInterval(3, 12, 0, 1)}, 15*time.Minute)
	moves = r.movesForBlock(nextDay[0], surplus)
	if len(moves) != 1 || moves[0].detail.ChangeType != models.ChangeAdd {
		t.Fatalf("next-day moves = %+v, want one add", moves)
	}
}

func TestAvailabilityCoversWholeBlock(t *testing.T) {
	t.Parallel()
	e := store.Employee{EmployeeID: 1, Name: "Ada", HourlyRate: 20, MaxWeeklyHours: 40, AvailableFrom: 6, AvailableUntil: 12}
	r := indexRoster([]store.Employee{e}, nil)

	// Block runs until 12:30 but Ada's availability ends at 12:00.
	past := blocksByDay([]store.CoverageInterval{gapInterval(2, 12, 0, 1), gapInterval(2, 12, 1, 1)}, 15*time.Minute)
	if moves := r.movesForBlock(past[0], nil); len(moves) != 0 {
		t.Fatalf("moves = %d, want 0 for a block past availability", len(moves))
	}

	// Block ending exactly on the availability boundary is legal.
	at := blocksByDay([]store.CoverageInterval{gapInterval(2, 11, 3, 1)}, 15*time.Minute)
	if moves := r.movesForBlock(at[0], nil); len(moves) != 1 {
		t.Fatalf("moves = %d, want 1 for a block ending at the boundary", len(moves))
	}
}

func TestSurplusShifts(t *testing.T) {
	t.Parallel()
	width := 15 * time.Minute
	intervals := []store.CoverageInterval{
		{StartsAt: day(2, 9, 0), Gap: -2},
		{StartsAt: day(2, 9, 15), Gap: -2},
		{StartsAt: day(2, 12, 0), Gap: 3},
	}
	surplusShift := store.Shift{ShiftID: 1, EmployeeID: 1, StartsAt: day(2, 9, 0), EndsAt: day(2, 9, 30)}
	neededShift := store.Shift{ShiftID: 2, EmployeeID: 2, StartsAt: day(2, 12, 0), EndsAt: day(2, 12, 30)}

	out := surplusShifts([]store.Shift{surplusShift, neededShift}, intervals, width)
	if len(out) != 1 || out[0].ShiftID != 1 {
		t.Fatalf("surplus = %+v, want only shift 1", out)
	}
}
