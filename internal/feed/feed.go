// Package feed abstracts the external data sources the engine consumes:
// the demand forecast, the current schedule, and the employee roster.
// The engine only reads these; it never writes them.
package feed

import (
	"context"
	"time"

	"github.com/optishift/optishift/internal/store"
)

// DemandSource supplies required headcount per interval start within [from, to).
type DemandSource interface {
	Demand(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error)
}

// ScheduleSource supplies scheduled headcount per interval start within [from, to).
type ScheduleSource interface {
	Scheduled(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error)
}

// RosterSource supplies employees and their shifts overlapping [from, to).
type RosterSource interface {
	Roster(ctx context.Context, from, to time.Time) ([]store.Employee, []store.Shift, error)
}

// Bundle groups the three sources the pipeline needs.
type Bundle struct {
	Demand   DemandSource
	Schedule ScheduleSource
	Roster   RosterSource
}

// StoreFeeds returns a Bundle backed by the given store: demand from imported
// forecast rows, schedule and roster from the shifts/employees tables.
func StoreFeeds(st store.Store) Bundle {
	sf := &storeFeed{st: st}
	return Bundle{Demand: sf, Schedule: sf, Roster: sf}
}

type storeFeed struct {
	st store.Store
}

func (f *storeFeed) Demand(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error) {
	rows, err := f.st.ListDemand(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]int, len(rows))
	for _, r := range rows {
		out[r.StartsAt.Truncate(width)] = r.Required
	}
	return out, nil
}

func (f *storeFeed) Scheduled(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error) {
	shifts, err := f.st.ListShifts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return CountHeadcount(shifts, from, to, width), nil
}

func (f *storeFeed) Roster(ctx context.Context, from, to time.Time) ([]store.Employee, []store.Shift, error) {
	emps, err := f.st.ListEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}
	shifts, err := f.st.ListShifts(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	return emps, shifts, nil
}

// CountHeadcount buckets shifts into fixed-width intervals and counts how many
// are on duty at each interval start. A shift covers an interval when it
// overlaps any part of [start, start+width).
func CountHeadcount(shifts []store.Shift, from, to time.Time, width time.Duration) map[time.Time]int {
	out := make(map[time.Time]int)
	for t := from.Truncate(width); t.Before(to); t = t.Add(width) {
		end := t.Add(width)
		n := 0
		for _, sh := range shifts {
			if sh.StartsAt.Before(end) && sh.EndsAt.After(t) {
				n++
			}
		}
		if n > 0 {
			out[t] = n
		}
	}
	return out
}

// Static is an in-memory Bundle for tests and dry runs.
type Static struct {
	Required  map[time.Time]int
	OnDuty    map[time.Time]int
	Employees []store.Employee
	Shifts    []store.Shift
	Err       error // returned from every call when set
}

func (s *Static) Demand(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Required, nil
}

func (s *Static) Scheduled(ctx context.Context, from, to time.Time, width time.Duration) (map[time.Time]int, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.OnDuty != nil {
		return s.OnDuty, nil
	}
	return CountHeadcount(s.Shifts, from, to, width), nil
}

func (s *Static) Roster(ctx context.Context, from, to time.Time) ([]store.Employee, []store.Shift, error) {
	if s.Err != nil {
		return nil, nil, s.Err
	}
	return s.Employees, s.Shifts, nil
}

// AsBundle returns the static feed as a Bundle.
func (s *Static) AsBundle() Bundle {
	return Bundle{Demand: s, Schedule: s, Roster: s}
}
