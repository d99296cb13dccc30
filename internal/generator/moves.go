package generator

import (
	"fmt"
	"time"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// move is one legal shift delta for one employee on one day, with its
// estimated effect. Moves are the atoms the search selects from.
type move struct {
	employeeID int64
	day        time.Time // UTC midnight of the block's day
	detail     store.SuggestionDetail
	cost       float64 // cost delta for this one occurrence
	overtime   float64 // overtime hours incurred
	pref       float64 // 0..1 preference alignment
}

// dayBlock is the contiguous gap window on one day for a pattern: the span of
// that day's member slices plus the worst gap across them.
type dayBlock struct {
	day    time.Time
	start  time.Time
	end    time.Time
	maxGap int
	slices []store.CoverageInterval
}

func blocksByDay(members []store.CoverageInterval, width time.Duration) []dayBlock {
	byDay := make(map[time.Time]*dayBlock)
	var order []time.Time
	for _, iv := range members {
		day := iv.StartsAt.UTC().Truncate(24 * time.Hour)
		b := byDay[day]
		if b == nil {
			b = &dayBlock{day: day, start: iv.StartsAt, end: iv.StartsAt.Add(width)}
			byDay[day] = b
			order = append(order, day)
		}
		if iv.StartsAt.Before(b.start) {
			b.start = iv.StartsAt
		}
		if e := iv.StartsAt.Add(width); e.After(b.end) {
			b.end = e
		}
		if iv.Gap > b.maxGap {
			b.maxGap = iv.Gap
		}
		b.slices = append(b.slices, iv)
	}
	out := make([]dayBlock, 0, len(order))
	for _, d := range order {
		out = append(out, *byDay[d])
	}
	return out
}

// roster indexes employees and their shifts for fast feasibility checks.
type roster struct {
	employees map[int64]store.Employee
	shifts    map[int64][]store.Shift
	weekHours map[int64]float64
}

func indexRoster(employees []store.Employee, shifts []store.Shift) *roster {
	r := &roster{
		employees: make(map[int64]store.Employee, len(employees)),
		shifts:    make(map[int64][]store.Shift),
		weekHours: make(map[int64]float64),
	}
	for _, e := range employees {
		r.employees[e.EmployeeID] = e
	}
	for _, sh := range shifts {
		r.shifts[sh.EmployeeID] = append(r.shifts[sh.EmployeeID], sh)
		r.weekHours[sh.EmployeeID] += sh.EndsAt.Sub(sh.StartsAt).Hours()
	}
	return r
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func (r *roster) onDuty(employeeID int64, start, end time.Time) bool {
	for _, sh := range r.shifts[employeeID] {
		if overlaps(sh.StartsAt, sh.EndsAt, start, end) {
			return true
		}
	}
	return false
}

func (r *roster) available(e store.Employee, start, end time.Time) bool {
	h := start.UTC().Hour()
	endH := end.UTC().Hour()
	if end.UTC().Minute() > 0 || end.UTC().Second() > 0 {
		// A block ending mid-hour still occupies that hour.
		endH++
	}
	if endH == 0 && end.After(start) {
		endH = 24
	}
	return h >= e.AvailableFrom && endH <= e.AvailableUntil
}

// preferenceScore reflects how well a block matches the employee's stated
// shift preference.
func preferenceScore(e store.Employee, blockStart time.Time) float64 {
	hour := blockStart.UTC().Hour()
	switch e.Preference {
	case "morning":
		if hour < 12 {
			return 1.0
		}
		return 0.3
	case "evening":
		if hour >= 14 {
			return 1.0
		}
		return 0.3
	default:
		return 0.7
	}
}

// costFor prices worked hours, applying a 1.5x premium to hours past the
// employee's weekly maximum.
func (r *roster) costFor(e store.Employee, hours float64) (cost, overtime float64) {
	worked := r.weekHours[e.EmployeeID]
	regular := hours
	if worked+hours > e.MaxWeeklyHours {
		overtime = worked + hours - e.MaxWeeklyHours
		if overtime > hours {
			overtime = hours
		}
		regular = hours - overtime
	}
	return regular*e.HourlyRate + overtime*e.HourlyRate*1.5, overtime
}

// movesForBlock enumerates every legal single-employee delta that adds one
// operator to the block: extending an adjacent shift, adding a new shift,
// moving a surplus shift into the block, or splitting a long shift.
// surplus holds shifts whose removal would not create a new gap; a block only
// draws surplus from its own day, so no shift is relocated twice within one
// candidate.
func (r *roster) movesForBlock(b dayBlock, surplus []store.Shift) []move {
	var out []move
	blockHours := b.end.Sub(b.start).Hours()

	for id, e := range r.employees {
		if r.onDuty(id, b.start, b.end) {
			continue // already covering the block
		}
		if !r.available(e, b.start, b.end) {
			continue
		}
		pref := preferenceScore(e, b.start)

		// Extend an adjacent shift into the block (modify).
		if sh, ok := r.adjacentShift(id, b); ok {
			cost, ot := r.costFor(e, blockHours)
			propStart, propEnd := sh.StartsAt, sh.EndsAt
			if sh.EndsAt.Equal(b.start) {
				propEnd = b.end
			} else {
				propStart = b.start
			}
			out = append(out, move{
				employeeID: id,
				day:        b.day,
				cost:       cost,
				overtime:   ot,
				pref:       pref,
				detail: store.SuggestionDetail{
					EmployeeID:      id,
					EmployeeName:    e.Name,
					ChangeType:      models.ChangeModify,
					CurrentStart:    timeCopy(sh.StartsAt),
					CurrentEnd:      timeCopy(sh.EndsAt),
					ProposedStart:   timeCopy(propStart),
					ProposedEnd:     timeCopy(propEnd),
					OvertimeDelta:   ot,
					CostDelta:       cost,
					CoverageDelta:   len(b.slices),
					PreferenceScore: pref,
				},
			})
			continue
		}

		// Move a surplus shift of this employee into the block.
		if sh, ok := findSurplusShift(surplus, id, b.day); ok && !overlaps(sh.StartsAt, sh.EndsAt, b.start, b.end) {
			dur := sh.EndsAt.Sub(sh.StartsAt)
			out = append(out, move{
				employeeID: id,
				day:        b.day,
				cost:       0, // same hours, shifted in time
				pref:       pref,
				detail: store.SuggestionDetail{
					EmployeeID:      id,
					EmployeeName:    e.Name,
					ChangeType:      models.ChangeMove,
					CurrentStart:    timeCopy(sh.StartsAt),
					CurrentEnd:      timeCopy(sh.EndsAt),
					ProposedStart:   timeCopy(b.start),
					ProposedEnd:     timeCopy(b.start.Add(dur)),
					CoverageDelta:   len(b.slices),
					PreferenceScore: pref,
				},
			})
			continue
		}

		// Split a long same-day shift so its tail covers the block.
		if sh, ok := r.splittableShift(id, b); ok {
			out = append(out, move{
				employeeID: id,
				day:        b.day,
				cost:       0, // hours conserved across the split
				pref:       pref,
				detail: store.SuggestionDetail{
					EmployeeID:      id,
					EmployeeName:    e.Name,
					ChangeType:      models.ChangeSplit,
					CurrentStart:    timeCopy(sh.StartsAt),
					CurrentEnd:      timeCopy(sh.EndsAt),
					ProposedStart:   timeCopy(b.start),
					ProposedEnd:     timeCopy(b.end),
					CoverageDelta:   len(b.slices),
					PreferenceScore: pref,
				},
			})
			continue
		}

		// Fall back to a fresh shift covering the block (add).
		cost, ot := r.costFor(e, blockHours)
		out = append(out, move{
			employeeID: id,
			day:        b.day,
			cost:       cost,
			overtime:   ot,
			pref:       pref,
			detail: store.SuggestionDetail{
				EmployeeID:      id,
				EmployeeName:    e.Name,
				ChangeType:      models.ChangeAdd,
				ProposedStart:   timeCopy(b.start),
				ProposedEnd:     timeCopy(b.end),
				OvertimeDelta:   ot,
				CostDelta:       cost,
				CoverageDelta:   len(b.slices),
				PreferenceScore: pref,
			},
		})
	}
	return out
}

// adjacentShift finds a same-day shift that ends at the block start or begins
// at the block end, making an extension the cheapest legal delta.
func (r *roster) adjacentShift(employeeID int64, b dayBlock) (store.Shift, bool) {
	for _, sh := range r.shifts[employeeID] {
		if sh.EndsAt.Equal(b.start) || sh.StartsAt.Equal(b.end) {
			return sh, true
		}
	}
	return store.Shift{}, false
}

// splittableShift finds a shift at least twice the block length on the same
// day, not overlapping the block, whose tail can be rebooked onto the block.
func (r *roster) splittableShift(employeeID int64, b dayBlock) (store.Shift, bool) {
	blockLen := b.end.Sub(b.start)
	for _, sh := range r.shifts[employeeID] {
		if !sh.StartsAt.UTC().Truncate(24 * time.Hour).Equal(b.day) {
			continue
		}
		if overlaps(sh.StartsAt, sh.EndsAt, b.start, b.end) {
			continue
		}
		if sh.EndsAt.Sub(sh.StartsAt) >= 2*blockLen && sh.EndsAt.Before(b.start) {
			return sh, true
		}
	}
	return store.Shift{}, false
}

// findSurplusShift returns the employee's surplus shift on the given day.
// Day scoping keeps the shift from being moved into blocks on other days.
func findSurplusShift(surplus []store.Shift, employeeID int64, day time.Time) (store.Shift, bool) {
	for _, sh := range surplus {
		if sh.EmployeeID != employeeID {
			continue
		}
		if sh.StartsAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			return sh, true
		}
	}
	return store.Shift{}, false
}

// surplusShifts returns shifts that only cover intervals with headroom
// (scheduled above required), so moving them elsewhere creates no new gap.
func surplusShifts(shifts []store.Shift, intervals []store.CoverageInterval, width time.Duration) []store.Shift {
	headroom := make(map[time.Time]int)
	for _, iv := range intervals {
		if iv.Gap < 0 {
			headroom[iv.StartsAt] = -iv.Gap
		}
	}
	if len(headroom) == 0 {
		return nil
	}
	var out []store.Shift
	for _, sh := range shifts {
		ok := true
		for t := sh.StartsAt.Truncate(width); t.Before(sh.EndsAt); t = t.Add(width) {
			if headroom[t] < 1 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, sh)
		}
	}
	return out
}

func timeCopy(t time.Time) *time.Time {
	c := t
	return &c
}

func moveKey(m move) string {
	return fmt.Sprintf("%d@%s:%s", m.employeeID, m.day.Format("2006-01-02"), m.detail.ChangeType)
}
