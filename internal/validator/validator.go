// Package validator implements the fourth pipeline stage: checking every
// candidate against the active constraint catalog. Critical violations clear
// the candidate's compliance flag for the violated category; lower-priority
// violations are recorded as advisories and leave the flags intact.
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/optishift/optishift/internal/feed"
	"github.com/optishift/optishift/internal/generator"
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// Violation is one constraint breach found in a candidate.
type Violation struct {
	Constraint string `json:"constraint"`
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	EmployeeID int64  `json:"employee_id,omitempty"`
	Message    string `json:"message"`
}

// Blocking reports whether the violation clears a compliance flag.
func (v Violation) Blocking() bool {
	return v.Priority == models.PriorityCritical
}

// Result is the validation outcome for one candidate. The candidate's
// compliance flags are updated in place on its Suggestion.
type Result struct {
	Candidate  generator.Candidate
	Violations []Violation
	Compliant  bool
}

// Validator checks candidates against a fixed constraint set and the roster
// state the candidates were generated from.
type Validator struct {
	Constraints []store.Constraint
	Employees   []store.Employee
	Shifts      []store.Shift
	Width       time.Duration
}

// Validate checks one candidate against every active constraint and returns
// the candidate with its compliance flags resolved. Validation itself never
// fails; an infeasible candidate is a result, not an error.
func (v *Validator) Validate(cand generator.Candidate) Result {
	var violations []Violation

	// Built-in feasibility check: a candidate cannot need more people than the
	// roster can supply for its pattern.
	if s := cand.Suggestion; s.HeadcountNeeded > s.HeadcountAvailable {
		violations = append(violations, Violation{
			Constraint: "headcount feasibility",
			Type:       models.ConstraintBusinessRule,
			Priority:   models.PriorityCritical,
			Message: fmt.Sprintf("needs %d operators but only %d are available",
				s.HeadcountNeeded, s.HeadcountAvailable),
		})
	}

	for _, c := range v.Constraints {
		violations = append(violations, v.check(c, cand)...)
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Constraint < violations[j].Constraint
	})

	s := &cand.Suggestion
	for _, viol := range violations {
		if !viol.Blocking() {
			continue
		}
		switch viol.Type {
		case models.ConstraintLaborLaw:
			s.LaborLawOK = false
		case models.ConstraintUnion:
			s.UnionOK = false
		case models.ConstraintContract:
			s.ContractOK = false
		case models.ConstraintBusinessRule:
			s.BusinessRuleOK = false
		}
	}
	return Result{Candidate: cand, Violations: violations, Compliant: s.Compliant()}
}

func (v *Validator) check(c store.Constraint, cand generator.Candidate) []Violation {
	var out []Violation
	viol := func(employeeID int64, format string, args ...any) {
		out = append(out, Violation{
			Constraint: c.Name,
			Type:       c.Type,
			Priority:   c.Priority,
			EmployeeID: employeeID,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	dayHours, weekHours := v.projectedHours(cand.Details)

	if c.MaxHoursPerDay > 0 {
		for key, hours := range dayHours {
			if hours > c.MaxHoursPerDay {
				viol(key.employeeID, "%.1fh on %s exceeds daily maximum %.1fh",
					hours, key.day.Format("2006-01-02"), c.MaxHoursPerDay)
			}
		}
	}
	if c.MaxHoursPerWeek > 0 {
		for id, hours := range weekHours {
			if hours > c.MaxHoursPerWeek {
				viol(id, "%.1fh in window exceeds weekly maximum %.1fh", hours, c.MaxHoursPerWeek)
			}
		}
	}
	if c.MinRestHours > 0 {
		for _, d := range cand.Details {
			if d.ProposedStart == nil || d.ProposedEnd == nil {
				continue
			}
			if rest, ok := v.shortestRest(d); ok && rest < c.MinRestHours {
				viol(d.EmployeeID, "%.1fh rest before proposed shift is below minimum %.1fh",
					rest, c.MinRestHours)
			}
		}
	}
	if c.MaxConsecutiveDays > 0 {
		for id, run := range v.consecutiveDays(cand.Details) {
			if run > c.MaxConsecutiveDays {
				viol(id, "%d consecutive working days exceeds maximum %d", run, c.MaxConsecutiveDays)
			}
		}
	}
	if c.MinOperators > 0 {
		for _, d := range cand.Details {
			if d.ChangeType != models.ChangeMove && d.ChangeType != models.ChangeSplit {
				continue
			}
			if d.CurrentStart == nil || d.CurrentEnd == nil {
				continue
			}
			if low := v.lowestCoverage(*d.CurrentStart, *d.CurrentEnd, d.EmployeeID); low-1 < c.MinOperators {
				viol(d.EmployeeID, "vacating %s..%s drops coverage to %d, below minimum %d operators",
					d.CurrentStart.Format("15:04"), d.CurrentEnd.Format("15:04"), low-1, c.MinOperators)
			}
		}
	}
	return out
}

type dayKey struct {
	employeeID int64
	day        time.Time
}

// projectedHours applies the candidate's deltas on top of existing shifts and
// returns per-employee-per-day and per-employee totals for the window.
func (v *Validator) projectedHours(details []store.SuggestionDetail) (map[dayKey]float64, map[int64]float64) {
	day := make(map[dayKey]float64)
	week := make(map[int64]float64)
	add := func(id int64, start, end time.Time, sign float64) {
		h := end.Sub(start).Hours() * sign
		day[dayKey{id, start.UTC().Truncate(24 * time.Hour)}] += h
		week[id] += h
	}
	for _, sh := range v.Shifts {
		add(sh.EmployeeID, sh.StartsAt, sh.EndsAt, 1)
	}
	for _, d := range details {
		if d.CurrentStart != nil && d.CurrentEnd != nil {
			add(d.EmployeeID, *d.CurrentStart, *d.CurrentEnd, -1)
		}
		if d.ProposedStart != nil && d.ProposedEnd != nil {
			add(d.EmployeeID, *d.ProposedStart, *d.ProposedEnd, 1)
		}
	}
	return day, week
}

// shortestRest returns the smallest gap in hours between the proposed block
// and the employee's remaining shifts. ok is false when no other shift exists.
func (v *Validator) shortestRest(d store.SuggestionDetail) (float64, bool) {
	best := 0.0
	found := false
	for _, sh := range v.Shifts {
		if sh.EmployeeID != d.EmployeeID {
			continue
		}
		// The shift being modified or moved no longer exists at its old slot.
		if d.CurrentStart != nil && sh.StartsAt.Equal(*d.CurrentStart) {
			continue
		}
		var rest float64
		switch {
		case !sh.EndsAt.After(*d.ProposedStart):
			rest = d.ProposedStart.Sub(sh.EndsAt).Hours()
		case !d.ProposedEnd.After(sh.StartsAt):
			rest = sh.StartsAt.Sub(*d.ProposedEnd).Hours()
		default:
			rest = 0 // overlap
		}
		if !found || rest < best {
			best, found = rest, true
		}
	}
	return best, found
}

// consecutiveDays returns, per employee, the longest run of consecutive
// working days once the candidate's proposed shifts are applied.
func (v *Validator) consecutiveDays(details []store.SuggestionDetail) map[int64]int {
	working := make(map[int64]map[time.Time]bool)
	mark := func(id int64, t time.Time) {
		if working[id] == nil {
			working[id] = make(map[time.Time]bool)
		}
		working[id][t.UTC().Truncate(24*time.Hour)] = true
	}
	for _, sh := range v.Shifts {
		mark(sh.EmployeeID, sh.StartsAt)
	}
	for _, d := range details {
		if d.ProposedStart != nil {
			mark(d.EmployeeID, *d.ProposedStart)
		}
	}

	out := make(map[int64]int, len(working))
	for id, days := range working {
		sorted := make([]time.Time, 0, len(days))
		for d := range days {
			sorted = append(sorted, d)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
		longest, run := 0, 0
		for i, d := range sorted {
			if i > 0 && d.Sub(sorted[i-1]) == 24*time.Hour {
				run++
			} else {
				run = 1
			}
			if run > longest {
				longest = run
			}
		}
		out[id] = longest
	}
	return out
}

// lowestCoverage returns the minimum scheduled headcount across the window,
// counting every current shift including the one about to be vacated.
func (v *Validator) lowestCoverage(from, to time.Time, _ int64) int {
	width := v.Width
	if width <= 0 {
		width = 15 * time.Minute
	}
	counts := feed.CountHeadcount(v.Shifts, from, to, width)
	low := -1
	for t := from.Truncate(width); t.Before(to); t = t.Add(width) {
		n := counts[t]
		if low < 0 || n < low {
			low = n
		}
	}
	if low < 0 {
		return 0
	}
	return low
}
