// Package store defines the persistence interface and shared models for
// optimization runs, coverage intervals, patterns, suggestions, constraints,
// and the roster data that feeds the pipeline.
package store

import "time"

// Weights holds the four scoring weights for a run; they must sum to 100.
type Weights struct {
	Coverage     int
	Cost         int
	ServiceLevel int
	Complexity   int
}

// Sum returns the total of the four weights.
func (w Weights) Sum() int {
	return w.Coverage + w.Cost + w.ServiceLevel + w.Complexity
}

// Run is one optimization request. Owned by the orchestrator; mutated only by
// stage transitions and never deleted mid-flight.
type Run struct {
	RunID           string
	Name            string
	WindowStart     time.Time
	WindowEnd       time.Time
	Weights         Weights
	Status          string
	CancelRequested bool
	StartedAt       *time.Time
	FinishedAt      *time.Time
	GeneratedCount  int
	ValidCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StageRun is the execution record for one pipeline stage within a run.
type StageRun struct {
	RunID      string
	Stage      string
	OrderIndex int
	Status     string
	StartedAt  *time.Time
	FinishedAt *time.Time
	Progress   int
	Result     string // free-form JSON payload
	Error      string
	DependsOn  []string
}

// CoverageInterval is one fixed-width slice of a run's window. Created in bulk
// by the analyzer; only the pattern label and recurring flag change afterward.
type CoverageInterval struct {
	IntervalID   int64
	RunID        string
	StartsAt     time.Time
	Required     int
	Scheduled    int
	Gap          int
	Ratio        float64
	Severity     string
	PatternLabel string
	Recurring    bool
	ServiceLevel float64
}

// GapPattern is a recurring cluster of gap intervals sharing an hour-of-day.
// Derived data, recomputed per run.
type GapPattern struct {
	PatternID        int64
	RunID            string
	Label            string
	HourOfDay        int
	AverageGap       float64
	IntervalCount    int
	DominantSeverity string
}

// Suggestion is one candidate remediation with scores, projected deltas,
// risk/complexity tiers, and the four compliance flags.
type Suggestion struct {
	SuggestionID        string
	RunID               string
	PatternLabel        string
	Rank                int
	Name                string
	Description         string
	CoverageScore       float64
	CostScore           float64
	ServiceScore        float64
	ComplexityScore     float64
	OverallScore        float64
	CoverageImprovement float64
	WeeklyCostDelta     float64
	ServiceLevelDelta   float64
	HeadcountNeeded     int
	HeadcountAvailable  int
	RiskTier            string
	ComplexityTier      string
	LaborLawOK          bool
	UnionOK             bool
	ContractOK          bool
	BusinessRuleOK      bool
	CreatedAt           time.Time
}

// Compliant reports whether all four compliance flags are set; only compliant
// suggestions are eligible for ranking.
func (s Suggestion) Compliant() bool {
	return s.LaborLawOK && s.UnionOK && s.ContractOK && s.BusinessRuleOK
}

// SuggestionDetail is the concrete per-employee shift delta implied by a suggestion.
type SuggestionDetail struct {
	DetailID        int64
	SuggestionID    string
	EmployeeID      int64
	EmployeeName    string
	ChangeType      string
	CurrentStart    *time.Time
	CurrentEnd      *time.Time
	ProposedStart   *time.Time
	ProposedEnd     *time.Time
	OvertimeDelta   float64
	CostDelta       float64
	CoverageDelta   int
	PreferenceScore float64
}

// Constraint is a validator rule. Constraints are configuration, supplied
// externally and read-only to the engine.
type Constraint struct {
	ConstraintID       int64
	Name               string
	Type               string
	Priority           string
	Scope              string
	MaxHoursPerDay     float64
	MaxHoursPerWeek    float64
	MinRestHours       float64
	MaxConsecutiveDays int
	MinOperators       int
	EffectiveFrom      *time.Time
	EffectiveTo        *time.Time
}

// ActiveAt reports whether the constraint is in effect at t.
func (c Constraint) ActiveAt(t time.Time) bool {
	if c.EffectiveFrom != nil && t.Before(*c.EffectiveFrom) {
		return false
	}
	if c.EffectiveTo != nil && !t.Before(*c.EffectiveTo) {
		return false
	}
	return true
}

// Employee is a roster member with availability, skills, and shift preference.
type Employee struct {
	EmployeeID     int64
	Name           string
	Role           string
	Skills         []string
	HourlyRate     float64
	MaxWeeklyHours float64
	AvailableFrom  int // hour of day, inclusive
	AvailableUntil int // hour of day, exclusive
	Preference     string
	CreatedAt      time.Time
}

// Shift is one scheduled work block for an employee.
type Shift struct {
	ShiftID    int64
	EmployeeID int64
	StartsAt   time.Time
	EndsAt     time.Time
}

// DemandInterval is one forecast row: required headcount at an interval start.
type DemandInterval struct {
	StartsAt time.Time
	Required int
}
