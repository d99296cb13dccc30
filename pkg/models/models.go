// Package models provides shared types for the Optishift HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Weights holds the four scoring weights for a run. They must sum to exactly 100.
type Weights struct {
	Coverage     int `json:"coverage"`
	Cost         int `json:"cost"`
	ServiceLevel int `json:"service_level"`
	Complexity   int `json:"complexity"`
}

// Sum returns the total of the four weights.
func (w Weights) Sum() int {
	return w.Coverage + w.Cost + w.ServiceLevel + w.Complexity
}

// Run is one optimization request with its window, weights, status, and counters.
type Run struct {
	RunID          string     `json:"run_id"`
	Name           string     `json:"name"`
	WindowStart    time.Time  `json:"window_start"`
	WindowEnd      time.Time  `json:"window_end"`
	Weights        Weights    `json:"weights"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	GeneratedCount int        `json:"generated_count"`
	ValidCount     int        `json:"valid_count"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty"`
}

// StageRun is the execution record for one pipeline stage within a run.
type StageRun struct {
	RunID      string     `json:"run_id"`
	Stage      string     `json:"stage"`
	OrderIndex int        `json:"order_index"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   int        `json:"progress"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	DependsOn  []string   `json:"depends_on,omitempty"`
}

// RunStatus is the GET /runs/{id} payload: run, stages, and overall progress.
type RunStatus struct {
	Run      Run        `json:"run"`
	Stages   []StageRun `json:"stages"`
	Progress int        `json:"progress"` // 0-100 across all stages
}

// CoverageInterval is one fixed-width slice of the run window with its gap and severity.
type CoverageInterval struct {
	IntervalID   int64     `json:"interval_id"`
	RunID        string    `json:"run_id"`
	StartsAt     time.Time `json:"starts_at"`
	Required     int       `json:"required"`
	Scheduled    int       `json:"scheduled"`
	Gap          int       `json:"gap"`
	Ratio        float64   `json:"ratio"`
	Severity     string    `json:"severity"`
	PatternLabel string    `json:"pattern_label,omitempty"`
	Recurring    bool      `json:"recurring"`
	ServiceLevel float64   `json:"service_level"`
}

// GapPattern is a recurring cluster of gap intervals sharing an hour-of-day.
type GapPattern struct {
	PatternID        int64   `json:"pattern_id"`
	RunID            string  `json:"run_id"`
	Label            string  `json:"label"`
	HourOfDay        int     `json:"hour_of_day"`
	AverageGap       float64 `json:"average_gap"`
	IntervalCount    int     `json:"interval_count"`
	DominantSeverity string  `json:"dominant_severity"`
}

// Suggestion is one ranked candidate remediation with scores and compliance flags.
type Suggestion struct {
	SuggestionID        string             `json:"suggestion_id"`
	RunID               string             `json:"run_id"`
	PatternLabel        string             `json:"pattern_label"`
	Rank                int                `json:"rank"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	CoverageScore       float64            `json:"coverage_score"`
	CostScore           float64            `json:"cost_score"`
	ServiceScore        float64            `json:"service_score"`
	ComplexityScore     float64            `json:"complexity_score"`
	OverallScore        float64            `json:"overall_score"`
	CoverageImprovement float64            `json:"coverage_improvement"` // percent
	WeeklyCostDelta     float64            `json:"weekly_cost_delta"`
	ServiceLevelDelta   float64            `json:"service_level_delta"`
	HeadcountNeeded     int                `json:"headcount_needed"`
	HeadcountAvailable  int                `json:"headcount_available"`
	RiskTier            string             `json:"risk_tier"`
	ComplexityTier      string             `json:"complexity_tier"`
	LaborLawOK          bool               `json:"labor_law_ok"`
	UnionOK             bool               `json:"union_ok"`
	ContractOK          bool               `json:"contract_ok"`
	BusinessRuleOK      bool               `json:"business_rule_ok"`
	Details             []SuggestionDetail `json:"details,omitempty"`
}

// SuggestionDetail is the concrete per-employee shift delta implied by a suggestion.
type SuggestionDetail struct {
	DetailID        int64      `json:"detail_id"`
	SuggestionID    string     `json:"suggestion_id"`
	EmployeeID      int64      `json:"employee_id"`
	EmployeeName    string     `json:"employee_name,omitempty"`
	ChangeType      string     `json:"change_type"`
	CurrentStart    *time.Time `json:"current_start,omitempty"`
	CurrentEnd      *time.Time `json:"current_end,omitempty"`
	ProposedStart   *time.Time `json:"proposed_start,omitempty"`
	ProposedEnd     *time.Time `json:"proposed_end,omitempty"`
	OvertimeDelta   float64    `json:"overtime_delta"`
	CostDelta       float64    `json:"cost_delta"`
	CoverageDelta   int        `json:"coverage_delta"`
	PreferenceScore float64    `json:"preference_score"`
}

// Constraint is one validator rule with its numeric parameters and effective range.
type Constraint struct {
	ConstraintID       int64      `json:"constraint_id"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	Priority           string     `json:"priority"`
	Scope              string     `json:"scope"`
	MaxHoursPerDay     float64    `json:"max_hours_per_day,omitempty"`
	MaxHoursPerWeek    float64    `json:"max_hours_per_week,omitempty"`
	MinRestHours       float64    `json:"min_rest_hours,omitempty"`
	MaxConsecutiveDays int        `json:"max_consecutive_days,omitempty"`
	MinOperators       int        `json:"min_operators,omitempty"`
	EffectiveFrom      *time.Time `json:"effective_from,omitempty"`
	EffectiveTo        *time.Time `json:"effective_to,omitempty"`
}

// Employee is a roster member with availability, skills, and shift preference.
type Employee struct {
	EmployeeID     int64    `json:"employee_id"`
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Skills         []string `json:"skills,omitempty"`
	HourlyRate     float64  `json:"hourly_rate"`
	MaxWeeklyHours float64  `json:"max_weekly_hours"`
	AvailableFrom  int      `json:"available_from"`  // hour of day, inclusive
	AvailableUntil int      `json:"available_until"` // hour of day, exclusive
	Preference     string   `json:"preference,omitempty"`
}

// CreateRunRequest is the POST /runs body.
type CreateRunRequest struct {
	Name        string    `json:"name"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Weights     Weights   `json:"weights"`
}
