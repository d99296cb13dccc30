package models

// Optimization run statuses used throughout the codebase.
const (
	RunStatusDraft      = "draft"
	RunStatusAnalyzing  = "analyzing"
	RunStatusGenerating = "generating"
	RunStatusValidating = "validating"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
)

// Pipeline stage names, in execution order.
const (
	StageAnalyze  = "analyze"
	StageDetect   = "detect"
	StageGenerate = "generate"
	StageValidate = "validate"
	StageRank     = "rank"
)

// Per-stage statuses.
const (
	StageStatusPending    = "pending"
	StageStatusInProgress = "in_progress"
	StageStatusCompleted  = "completed"
	StageStatusFailed     = "failed"
	StageStatusCancelled  = "cancelled"
)

// Coverage severity tiers, from worst to best.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityNone     = "none"
)

// Constraint categories.
const (
	ConstraintLaborLaw     = "labor_law"
	ConstraintUnion        = "union_agreement"
	ConstraintContract     = "employee_contract"
	ConstraintBusinessRule = "business_rule"
)

// Constraint priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Suggestion detail change types.
const (
	ChangeAdd    = "add"
	ChangeRemove = "remove"
	ChangeModify = "modify"
	ChangeMove   = "move"
	ChangeSplit  = "split"
)

// Risk tiers for a suggestion.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Implementation complexity tiers for a suggestion.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultRunListLimit        = 200
	DefaultSSEChannelBuffer    = 256
	DefaultIntervalMinutes     = 15
	DefaultMaxCandidates       = 3
	DefaultSearchBudgetSec     = 30
)
