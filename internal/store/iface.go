package store

import (
	"context"
	"time"
)

// Store is the persistence interface for runs, stage records, pipeline output,
// and the catalogs (constraints, roster, forecast) that feed the engine.
// Implementations: the SQLite store in this package and *postgres.Store.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// ClaimRun transitions a run from one status to another only if it is
	// still in the expected status; returns false when another worker won.
	ClaimRun(ctx context.Context, runID, fromStatus, toStatus string) (bool, error)
	NextPendingRun(ctx context.Context) (*Run, error)
	SetRunStatus(ctx context.Context, runID, status string) error
	FinishRun(ctx context.Context, runID, status string) error
	SetRunCounts(ctx context.Context, runID string, generated, valid int) error
	RequestCancel(ctx context.Context, runID string) error
	CancelRequested(ctx context.Context, runID string) (bool, error)

	// Stage runs
	CreateStageRuns(ctx context.Context, runID string, stages []StageRun) error
	ListStageRuns(ctx context.Context, runID string) ([]StageRun, error)
	StartStageRun(ctx context.Context, runID, stage string) error
	SetStageProgress(ctx context.Context, runID, stage string, progress int) error
	CompleteStageRun(ctx context.Context, runID, stage, result string) error
	FailStageRun(ctx context.Context, runID, stage, errMsg string) error
	CancelStageRun(ctx context.Context, runID, stage string) error

	// Coverage intervals and patterns
	InsertCoverageIntervals(ctx context.Context, runID string, intervals []CoverageInterval) error
	ListCoverageIntervals(ctx context.Context, runID string) ([]CoverageInterval, error)
	LabelIntervalsByHour(ctx context.Context, runID string, hourOfDay int, label string, recurring bool) error
	InsertGapPatterns(ctx context.Context, runID string, patterns []GapPattern) error
	ListGapPatterns(ctx context.Context, runID string) ([]GapPattern, error)

	// Suggestions
	InsertSuggestion(ctx context.Context, s Suggestion, details []SuggestionDetail) error
	ListSuggestions(ctx context.Context, runID string, onlyCompliant bool) ([]Suggestion, error)
	ListSuggestionDetails(ctx context.Context, suggestionID string) ([]SuggestionDetail, error)
	SetSuggestionCompliance(ctx context.Context, suggestionID string, laborLaw, union, contract, businessRule bool) error
	SetSuggestionRank(ctx context.Context, suggestionID string, rank int, overall float64) error

	// Constraint catalog
	UpsertConstraint(ctx context.Context, c Constraint) error
	ListConstraints(ctx context.Context, activeAt time.Time) ([]Constraint, error)

	// Roster and forecast
	UpsertEmployee(ctx context.Context, e Employee) (int64, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	InsertShift(ctx context.Context, s Shift) error
	ListShifts(ctx context.Context, from, to time.Time) ([]Shift, error)
	ReplaceDemand(ctx context.Context, rows []DemandInterval) error
	ListDemand(ctx context.Context, from, to time.Time) ([]DemandInterval, error)

	// Lifecycle
	Close() error
}
