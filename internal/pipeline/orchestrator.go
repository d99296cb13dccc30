// Package pipeline owns the run lifecycle: it creates runs with their stage
// records and executes the five stages in order, recording transitions,
// progress, and results as it goes.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/optishift/optishift/internal/analyzer"
	"github.com/optishift/optishift/internal/feed"
	"github.com/optishift/optishift/internal/generator"
	otelx "github.com/optishift/optishift/internal/otel"
	"github.com/optishift/optishift/internal/pattern"
	"github.com/optishift/optishift/internal/ranker"
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/internal/validator"
	"github.com/optishift/optishift/pkg/models"
)

// ErrInvalidConfiguration covers bad run parameters: weights that do not sum
// to 100, or an empty window.
var ErrInvalidConfiguration = errors.New("invalid run configuration")

// ErrInputUnavailable covers unreachable demand or schedule feeds.
var ErrInputUnavailable = errors.New("input feed unavailable")

// Orchestrator creates runs and drives them through the pipeline. One
// orchestrator serves all runs; per-run state lives in the store.
type Orchestrator struct {
	Store   store.Store
	Feeds   feed.Bundle
	Width   time.Duration
	GenOpts generator.Options
	Publish func(event string, payload any) // optional SSE hook
	Log     *slog.Logger
}

// NewOrchestrator builds an orchestrator over a store with store-backed feeds
// and default options.
func NewOrchestrator(st store.Store) *Orchestrator {
	return &Orchestrator{
		Store: st,
		Feeds: feed.StoreFeeds(st),
	}
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.Default()
}

func (o *Orchestrator) publish(event string, payload any) {
	if o.Publish != nil {
		o.Publish(event, payload)
	}
}

func (o *Orchestrator) width() time.Duration {
	if o.Width > 0 {
		return o.Width
	}
	return analyzer.DefaultWidth
}

// stageRecords returns the five stage records for a new run, each depending on
// its predecessor.
func stageRecords(runID string) []store.StageRun {
	order := []string{
		models.StageAnalyze,
		models.StageDetect,
		models.StageGenerate,
		models.StageValidate,
		models.StageRank,
	}
	out := make([]store.StageRun, len(order))
	for i, name := range order {
		sr := store.StageRun{
			RunID:      runID,
			Stage:      name,
			OrderIndex: i,
			Status:     models.StageStatusPending,
		}
		if i > 0 {
			sr.DependsOn = []string{order[i-1]}
		}
		out[i] = sr
	}
	return out
}

// CreateRun validates the request and persists a draft run with its five
// pending stage records. The run does not execute until a worker claims it.
func (o *Orchestrator) CreateRun(ctx context.Context, req models.CreateRunRequest) (store.Run, error) {
	if req.Weights.Sum() != 100 {
		return store.Run{}, fmt.Errorf("%w: weights sum to %d, want 100", ErrInvalidConfiguration, req.Weights.Sum())
	}
	if !req.WindowStart.Before(req.WindowEnd) {
		return store.Run{}, fmt.Errorf("%w: window start must precede end", ErrInvalidConfiguration)
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("run %s", req.WindowStart.UTC().Format("2006-01-02"))
	}
	r := store.Run{
		RunID:       uuid.NewString(),
		Name:        name,
		WindowStart: req.WindowStart.UTC(),
		WindowEnd:   req.WindowEnd.UTC(),
		Weights: store.Weights{
			Coverage:     req.Weights.Coverage,
			Cost:         req.Weights.Cost,
			ServiceLevel: req.Weights.ServiceLevel,
			Complexity:   req.Weights.Complexity,
		},
		Status: models.RunStatusDraft,
	}
	if err := o.Store.CreateRun(ctx, r); err != nil {
		return store.Run{}, err
	}
	if err := o.Store.CreateStageRuns(ctx, r.RunID, stageRecords(r.RunID)); err != nil {
		return store.Run{}, err
	}
	o.log().Info("run created", "run_id", r.RunID, "window_start", r.WindowStart, "window_end", r.WindowEnd)
	o.publish("run.created", map[string]string{"run_id": r.RunID})
	return r, nil
}

// Execute claims a draft run and drives it to a terminal status. Returns nil
// when another worker won the claim. Stage failures mark the run failed;
// a cancellation request observed between units of work marks it cancelled,
// leaving not-yet-started stages pending.
func (o *Orchestrator) Execute(ctx context.Context, runID string) error {
	claimed, err := o.Store.ClaimRun(ctx, runID, models.RunStatusDraft, models.RunStatusAnalyzing)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	otelx.AddActiveRun()
	defer otelx.RemoveActiveRun()

	run, err := o.Store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	log := o.log().With("run_id", runID)
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusAnalyzing})

	// Stage 1: coverage analysis.
	intervals, err := o.runAnalyze(ctx, run)
	if err != nil {
		return o.failRun(ctx, runID, models.StageAnalyze, err)
	}
	if done, err := o.checkCancel(ctx, runID, log); done || err != nil {
		return err
	}

	// Stage 2: pattern detection.
	patterns, err := o.runDetect(ctx, run, intervals)
	if err != nil {
		return o.failRun(ctx, runID, models.StageDetect, err)
	}
	if done, err := o.checkCancel(ctx, runID, log); done || err != nil {
		return err
	}

	// Stage 3: variant generation.
	if err := o.Store.SetRunStatus(ctx, runID, models.RunStatusGenerating); err != nil {
		return err
	}
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusGenerating})
	candidates, genErr := o.runGenerate(ctx, run, patterns, intervals)
	if errors.Is(genErr, generator.ErrCancelled) {
		log.Info("run cancelled during generation")
		return o.cancelRun(ctx, runID)
	}
	if genErr != nil {
		return o.failRun(ctx, runID, models.StageGenerate, genErr)
	}
	if done, err := o.checkCancel(ctx, runID, log); done || err != nil {
		return err
	}

	// Stage 4: constraint validation.
	if err := o.Store.SetRunStatus(ctx, runID, models.RunStatusValidating); err != nil {
		return err
	}
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusValidating})
	validCount, err := o.runValidate(ctx, run, len(candidates))
	if err != nil {
		return o.failRun(ctx, runID, models.StageValidate, err)
	}
	if done, err := o.checkCancel(ctx, runID, log); done || err != nil {
		return err
	}

	// Stage 5: ranking.
	if err := o.runRank(ctx, run); err != nil {
		return o.failRun(ctx, runID, models.StageRank, err)
	}

	if err := o.Store.SetRunCounts(ctx, runID, len(candidates), validCount); err != nil {
		return err
	}
	if err := o.Store.FinishRun(ctx, runID, models.RunStatusCompleted); err != nil {
		return err
	}
	otelx.RecordRunFinished(ctx, models.RunStatusCompleted)
	log.Info("run completed", "generated", len(candidates), "valid", validCount)
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusCompleted})
	return nil
}

// Cancel requests cancellation. Draft runs are cancelled outright; executing
// runs are flagged and the orchestrator stops at the next check point.
func (o *Orchestrator) Cancel(ctx context.Context, runID string) error {
	if err := o.Store.RequestCancel(ctx, runID); err != nil {
		return err
	}
	o.publish("run.cancel_requested", map[string]string{"run_id": runID})
	return nil
}

// checkCancel is called between stages. When the flag is set the run goes to
// cancelled and remaining stages stay pending.
func (o *Orchestrator) checkCancel(ctx context.Context, runID string, log *slog.Logger) (bool, error) {
	flagged, err := o.Store.CancelRequested(ctx, runID)
	if err != nil {
		return false, err
	}
	if !flagged {
		return false, nil
	}
	log.Info("run cancelled between stages")
	return true, o.cancelRun(ctx, runID)
}

func (o *Orchestrator) cancelRun(ctx context.Context, runID string) error {
	if err := o.Store.FinishRun(ctx, runID, models.RunStatusCancelled); err != nil {
		return err
	}
	otelx.RecordRunFinished(ctx, models.RunStatusCancelled)
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusCancelled})
	return nil
}

func (o *Orchestrator) failRun(ctx context.Context, runID, stage string, cause error) error {
	o.log().Error("stage failed", "run_id", runID, "stage", stage, "err", cause)
	if err := o.Store.FailStageRun(ctx, runID, stage, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	if err := o.Store.FinishRun(ctx, runID, models.RunStatusFailed); err != nil {
		return errors.Join(cause, err)
	}
	otelx.RecordRunFinished(ctx, models.RunStatusFailed)
	o.publish("run.status", map[string]string{"run_id": runID, "status": models.RunStatusFailed})
	return cause
}

func (o *Orchestrator) startStage(ctx context.Context, runID, stage string) (time.Time, error) {
	if err := o.Store.StartStageRun(ctx, runID, stage); err != nil {
		return time.Time{}, err
	}
	o.publish("stage.started", map[string]string{"run_id": runID, "stage": stage})
	return time.Now(), nil
}

func (o *Orchestrator) completeStage(ctx context.Context, runID, stage string, started time.Time, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := o.Store.CompleteStageRun(ctx, runID, stage, string(payload)); err != nil {
		return err
	}
	otelx.RecordStage(ctx, stage, models.StageStatusCompleted, time.Since(started))
	o.publish("stage.completed", map[string]string{"run_id": runID, "stage": stage})
	return nil
}

func (o *Orchestrator) runAnalyze(ctx context.Context, run store.Run) ([]store.CoverageInterval, error) {
	started, err := o.startStage(ctx, run.RunID, models.StageAnalyze)
	if err != nil {
		return nil, err
	}
	a := analyzer.Analyzer{Width: o.width()}
	intervals, summary, err := a.Analyze(ctx, run.RunID, run.WindowStart, run.WindowEnd, o.Feeds.Demand, o.Feeds.Schedule)
	if err != nil {
		if !errors.Is(err, analyzer.ErrEmptyWindow) {
			err = fmt.Errorf("%w: %v", ErrInputUnavailable, err)
		}
		return nil, err
	}
	if err := o.Store.InsertCoverageIntervals(ctx, run.RunID, intervals); err != nil {
		return nil, err
	}
	return intervals, o.completeStage(ctx, run.RunID, models.StageAnalyze, started, summary)
}

func (o *Orchestrator) runDetect(ctx context.Context, run store.Run, intervals []store.CoverageInterval) ([]store.GapPattern, error) {
	started, err := o.startStage(ctx, run.RunID, models.StageDetect)
	if err != nil {
		return nil, err
	}
	patterns := pattern.Detect(intervals)
	for i := range patterns {
		patterns[i].RunID = run.RunID
		if err := o.Store.LabelIntervalsByHour(ctx, run.RunID, patterns[i].HourOfDay, patterns[i].Label, true); err != nil {
			return nil, err
		}
	}
	if err := o.Store.InsertGapPatterns(ctx, run.RunID, patterns); err != nil {
		return nil, err
	}
	result := map[string]int{"patterns": len(patterns)}
	return patterns, o.completeStage(ctx, run.RunID, models.StageDetect, started, result)
}

func (o *Orchestrator) runGenerate(ctx context.Context, run store.Run, patterns []store.GapPattern, intervals []store.CoverageInterval) ([]generator.Candidate, error) {
	started, err := o.startStage(ctx, run.RunID, models.StageGenerate)
	if err != nil {
		return nil, err
	}
	employees, shifts, err := o.Feeds.Roster.Roster(ctx, run.WindowStart, run.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: roster: %v", ErrInputUnavailable, err)
	}

	opts := o.GenOpts
	if opts.Width <= 0 {
		opts.Width = o.width()
	}
	gen := generator.Generator{Opts: opts}
	cancelled := func() bool {
		flagged, err := o.Store.CancelRequested(ctx, run.RunID)
		return err == nil && flagged
	}
	progress := func(done, total int) {
		if total > 0 {
			_ = o.Store.SetStageProgress(ctx, run.RunID, models.StageGenerate, done*100/total)
		}
	}
	candidates, genErr := gen.Generate(ctx, patterns, intervals, employees, shifts, cancelled, progress)

	// Budget expiry with candidates in hand still completes the stage.
	if errors.Is(genErr, context.DeadlineExceeded) && len(candidates) > 0 {
		o.log().Warn("generation budget expired, keeping partial results",
			"run_id", run.RunID, "candidates", len(candidates))
		genErr = nil
	}
	if errors.Is(genErr, generator.ErrCancelled) {
		if err := o.Store.CancelStageRun(ctx, run.RunID, models.StageGenerate); err != nil {
			return nil, err
		}
		return nil, genErr
	}
	if genErr != nil {
		return nil, genErr
	}

	for i := range candidates {
		candidates[i].Suggestion.SuggestionID = uuid.NewString()
		candidates[i].Suggestion.RunID = run.RunID
		for j := range candidates[i].Details {
			candidates[i].Details[j].SuggestionID = candidates[i].Suggestion.SuggestionID
		}
		if err := o.Store.InsertSuggestion(ctx, candidates[i].Suggestion, candidates[i].Details); err != nil {
			return nil, err
		}
		otelx.RecordCandidates(ctx, candidates[i].Suggestion.PatternLabel, 1)
	}
	result := map[string]int{"patterns": len(patterns), "candidates": len(candidates)}
	return candidates, o.completeStage(ctx, run.RunID, models.StageGenerate, started, result)
}

func (o *Orchestrator) runValidate(ctx context.Context, run store.Run, total int) (int, error) {
	started, err := o.startStage(ctx, run.RunID, models.StageValidate)
	if err != nil {
		return 0, err
	}
	constraints, err := o.Store.ListConstraints(ctx, run.WindowStart)
	if err != nil {
		return 0, err
	}
	employees, shifts, err := o.Feeds.Roster.Roster(ctx, run.WindowStart, run.WindowEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: roster: %v", ErrInputUnavailable, err)
	}
	v := &validator.Validator{
		Constraints: constraints,
		Employees:   employees,
		Shifts:      shifts,
		Width:       o.width(),
	}

	suggestions, err := o.Store.ListSuggestions(ctx, run.RunID, false)
	if err != nil {
		return 0, err
	}
	validCount := 0
	violationCount := 0
	for i, s := range suggestions {
		details, err := o.Store.ListSuggestionDetails(ctx, s.SuggestionID)
		if err != nil {
			return 0, err
		}
		res := v.Validate(generator.Candidate{Suggestion: s, Details: details})
		violationCount += len(res.Violations)
		otelx.RecordViolations(ctx, len(res.Violations))
		if res.Compliant {
			validCount++
		}
		sg := res.Candidate.Suggestion
		if err := o.Store.SetSuggestionCompliance(ctx, s.SuggestionID,
			sg.LaborLawOK, sg.UnionOK, sg.ContractOK, sg.BusinessRuleOK); err != nil {
			return 0, err
		}
		if len(suggestions) > 0 {
			_ = o.Store.SetStageProgress(ctx, run.RunID, models.StageValidate, (i+1)*100/len(suggestions))
		}
	}
	result := map[string]int{"checked": len(suggestions), "compliant": validCount, "violations": violationCount}
	return validCount, o.completeStage(ctx, run.RunID, models.StageValidate, started, result)
}

func (o *Orchestrator) runRank(ctx context.Context, run store.Run) error {
	started, err := o.startStage(ctx, run.RunID, models.StageRank)
	if err != nil {
		return err
	}
	suggestions, err := o.Store.ListSuggestions(ctx, run.RunID, false)
	if err != nil {
		return err
	}
	ranked := ranker.Rank(suggestions, run.Weights)
	rankedCount := 0
	for _, s := range ranked {
		if err := o.Store.SetSuggestionRank(ctx, s.SuggestionID, s.Rank, s.OverallScore); err != nil {
			return err
		}
		if s.Rank > 0 {
			rankedCount++
		}
	}
	result := map[string]int{"ranked": rankedCount}
	return o.completeStage(ctx, run.RunID, models.StageRank, started, result)
}

// Status assembles the run, its stage records, and overall progress.
func (o *Orchestrator) Status(ctx context.Context, runID string) (store.Run, []store.StageRun, int, error) {
	run, err := o.Store.GetRun(ctx, runID)
	if err != nil {
		return store.Run{}, nil, 0, err
	}
	stages, err := o.Store.ListStageRuns(ctx, runID)
	if err != nil {
		return store.Run{}, nil, 0, err
	}
	total := 0
	for _, sr := range stages {
		switch sr.Status {
		case models.StageStatusCompleted:
			total += 100
		case models.StageStatusInProgress:
			total += sr.Progress
		}
	}
	progress := 0
	if len(stages) > 0 {
		progress = total / len(stages)
	}
	return run, stages, progress, nil
}
