package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/optishift/optishift/internal/store"
)

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

func timePtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func joinList(parts []string) string {
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// --- Runs ---

func (s *Store) CreateRun(ctx context.Context, r store.Run) error {
	now := time.Now().Unix()
	_, err := s.Pool.Exec(ctx, `
INSERT INTO optimization_runs(
  run_id, name, window_start, window_end,
  weight_coverage, weight_cost, weight_service, weight_complexity,
  status, created_at, updated_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.RunID, r.Name, r.WindowStart.Unix(), r.WindowEnd.Unix(),
		r.Weights.Coverage, r.Weights.Cost, r.Weights.ServiceLevel, r.Weights.Complexity,
		r.Status, now, now)
	return err
}

const runColumns = `run_id, name, window_start, window_end,
  weight_coverage, weight_cost, weight_service, weight_complexity,
  status, cancel_requested, started_at, finished_at,
  generated_count, valid_count, created_at, updated_at`

func scanRun(row pgx.Row) (store.Run, error) {
	var (
		r                      store.Run
		windowStart, windowEnd int64
		startedAt, finishedAt  *int64
		createdAt, updatedAt   int64
	)
	err := row.Scan(&r.RunID, &r.Name, &windowStart, &windowEnd,
		&r.Weights.Coverage, &r.Weights.Cost, &r.Weights.ServiceLevel, &r.Weights.Complexity,
		&r.Status, &r.CancelRequested, &startedAt, &finishedAt,
		&r.GeneratedCount, &r.ValidCount, &createdAt, &updatedAt)
	if err != nil {
		return store.Run{}, err
	}
	r.WindowStart = time.Unix(windowStart, 0).UTC()
	r.WindowEnd = time.Unix(windowEnd, 0).UTC()
	r.StartedAt = timePtr(startedAt)
	r.FinishedAt = timePtr(finishedAt)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return r, nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	r, err := scanRun(s.Pool.QueryRow(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE run_id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run not found: %s", runID)
	}
	return r, err
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+runColumns+` FROM optimization_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ClaimRun(ctx context.Context, runID, fromStatus, toStatus string) (bool, error) {
	now := time.Now().Unix()
	tag, err := s.Pool.Exec(ctx, `
UPDATE optimization_runs
SET status = $1, started_at = COALESCE(started_at, $2), updated_at = $3
WHERE run_id = $4 AND status = $5`,
		toStatus, now, now, runID, fromStatus)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) NextPendingRun(ctx context.Context) (*store.Run, error) {
	r, err := scanRun(s.Pool.QueryRow(ctx, `
SELECT `+runColumns+` FROM optimization_runs
WHERE status = 'draft' AND cancel_requested = FALSE
ORDER BY created_at ASC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE optimization_runs SET status = $1, updated_at = $2 WHERE run_id = $3`,
		status, time.Now().Unix(), runID)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	now := time.Now().Unix()
	_, err := s.Pool.Exec(ctx, `
UPDATE optimization_runs SET status = $1, finished_at = $2, updated_at = $3 WHERE run_id = $4`,
		status, now, now, runID)
	return err
}

func (s *Store) SetRunCounts(ctx context.Context, runID string, generated, valid int) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE optimization_runs SET generated_count = $1, valid_count = $2, updated_at = $3 WHERE run_id = $4`,
		generated, valid, time.Now().Unix(), runID)
	return err
}

func (s *Store) RequestCancel(ctx context.Context, runID string) error {
	now := time.Now().Unix()
	tag, err := s.Pool.Exec(ctx, `
UPDATE optimization_runs SET status = 'cancelled', cancel_requested = TRUE, finished_at = $1, updated_at = $2
WHERE run_id = $3 AND status = 'draft'`, now, now, runID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	tag, err = s.Pool.Exec(ctx, `
UPDATE optimization_runs SET cancel_requested = TRUE, updated_at = $1
WHERE run_id = $2 AND status NOT IN ('completed', 'failed', 'cancelled')`, now, runID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not cancellable: %s", runID)
	}
	return nil
}

func (s *Store) CancelRequested(ctx context.Context, runID string) (bool, error) {
	var v bool
	err := s.Pool.QueryRow(ctx, `SELECT cancel_requested FROM optimization_runs WHERE run_id = $1`, runID).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("run not found: %s", runID)
	}
	return v, err
}

// --- Stage runs ---

func (s *Store) CreateStageRuns(ctx context.Context, runID string, stages []store.StageRun) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, st := range stages {
		if _, err := tx.Exec(ctx, `
INSERT INTO stage_runs(run_id, stage, order_index, status, depends_on)
VALUES($1, $2, $3, $4, $5)`,
			runID, st.Stage, st.OrderIndex, st.Status, joinList(st.DependsOn)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListStageRuns(ctx context.Context, runID string) ([]store.StageRun, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT run_id, stage, order_index, status, started_at, finished_at, progress, result, error, depends_on
FROM stage_runs WHERE run_id = $1 ORDER BY order_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.StageRun
	for rows.Next() {
		var (
			st                    store.StageRun
			startedAt, finishedAt *int64
			dependsOn             string
		)
		if err := rows.Scan(&st.RunID, &st.Stage, &st.OrderIndex, &st.Status,
			&startedAt, &finishedAt, &st.Progress, &st.Result, &st.Error, &dependsOn); err != nil {
			return nil, err
		}
		st.StartedAt = timePtr(startedAt)
		st.FinishedAt = timePtr(finishedAt)
		st.DependsOn = splitList(dependsOn)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) StartStageRun(ctx context.Context, runID, stage string) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE stage_runs SET status = 'in_progress', started_at = $1, progress = 0
WHERE run_id = $2 AND stage = $3`, time.Now().Unix(), runID, stage)
	return err
}

func (s *Store) SetStageProgress(ctx context.Context, runID, stage string, progress int) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE stage_runs SET progress = $1 WHERE run_id = $2 AND stage = $3`, progress, runID, stage)
	return err
}

func (s *Store) CompleteStageRun(ctx context.Context, runID, stage, result string) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE stage_runs SET status = 'completed', finished_at = $1, progress = 100, result = $2
WHERE run_id = $3 AND stage = $4`, time.Now().Unix(), result, runID, stage)
	return err
}

func (s *Store) FailStageRun(ctx context.Context, runID, stage, errMsg string) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE stage_runs SET status = 'failed', finished_at = $1, error = $2
WHERE run_id = $3 AND stage = $4`, time.Now().Unix(), errMsg, runID, stage)
	return err
}

func (s *Store) CancelStageRun(ctx context.Context, runID, stage string) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE stage_runs SET status = 'cancelled', finished_at = $1
WHERE run_id = $2 AND stage = $3`, time.Now().Unix(), runID, stage)
	return err
}

// --- Coverage intervals and patterns ---

func (s *Store) InsertCoverageIntervals(ctx context.Context, runID string, intervals []store.CoverageInterval) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, iv := range intervals {
		if _, err := tx.Exec(ctx, `
INSERT INTO coverage_intervals(run_id, starts_at, required, scheduled, gap, ratio, severity, pattern_label, recurring, service_level)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, iv.StartsAt.Unix(), iv.Required, iv.Scheduled,
			iv.Gap, iv.Ratio, iv.Severity, iv.PatternLabel, iv.Recurring, iv.ServiceLevel); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListCoverageIntervals(ctx context.Context, runID string) ([]store.CoverageInterval, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT interval_id, run_id, starts_at, required, scheduled, gap, ratio, severity, pattern_label, recurring, service_level
FROM coverage_intervals WHERE run_id = $1 ORDER BY starts_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.CoverageInterval
	for rows.Next() {
		var (
			iv       store.CoverageInterval
			startsAt int64
		)
		if err := rows.Scan(&iv.IntervalID, &iv.RunID, &startsAt, &iv.Required, &iv.Scheduled,
			&iv.Gap, &iv.Ratio, &iv.Severity, &iv.PatternLabel, &iv.Recurring, &iv.ServiceLevel); err != nil {
			return nil, err
		}
		iv.StartsAt = time.Unix(startsAt, 0).UTC()
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Store) LabelIntervalsByHour(ctx context.Context, runID string, hourOfDay int, label string, recurring bool) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE coverage_intervals SET pattern_label = $1, recurring = $2
WHERE run_id = $3 AND gap > 0 AND ((starts_at % 86400) / 3600) = $4`,
		label, recurring, runID, hourOfDay)
	return err
}

func (s *Store) InsertGapPatterns(ctx context.Context, runID string, patterns []store.GapPattern) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, p := range patterns {
		if _, err := tx.Exec(ctx, `
INSERT INTO gap_patterns(run_id, label, hour_of_day, average_gap, interval_count, dominant_severity)
VALUES($1, $2, $3, $4, $5, $6)`,
			runID, p.Label, p.HourOfDay, p.AverageGap, p.IntervalCount, p.DominantSeverity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListGapPatterns(ctx context.Context, runID string) ([]store.GapPattern, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT pattern_id, run_id, label, hour_of_day, average_gap, interval_count, dominant_severity
FROM gap_patterns WHERE run_id = $1 ORDER BY average_gap DESC, hour_of_day ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.GapPattern
	for rows.Next() {
		var p store.GapPattern
		if err := rows.Scan(&p.PatternID, &p.RunID, &p.Label, &p.HourOfDay,
			&p.AverageGap, &p.IntervalCount, &p.DominantSeverity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Suggestions ---

func (s *Store) InsertSuggestion(ctx context.Context, sg store.Suggestion, details []store.SuggestionDetail) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
INSERT INTO schedule_suggestions(
  suggestion_id, run_id, pattern_label, rank, name, description,
  coverage_score, cost_score, service_score, complexity_score, overall_score,
  coverage_improvement, weekly_cost_delta, service_level_delta,
  headcount_needed, headcount_available, risk_tier, complexity_tier,
  labor_law_ok, union_ok, contract_ok, business_rule_ok, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		sg.SuggestionID, sg.RunID, sg.PatternLabel, sg.Rank, sg.Name, sg.Description,
		sg.CoverageScore, sg.CostScore, sg.ServiceScore, sg.ComplexityScore, sg.OverallScore,
		sg.CoverageImprovement, sg.WeeklyCostDelta, sg.ServiceLevelDelta,
		sg.HeadcountNeeded, sg.HeadcountAvailable, sg.RiskTier, sg.ComplexityTier,
		sg.LaborLawOK, sg.UnionOK, sg.ContractOK, sg.BusinessRuleOK, time.Now().Unix()); err != nil {
		return err
	}
	for _, d := range details {
		if _, err := tx.Exec(ctx, `
INSERT INTO suggestion_details(
  suggestion_id, employee_id, employee_name, change_type,
  current_start, current_end, proposed_start, proposed_end,
  overtime_delta, cost_delta, coverage_delta, preference_score)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			sg.SuggestionID, d.EmployeeID, d.EmployeeName, d.ChangeType,
			unixPtr(d.CurrentStart), unixPtr(d.CurrentEnd), unixPtr(d.ProposedStart), unixPtr(d.ProposedEnd),
			d.OvertimeDelta, d.CostDelta, d.CoverageDelta, d.PreferenceScore); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const suggestionColumns = `suggestion_id, run_id, pattern_label, rank, name, description,
  coverage_score, cost_score, service_score, complexity_score, overall_score,
  coverage_improvement, weekly_cost_delta, service_level_delta,
  headcount_needed, headcount_available, risk_tier, complexity_tier,
  labor_law_ok, union_ok, contract_ok, business_rule_ok, created_at`

func (s *Store) ListSuggestions(ctx context.Context, runID string, onlyCompliant bool) ([]store.Suggestion, error) {
	q := `SELECT ` + suggestionColumns + ` FROM schedule_suggestions WHERE run_id = $1`
	if onlyCompliant {
		q += ` AND labor_law_ok AND union_ok AND contract_ok AND business_rule_ok`
	}
	q += ` ORDER BY CASE WHEN rank > 0 THEN 0 ELSE 1 END, rank ASC, overall_score DESC`
	rows, err := s.Pool.Query(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Suggestion
	for rows.Next() {
		var (
			sg        store.Suggestion
			createdAt int64
		)
		if err := rows.Scan(&sg.SuggestionID, &sg.RunID, &sg.PatternLabel, &sg.Rank, &sg.Name, &sg.Description,
			&sg.CoverageScore, &sg.CostScore, &sg.ServiceScore, &sg.ComplexityScore, &sg.OverallScore,
			&sg.CoverageImprovement, &sg.WeeklyCostDelta, &sg.ServiceLevelDelta,
			&sg.HeadcountNeeded, &sg.HeadcountAvailable, &sg.RiskTier, &sg.ComplexityTier,
			&sg.LaborLawOK, &sg.UnionOK, &sg.ContractOK, &sg.BusinessRuleOK, &createdAt); err != nil {
			return nil, err
		}
		sg.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *Store) ListSuggestionDetails(ctx context.Context, suggestionID string) ([]store.SuggestionDetail, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT detail_id, suggestion_id, employee_id, employee_name, change_type,
  current_start, current_end, proposed_start, proposed_end,
  overtime_delta, cost_delta, coverage_delta, preference_score
FROM suggestion_details WHERE suggestion_id = $1 ORDER BY detail_id ASC`, suggestionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.SuggestionDetail
	for rows.Next() {
		var (
			d                                    store.SuggestionDetail
			curStart, curEnd, propStart, propEnd *int64
		)
		if err := rows.Scan(&d.DetailID, &d.SuggestionID, &d.EmployeeID, &d.EmployeeName, &d.ChangeType,
			&curStart, &curEnd, &propStart, &propEnd,
			&d.OvertimeDelta, &d.CostDelta, &d.CoverageDelta, &d.PreferenceScore); err != nil {
			return nil, err
		}
		d.CurrentStart = timePtr(curStart)
		d.CurrentEnd = timePtr(curEnd)
		d.ProposedStart = timePtr(propStart)
		d.ProposedEnd = timePtr(propEnd)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SetSuggestionCompliance(ctx context.Context, suggestionID string, laborLaw, union, contract, businessRule bool) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE schedule_suggestions SET labor_law_ok = $1, union_ok = $2, contract_ok = $3, business_rule_ok = $4
WHERE suggestion_id = $5`, laborLaw, union, contract, businessRule, suggestionID)
	return err
}

func (s *Store) SetSuggestionRank(ctx context.Context, suggestionID string, rank int, overall float64) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE schedule_suggestions SET rank = $1, overall_score = $2 WHERE suggestion_id = $3`,
		rank, overall, suggestionID)
	return err
}

// --- Constraint catalog ---

func (s *Store) UpsertConstraint(ctx context.Context, c store.Constraint) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO constraints(name, type, priority, scope, max_hours_per_day, max_hours_per_week,
  min_rest_hours, max_consecutive_days, min_operators, effective_from, effective_to)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT(name) DO UPDATE SET
  type = excluded.type, priority = excluded.priority, scope = excluded.scope,
  max_hours_per_day = excluded.max_hours_per_day, max_hours_per_week = excluded.max_hours_per_week,
  min_rest_hours = excluded.min_rest_hours, max_consecutive_days = excluded.max_consecutive_days,
  min_operators = excluded.min_operators, effective_from = excluded.effective_from,
  effective_to = excluded.effective_to`,
		c.Name, c.Type, c.Priority, c.Scope, c.MaxHoursPerDay, c.MaxHoursPerWeek,
		c.MinRestHours, c.MaxConsecutiveDays, c.MinOperators, unixPtr(c.EffectiveFrom), unixPtr(c.EffectiveTo))
	return err
}

func (s *Store) ListConstraints(ctx context.Context, activeAt time.Time) ([]store.Constraint, error) {
	at := activeAt.Unix()
	rows, err := s.Pool.Query(ctx, `
SELECT constraint_id, name, type, priority, scope, max_hours_per_day, max_hours_per_week,
  min_rest_hours, max_consecutive_days, min_operators, effective_from, effective_to
FROM constraints
WHERE (effective_from IS NULL OR effective_from <= $1)
  AND (effective_to IS NULL OR effective_to > $2)
ORDER BY constraint_id ASC`, at, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Constraint
	for rows.Next() {
		var (
			c        store.Constraint
			from, to *int64
		)
		if err := rows.Scan(&c.ConstraintID, &c.Name, &c.Type, &c.Priority, &c.Scope,
			&c.MaxHoursPerDay, &c.MaxHoursPerWeek, &c.MinRestHours,
			&c.MaxConsecutiveDays, &c.MinOperators, &from, &to); err != nil {
			return nil, err
		}
		c.EffectiveFrom = timePtr(from)
		c.EffectiveTo = timePtr(to)
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Roster and forecast ---

func (s *Store) UpsertEmployee(ctx context.Context, e store.Employee) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `
INSERT INTO employees(name, role, skills, hourly_rate, max_weekly_hours, available_from, available_until, preference, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT(name) DO UPDATE SET
  role = excluded.role, skills = excluded.skills, hourly_rate = excluded.hourly_rate,
  max_weekly_hours = excluded.max_weekly_hours, available_from = excluded.available_from,
  available_until = excluded.available_until, preference = excluded.preference
RETURNING employee_id`,
		e.Name, e.Role, joinList(e.Skills), e.HourlyRate, e.MaxWeeklyHours,
		e.AvailableFrom, e.AvailableUntil, e.Preference, time.Now().Unix()).Scan(&id)
	return id, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT employee_id, name, role, skills, hourly_rate, max_weekly_hours, available_from, available_until, preference, created_at
FROM employees ORDER BY employee_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Employee
	for rows.Next() {
		var (
			e         store.Employee
			skills    string
			createdAt int64
		)
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Role, &skills, &e.HourlyRate,
			&e.MaxWeeklyHours, &e.AvailableFrom, &e.AvailableUntil, &e.Preference, &createdAt); err != nil {
			return nil, err
		}
		e.Skills = splitList(skills)
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) InsertShift(ctx context.Context, sh store.Shift) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO shifts(employee_id, starts_at, ends_at) VALUES($1, $2, $3)`,
		sh.EmployeeID, sh.StartsAt.Unix(), sh.EndsAt.Unix())
	return err
}

func (s *Store) ListShifts(ctx context.Context, from, to time.Time) ([]store.Shift, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT shift_id, employee_id, starts_at, ends_at FROM shifts
WHERE ends_at > $1 AND starts_at < $2 ORDER BY starts_at ASC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Shift
	for rows.Next() {
		var (
			sh               store.Shift
			startsAt, endsAt int64
		)
		if err := rows.Scan(&sh.ShiftID, &sh.EmployeeID, &startsAt, &endsAt); err != nil {
			return nil, err
		}
		sh.StartsAt = time.Unix(startsAt, 0).UTC()
		sh.EndsAt = time.Unix(endsAt, 0).UTC()
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceDemand(ctx context.Context, rows []store.DemandInterval) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, r := range rows {
		if _, err := tx.Exec(ctx, `
INSERT INTO demand_intervals(starts_at, required) VALUES($1, $2)
ON CONFLICT(starts_at) DO UPDATE SET required = excluded.required`,
			r.StartsAt.Unix(), r.Required); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListDemand(ctx context.Context, from, to time.Time) ([]store.DemandInterval, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT starts_at, required FROM demand_intervals
WHERE starts_at >= $1 AND starts_at < $2 ORDER BY starts_at ASC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.DemandInterval
	for rows.Next() {
		var (
			d        store.DemandInterval
			startsAt int64
		)
		if err := rows.Scan(&startsAt, &d.Required); err != nil {
			return nil, err
		}
		d.StartsAt = time.Unix(startsAt, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
