package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
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

func (s *sqliteStore) CreateRun(ctx context.Context, r Run) error {
	now := time.Now().Unix()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO optimization_runs(
  run_id, name, window_start, window_end,
  weight_coverage, weight_cost, weight_service, weight_complexity,
  status, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Name, r.WindowStart.Unix(), r.WindowEnd.Unix(),
		r.Weights.Coverage, r.Weights.Cost, r.Weights.ServiceLevel, r.Weights.Complexity,
		r.Status, now, now)
	return err
}

const runColumns = `run_id, name, window_start, window_end,
  weight_coverage, weight_cost, weight_service, weight_complexity,
  status, cancel_requested, started_at, finished_at,
  generated_count, valid_count, created_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		r                    Run
		windowStart, windowEnd int64
		cancelRequested      int
		startedAt, finishedAt sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&r.RunID, &r.Name, &windowStart, &windowEnd,
		&r.Weights.Coverage, &r.Weights.Cost, &r.Weights.ServiceLevel, &r.Weights.Complexity,
		&r.Status, &cancelRequested, &startedAt, &finishedAt,
		&r.GeneratedCount, &r.ValidCount, &createdAt, &updatedAt)
	if err != nil {
		return Run{}, err
	}
	r.WindowStart = time.Unix(windowStart, 0).UTC()
	r.WindowEnd = time.Unix(windowEnd, 0).UTC()
	r.CancelRequested = cancelRequested != 0
	r.StartedAt = timePtr(startedAt)
	r.FinishedAt = timePtr(finishedAt)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return r, nil
}

func (s *sqliteStore) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run not found: %s", runID)
	}
	return r, err
}

func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+runColumns+` FROM optimization_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ClaimRun(ctx context.Context, runID, fromStatus, toStatus string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE optimization_runs
SET status = ?, started_at = COALESCE(started_at, ?), updated_at = ?
WHERE run_id = ? AND status = ?`,
		toStatus, time.Now().Unix(), time.Now().Unix(), runID, fromStatus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *sqliteStore) NextPendingRun(ctx context.Context) (*Run, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+runColumns+` FROM optimization_runs
WHERE status = 'draft' AND cancel_requested = 0
ORDER BY created_at ASC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *sqliteStore) SetRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE optimization_runs SET status = ?, updated_at = ? WHERE run_id = ?`,
		status, time.Now().Unix(), runID)
	return err
}

func (s *sqliteStore) FinishRun(ctx context.Context, runID, status string) error {
	now := time.Now().Unix()
	_, err := s.DB.ExecContext(ctx, `
UPDATE optimization_runs SET status = ?, finished_at = ?, updated_at = ? WHERE run_id = ?`,
		status, now, now, runID)
	return err
}

func (s *sqliteStore) SetRunCounts(ctx context.Context, runID string, generated, valid int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE optimization_runs SET generated_count = ?, valid_count = ?, updated_at = ? WHERE run_id = ?`,
		generated, valid, time.Now().Unix(), runID)
	return err
}

func (s *sqliteStore) RequestCancel(ctx context.Context, runID string) error {
	now := time.Now().Unix()
	// Draft runs are cancelled outright; in-flight runs get the flag and the
	// orchestrator honors it at the next unit-of-work boundary.
	res, err := s.DB.ExecContext(ctx, `
UPDATE optimization_runs SET status = 'cancelled', cancel_requested = 1, finished_at = ?, updated_at = ?
WHERE run_id = ? AND status = 'draft'`, now, now, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	res, err = s.DB.ExecContext(ctx, `
UPDATE optimization_runs SET cancel_requested = 1, updated_at = ?
WHERE run_id = ? AND status NOT IN ('completed', 'failed', 'cancelled')`, now, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not cancellable: %s", runID)
	}
	return nil
}

func (s *sqliteStore) CancelRequested(ctx context.Context, runID string) (bool, error) {
	var v int
	err := s.DB.QueryRowContext(ctx, `SELECT cancel_requested FROM optimization_runs WHERE run_id = ?`, runID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("run not found: %s", runID)
	}
	return v != 0, err
}

// --- Stage runs ---

func (s *sqliteStore) CreateStageRuns(ctx context.Context, runID string, stages []StageRun) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, st := range stages {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO stage_runs(run_id, stage, order_index, status, depends_on)
VALUES(?, ?, ?, ?, ?)`,
			runID, st.Stage, st.OrderIndex, st.Status, joinList(st.DependsOn)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListStageRuns(ctx context.Context, runID string) ([]StageRun, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT run_id, stage, order_index, status, started_at, finished_at, progress, result, error, depends_on
FROM stage_runs WHERE run_id = ? ORDER BY order_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []StageRun
	for rows.Next() {
		var (
			st                   StageRun
			startedAt, finishedAt sql.NullInt64
			dependsOn            string
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

func (s *sqliteStore) StartStageRun(ctx context.Context, runID, stage string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE stage_runs SET status = 'in_progress', started_at = ?, progress = 0
WHERE run_id = ? AND stage = ?`, time.Now().Unix(), runID, stage)
	return err
}

func (s *sqliteStore) SetStageProgress(ctx context.Context, runID, stage string, progress int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE stage_runs SET progress = ? WHERE run_id = ? AND stage = ?`, progress, runID, stage)
	return err
}

func (s *sqliteStore) CompleteStageRun(ctx context.Context, runID, stage, result string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE stage_runs SET status = 'completed', finished_at = ?, progress = 100, result = ?
WHERE run_id = ? AND stage = ?`, time.Now().Unix(), result, runID, stage)
	return err
}

func (s *sqliteStore) FailStageRun(ctx context.Context, runID, stage, errMsg string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE stage_runs SET status = 'failed', finished_at = ?, error = ?
WHERE run_id = ? AND stage = ?`, time.Now().Unix(), errMsg, runID, stage)
	return err
}

func (s *sqliteStore) CancelStageRun(ctx context.Context, runID, stage string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE stage_runs SET status = 'cancelled', finished_at = ?
WHERE run_id = ? AND stage = ?`, time.Now().Unix(), runID, stage)
	return err
}

// --- Coverage intervals and patterns ---

func (s *sqliteStore) InsertCoverageIntervals(ctx context.Context, runID string, intervals []CoverageInterval) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO coverage_intervals(run_id, starts_at, required, scheduled, gap, ratio, severity, pattern_label, recurring, service_level)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, iv := range intervals {
		if _, err := stmt.ExecContext(ctx, runID, iv.StartsAt.Unix(), iv.Required, iv.Scheduled,
			iv.Gap, iv.Ratio, iv.Severity, iv.PatternLabel, boolInt(iv.Recurring), iv.ServiceLevel); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListCoverageIntervals(ctx context.Context, runID string) ([]CoverageInterval, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT interval_id, run_id, starts_at, required, scheduled, gap, ratio, severity, pattern_label, recurring, service_level
FROM coverage_intervals WHERE run_id = ? ORDER BY starts_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []CoverageInterval
	for rows.Next() {
		var (
			iv        CoverageInterval
			startsAt  int64
			recurring int
		)
		if err := rows.Scan(&iv.IntervalID, &iv.RunID, &startsAt, &iv.Required, &iv.Scheduled,
			&iv.Gap, &iv.Ratio, &iv.Severity, &iv.PatternLabel, &recurring, &iv.ServiceLevel); err != nil {
			return nil, err
		}
		iv.StartsAt = time.Unix(startsAt, 0).UTC()
		iv.Recurring = recurring != 0
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *sqliteStore) LabelIntervalsByHour(ctx context.Context, runID string, hourOfDay int, label string, recurring bool) error {
	// starts_at is a unix timestamp; hour-of-day in UTC is (ts % 86400) / 3600.
	_, err := s.DB.ExecContext(ctx, `
UPDATE coverage_intervals SET pattern_label = ?, recurring = ?
WHERE run_id = ? AND gap > 0 AND ((starts_at % 86400) / 3600) = ?`,
		label, boolInt(recurring), runID, hourOfDay)
	return err
}

func (s *sqliteStore) InsertGapPatterns(ctx context.Context, runID string, patterns []GapPattern) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range patterns {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO gap_patterns(run_id, label, hour_of_day, average_gap, interval_count, dominant_severity)
VALUES(?, ?, ?, ?, ?, ?)`,
			runID, p.Label, p.HourOfDay, p.AverageGap, p.IntervalCount, p.DominantSeverity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListGapPatterns(ctx context.Context, runID string) ([]GapPattern, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT pattern_id, run_id, label, hour_of_day, average_gap, interval_count, dominant_severity
FROM gap_patterns WHERE run_id = ? ORDER BY average_gap DESC, hour_of_day ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []GapPattern
	for rows.Next() {
		var p GapPattern
		if err := rows.Scan(&p.PatternID, &p.RunID, &p.Label, &p.HourOfDay,
			&p.AverageGap, &p.IntervalCount, &p.DominantSeverity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Suggestions ---

func (s *sqliteStore) InsertSuggestion(ctx context.Context, sg Suggestion, details []SuggestionDetail) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO schedule_suggestions(
  suggestion_id, run_id, pattern_label, rank, name, description,
  coverage_score, cost_score, service_score, complexity_score, overall_score,
  coverage_improvement, weekly_cost_delta, service_level_delta,
  headcount_needed, headcount_available, risk_tier, complexity_tier,
  labor_law_ok, union_ok, contract_ok, business_rule_ok, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.SuggestionID, sg.RunID, sg.PatternLabel, sg.Rank, sg.Name, sg.Description,
		sg.CoverageScore, sg.CostScore, sg.ServiceScore, sg.ComplexityScore, sg.OverallScore,
		sg.CoverageImprovement, sg.WeeklyCostDelta, sg.ServiceLevelDelta,
		sg.HeadcountNeeded, sg.HeadcountAvailable, sg.RiskTier, sg.ComplexityTier,
		boolInt(sg.LaborLawOK), boolInt(sg.UnionOK), boolInt(sg.ContractOK), boolInt(sg.BusinessRuleOK),
		time.Now().Unix()); err != nil {
		return err
	}
	for _, d := range details {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO suggestion_details(
  suggestion_id, employee_id, employee_name, change_type,
  current_start, current_end, proposed_start, proposed_end,
  overtime_delta, cost_delta, coverage_delta, preference_score)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sg.SuggestionID, d.EmployeeID, d.EmployeeName, d.ChangeType,
			unixPtr(d.CurrentStart), unixPtr(d.CurrentEnd), unixPtr(d.ProposedStart), unixPtr(d.ProposedEnd),
			d.OvertimeDelta, d.CostDelta, d.CoverageDelta, d.PreferenceScore); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const suggestionColumns = `suggestion_id, run_id, pattern_label, rank, name, description,
  coverage_score, cost_score, service_score, complexity_score, overall_score,
  coverage_improvement, weekly_cost_delta, service_level_delta,
  headcount_needed, headcount_available, risk_tier, complexity_tier,
  labor_law_ok, union_ok, contract_ok, business_rule_ok, created_at`

func (s *sqliteStore) ListSuggestions(ctx context.Context, runID string, onlyCompliant bool) ([]Suggestion, error) {
	q := `SELECT ` + suggestionColumns + ` FROM schedule_suggestions WHERE run_id = ?`
	if onlyCompliant {
		q += ` AND labor_law_ok = 1 AND union_ok = 1 AND contract_ok = 1 AND business_rule_ok = 1`
	}
	q += ` ORDER BY CASE WHEN rank > 0 THEN 0 ELSE 1 END, rank ASC, overall_score DESC`
	rows, err := s.DB.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Suggestion
	for rows.Next() {
		var (
			sg                             Suggestion
			labor, union, contract, biz int
			createdAt                      int64
		)
		if err := rows.Scan(&sg.SuggestionID, &sg.RunID, &sg.PatternLabel, &sg.Rank, &sg.Name, &sg.Description,
			&sg.CoverageScore, &sg.CostScore, &sg.ServiceScore, &sg.ComplexityScore, &sg.OverallScore,
			&sg.CoverageImprovement, &sg.WeeklyCostDelta, &sg.ServiceLevelDelta,
			&sg.HeadcountNeeded, &sg.HeadcountAvailable, &sg.RiskTier, &sg.ComplexityTier,
			&labor, &union, &contract, &biz, &createdAt); err != nil {
			return nil, err
		}
		sg.LaborLawOK = labor != 0
		sg.UnionOK = union != 0
		sg.ContractOK = contract != 0
		sg.BusinessRuleOK = biz != 0
		sg.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ListSuggestionDetails(ctx context.Context, suggestionID string) ([]SuggestionDetail, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT detail_id, suggestion_id, employee_id, employee_name, change_type,
  current_start, current_end, proposed_start, proposed_end,
  overtime_delta, cost_delta, coverage_delta, preference_score
FROM suggestion_details WHERE suggestion_id = ? ORDER BY detail_id ASC`, suggestionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SuggestionDetail
	for rows.Next() {
		var (
			d                                            SuggestionDetail
			curStart, curEnd, propStart, propEnd sql.NullInt64
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

func (s *sqliteStore) SetSuggestionCompliance(ctx context.Context, suggestionID string, laborLaw, union, contract, businessRule bool) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE schedule_suggestions SET labor_law_ok = ?, union_ok = ?, contract_ok = ?, business_rule_ok = ?
WHERE suggestion_id = ?`,
		boolInt(laborLaw), boolInt(union), boolInt(contract), boolInt(businessRule), suggestionID)
	return err
}

func (s *sqliteStore) SetSuggestionRank(ctx context.Context, suggestionID string, rank int, overall float64) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE schedule_suggestions SET rank = ?, overall_score = ? WHERE suggestion_id = ?`,
		rank, overall, suggestionID)
	return err
}

// --- Constraint catalog ---

func (s *sqliteStore) UpsertConstraint(ctx context.Context, c Constraint) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO constraints(name, type, priority, scope, max_hours_per_day, max_hours_per_week,
  min_rest_hours, max_consecutive_days, min_operators, effective_from, effective_to)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

func (s *sqliteStore) ListConstraints(ctx context.Context, activeAt time.Time) ([]Constraint, error) {
	at := activeAt.Unix()
	rows, err := s.DB.QueryContext(ctx, `
SELECT constraint_id, name, type, priority, scope, max_hours_per_day, max_hours_per_week,
  min_rest_hours, max_consecutive_days, min_operators, effective_from, effective_to
FROM constraints
WHERE (effective_from IS NULL OR effective_from <= ?)
  AND (effective_to IS NULL OR effective_to > ?)
ORDER BY constraint_id ASC`, at, at)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Constraint
	for rows.Next() {
		var (
			c        Constraint
			from, to sql.NullInt64
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

func (s *sqliteStore) UpsertEmployee(ctx context.Context, e Employee) (int64, error) {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO employees(name, role, skills, hourly_rate, max_weekly_hours, available_from, available_until, preference, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  role = excluded.role, skills = excluded.skills, hourly_rate = excluded.hourly_rate,
  max_weekly_hours = excluded.max_weekly_hours, available_from = excluded.available_from,
  available_until = excluded.available_until, preference = excluded.preference`,
		e.Name, e.Role, joinList(e.Skills), e.HourlyRate, e.MaxWeeklyHours,
		e.AvailableFrom, e.AvailableUntil, e.Preference, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.DB.QueryRowContext(ctx, `SELECT employee_id FROM employees WHERE name = ?`, e.Name).Scan(&id)
	return id, err
}

func (s *sqliteStore) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT employee_id, name, role, skills, hourly_rate, max_weekly_hours, available_from, available_until, preference, created_at
FROM employees ORDER BY employee_id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Employee
	for rows.Next() {
		var (
			e         Employee
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

func (s *sqliteStore) InsertShift(ctx context.Context, sh Shift) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO shifts(employee_id, starts_at, ends_at) VALUES(?, ?, ?)`,
		sh.EmployeeID, sh.StartsAt.Unix(), sh.EndsAt.Unix())
	return err
}

func (s *sqliteStore) ListShifts(ctx context.Context, from, to time.Time) ([]Shift, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT shift_id, employee_id, starts_at, ends_at FROM shifts
WHERE ends_at > ? AND starts_at < ? ORDER BY starts_at ASC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Shift
	for rows.Next() {
		var (
			sh               Shift
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

func (s *sqliteStore) ReplaceDemand(ctx context.Context, rows []DemandInterval) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO demand_intervals(starts_at, required) VALUES(?, ?)
ON CONFLICT(starts_at) DO UPDATE SET required = excluded.required`,
			r.StartsAt.Unix(), r.Required); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListDemand(ctx context.Context, from, to time.Time) ([]DemandInterval, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT starts_at, required FROM demand_intervals
WHERE starts_at >= ? AND starts_at < ? ORDER BY starts_at ASC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []DemandInterval
	for rows.Next() {
		var (
			d        DemandInterval
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
