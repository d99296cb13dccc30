package httpapi

import (
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// Converters between store rows and API payloads. The shapes are intentionally
// parallel; only the tags differ.

func runToAPI(r store.Run) models.Run {
	return models.Run{
		RunID:       r.RunID,
		Name:        r.Name,
		WindowStart: r.WindowStart,
		WindowEnd:   r.WindowEnd,
		Weights: models.Weights{
			Coverage:     r.Weights.Coverage,
			Cost:         r.Weights.Cost,
			ServiceLevel: r.Weights.ServiceLevel,
			Complexity:   r.Weights.Complexity,
		},
		Status:         r.Status,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		GeneratedCount: r.GeneratedCount,
		ValidCount:     r.ValidCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func stageToAPI(sr store.StageRun) models.StageRun {
	return models.StageRun{
		RunID:      sr.RunID,
		Stage:      sr.Stage,
		OrderIndex: sr.OrderIndex,
		Status:     sr.Status,
		StartedAt:  sr.StartedAt,
		FinishedAt: sr.FinishedAt,
		Progress:   sr.Progress,
		Result:     sr.Result,
		Error:      sr.Error,
		DependsOn:  sr.DependsOn,
	}
}

func intervalToAPI(iv store.CoverageInterval) models.CoverageInterval {
	return models.CoverageInterval{
		IntervalID:   iv.IntervalID,
		RunID:        iv.RunID,
		StartsAt:     iv.StartsAt,
		Required:     iv.Required,
		Scheduled:    iv.Scheduled,
		Gap:          iv.Gap,
		Ratio:        iv.Ratio,
		Severity:     iv.Severity,
		PatternLabel: iv.PatternLabel,
		Recurring:    iv.Recurring,
		ServiceLevel: iv.ServiceLevel,
	}
}

func patternToAPI(p store.GapPattern) models.GapPattern {
	return models.GapPattern{
		PatternID:        p.PatternID,
		RunID:            p.RunID,
		Label:            p.Label,
		HourOfDay:        p.HourOfDay,
		AverageGap:       p.AverageGap,
		IntervalCount:    p.IntervalCount,
		DominantSeverity: p.DominantSeverity,
	}
}

func suggestionToAPI(s store.Suggestion) models.Suggestion {
	return models.Suggestion{
		SuggestionID:        s.SuggestionID,
		RunID:               s.RunID,
		PatternLabel:        s.PatternLabel,
		Rank:                s.Rank,
		Name:                s.Name,
		Description:         s.Description,
		CoverageScore:       s.CoverageScore,
		CostScore:           s.CostScore,
		ServiceScore:        s.ServiceScore,
		ComplexityScore:     s.ComplexityScore,
		OverallScore:        s.OverallScore,
		CoverageImprovement: s.CoverageImprovement,
		WeeklyCostDelta:     s.WeeklyCostDelta,
		ServiceLevelDelta:   s.ServiceLevelDelta,
		HeadcountNeeded:     s.HeadcountNeeded,
		HeadcountAvailable:  s.HeadcountAvailable,
		RiskTier:            s.RiskTier,
		ComplexityTier:      s.ComplexityTier,
		LaborLawOK:          s.LaborLawOK,
		UnionOK:             s.UnionOK,
		ContractOK:          s.ContractOK,
		BusinessRuleOK:      s.BusinessRuleOK,
	}
}

func detailToAPI(d store.SuggestionDetail) models.SuggestionDetail {
	return models.SuggestionDetail{
		DetailID:        d.DetailID,
		SuggestionID:    d.SuggestionID,
		EmployeeID:      d.EmployeeID,
		EmployeeName:    d.EmployeeName,
		ChangeType:      d.ChangeType,
		CurrentStart:    d.CurrentStart,
		CurrentEnd:      d.CurrentEnd,
		ProposedStart:   d.ProposedStart,
		ProposedEnd:     d.ProposedEnd,
		OvertimeDelta:   d.OvertimeDelta,
		CostDelta:       d.CostDelta,
		CoverageDelta:   d.CoverageDelta,
		PreferenceScore: d.PreferenceScore,
	}
}

func constraintToAPI(c store.Constraint) models.Constraint {
	return models.Constraint{
		ConstraintID:       c.ConstraintID,
		Name:               c.Name,
		Type:               c.Type,
		Priority:           c.Priority,
		Scope:              c.Scope,
		MaxHoursPerDay:     c.MaxHoursPerDay,
		MaxHoursPerWeek:    c.MaxHoursPerWeek,
		MinRestHours:       c.MinRestHours,
		MaxConsecutiveDays: c.MaxConsecutiveDays,
		MinOperators:       c.MinOperators,
		EffectiveFrom:      c.EffectiveFrom,
		EffectiveTo:        c.EffectiveTo,
	}
}

func constraintFromAPI(c models.Constraint) store.Constraint {
	return store.Constraint{
		ConstraintID:       c.ConstraintID,
		Name:               c.Name,
		Type:               c.Type,
		Priority:           c.Priority,
		Scope:              c.Scope,
		MaxHoursPerDay:     c.MaxHoursPerDay,
		MaxHoursPerWeek:    c.MaxHoursPerWeek,
		MinRestHours:       c.MinRestHours,
		MaxConsecutiveDays: c.MaxConsecutiveDays,
		MinOperators:       c.MinOperators,
		EffectiveFrom:      c.EffectiveFrom,
		EffectiveTo:        c.EffectiveTo,
	}
}

func employeeToAPI(e store.Employee) models.Employee {
	return models.Employee{
		EmployeeID:     e.EmployeeID,
		Name:           e.Name,
		Role:           e.Role,
		Skills:         e.Skills,
		HourlyRate:     e.HourlyRate,
		MaxWeeklyHours: e.MaxWeeklyHours,
		AvailableFrom:  e.AvailableFrom,
		AvailableUntil: e.AvailableUntil,
		Preference:     e.Preference,
	}
}

func employeeFromAPI(e models.Employee) store.Employee {
	return store.Employee{
		EmployeeID:     e.EmployeeID,
		Name:           e.Name,
		Role:           e.Role,
		Skills:         e.Skills,
		HourlyRate:     e.HourlyRate,
		MaxWeeklyHours: e.MaxWeeklyHours,
		AvailableFrom:  e.AvailableFrom,
		AvailableUntil: e.AvailableUntil,
		Preference:     e.Preference,
	}
}
