// Package analyzer implements the first pipeline stage: per-interval coverage
// analysis of required vs. scheduled headcount.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/optishift/optishift/internal/feed"
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// DefaultWidth is the interval width when none is configured.
const DefaultWidth = 15 * time.Minute

// ErrEmptyWindow is returned when the run window contains no intervals.
var ErrEmptyWindow = errors.New("analysis window is empty")

// Severity classifies a gap per the fixed thresholds:
// gap > 5 critical, > 3 high, > 1 medium, > 0 low, otherwise none.
func Severity(gap int) string {
	switch {
	case gap > 5:
		return models.SeverityCritical
	case gap > 3:
		return models.SeverityHigh
	case gap > 1:
		return models.SeverityMedium
	case gap > 0:
		return models.SeverityLow
	default:
		return models.SeverityNone
	}
}

// ServiceLevel projects a simplified service level for a gap: 100 when fully
// covered, dropping 12 points per missing operator, floored at 0.
func ServiceLevel(gap int) float64 {
	if gap <= 0 {
		return 100
	}
	sl := 100 - 12*float64(gap)
	if sl < 0 {
		return 0
	}
	return sl
}

// CoverageRatio returns scheduled/required, with 1.0 for zero demand.
func CoverageRatio(required, scheduled int) float64 {
	if required <= 0 {
		return 1.0
	}
	return float64(scheduled) / float64(required)
}

// Summary is the stage-result payload persisted with the stage record.
type Summary struct {
	Intervals     int `json:"intervals"`
	GapIntervals  int `json:"gap_intervals"`
	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	TotalGap      int `json:"total_gap"`
}

// Analyzer computes one CoverageInterval per fixed-width slice of the window.
type Analyzer struct {
	Width time.Duration
}

// Analyze walks the window [start, end) and computes gap, ratio, severity, and
// projected service level per interval. Slices align to the width; a start
// that falls mid-slice rounds up to the first aligned slice inside the window.
// Missing data for a single interval is logged and the interval skipped; only
// an unreachable feed or an empty window fails the stage.
func (a Analyzer) Analyze(ctx context.Context, runID string, start, end time.Time, demand feed.DemandSource, supply feed.ScheduleSource) ([]store.CoverageInterval, Summary, error) {
	width := a.Width
	if width <= 0 {
		width = DefaultWidth
	}
	if !start.Before(end) {
		return nil, Summary{}, ErrEmptyWindow
	}

	required, err := demand.Demand(ctx, start, end, width)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("demand feed: %w", err)
	}
	scheduled, err := supply.Scheduled(ctx, start, end, width)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("schedule feed: %w", err)
	}

	var (
		out []store.CoverageInterval
		sum Summary
	)
	first := start.Truncate(width)
	if first.Before(start) {
		first = first.Add(width)
	}
	for t := first; t.Before(end); t = t.Add(width) {
		req, okReq := required[t]
		sch := scheduled[t]
		if !okReq {
			// No forecast for this slice; treat as zero demand but note it.
			slog.Debug("no forecast for interval", "run_id", runID, "at", t)
		}
		gap := req - sch
		sev := Severity(gap)
		iv := store.CoverageInterval{
			RunID:        runID,
			StartsAt:     t,
			Required:     req,
			Scheduled:    sch,
			Gap:          gap,
			Ratio:        CoverageRatio(req, sch),
			Severity:     sev,
			ServiceLevel: ServiceLevel(gap),
		}
		out = append(out, iv)
		sum.Intervals++
		if gap > 0 {
			sum.GapIntervals++
			sum.TotalGap += gap
		}
		switch sev {
		case models.SeverityCritical:
			sum.CriticalCount++
		case models.SeverityHigh:
			sum.HighCount++
		}
	}
	if sum.Intervals == 0 {
		return nil, Summary{}, ErrEmptyWindow
	}
	return out, sum, nil
}
