// Package pattern implements the second pipeline stage: clustering gap
// intervals into recurring, named patterns by hour-of-day.
package pattern

import (
	"sort"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// Label names a recognizable hour-of-day shape.
func Label(hour int) string {
	switch {
	case hour >= 8 && hour < 10:
		return "morning rush"
	case hour >= 12 && hour < 14:
		return "lunch dip"
	case hour >= 17 && hour < 19:
		return "evening peak"
	default:
		return "standard hours"
	}
}

// Detect groups positive-gap intervals by hour-of-day and keeps groups with
// more than one member as recurring patterns. A pure grouping pass: it never
// fails, and empty input yields zero patterns.
func Detect(intervals []store.CoverageInterval) []store.GapPattern {
	type bucket struct {
		hour       int
		totalGap   int
		count      int
		severities map[string]int
	}
	buckets := make(map[int]*bucket)
	for _, iv := range intervals {
		if iv.Gap <= 0 {
			continue
		}
		h := iv.StartsAt.UTC().Hour()
		b := buckets[h]
		if b == nil {
			b = &bucket{hour: h, severities: make(map[string]int)}
			buckets[h] = b
		}
		b.totalGap += iv.Gap
		b.count++
		b.severities[iv.Severity]++
	}

	var out []store.GapPattern
	for _, b := range buckets {
		if b.count <= 1 {
			continue
		}
		out = append(out, store.GapPattern{
			Label:            Label(b.hour),
			HourOfDay:        b.hour,
			AverageGap:       float64(b.totalGap) / float64(b.count),
			IntervalCount:    b.count,
			DominantSeverity: dominant(b.severities),
		})
	}
	// Worst first; hour breaks ties so output is stable.
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageGap != out[j].AverageGap {
			return out[i].AverageGap > out[j].AverageGap
		}
		return out[i].HourOfDay < out[j].HourOfDay
	})
	return out
}

var severityOrder = []string{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
}

func dominant(counts map[string]int) string {
	best := models.SeverityLow
	bestCount := -1
	// Iterate in fixed severity order so equal counts resolve to the worse tier.
	for _, sev := range severityOrder {
		if c := counts[sev]; c > bestCount {
			best = sev
			bestCount = c
		}
	}
	return best
}

// Members returns the intervals belonging to a pattern (positive gap, same hour).
func Members(p store.GapPattern, intervals []store.CoverageInterval) []store.CoverageInterval {
	var out []store.CoverageInterval
	for _, iv := range intervals {
		if iv.Gap > 0 && iv.StartsAt.UTC().Hour() == p.HourOfDay {
			out = append(out, iv)
		}
	}
	return out
}
