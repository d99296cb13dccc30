// Package ranker implements the fifth pipeline stage: ordering compliant
// suggestions by a weighted multi-criteria score.
package ranker

import (
	"sort"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// Overall computes the weighted score for a suggestion: each component score
// (0..100) contributes its weight's fraction of 100. Weights are validated to
// sum to 100 at run creation, so the result stays in 0..100.
func Overall(s store.Suggestion, w store.Weights) float64 {
	return s.CoverageScore*float64(w.Coverage)/100 +
		s.CostScore*float64(w.Cost)/100 +
		s.ServiceScore*float64(w.ServiceLevel)/100 +
		s.ComplexityScore*float64(w.Complexity)/100
}

func complexityOrder(tier string) int {
	switch tier {
	case models.ComplexitySimple:
		return 0
	case models.ComplexityMedium:
		return 1
	default:
		return 2
	}
}

// Rank scores and orders the compliant suggestions, assigning ranks starting
// at 1. Non-compliant suggestions are returned unranked (rank 0) with an
// overall score for reference. Deterministic for a given input, so re-running
// the stage yields identical ranks.
func Rank(suggestions []store.Suggestion, w store.Weights) []store.Suggestion {
	out := make([]store.Suggestion, len(suggestions))
	copy(out, suggestions)
	for i := range out {
		out[i].OverallScore = Overall(out[i], w)
		out[i].Rank = 0
	}

	compliant := make([]*store.Suggestion, 0, len(out))
	for i := range out {
		if out[i].Compliant() {
			compliant = append(compliant, &out[i])
		}
	}
	sort.SliceStable(compliant, func(i, j int) bool {
		a, b := compliant[i], compliant[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if a.CoverageImprovement != b.CoverageImprovement {
			return a.CoverageImprovement > b.CoverageImprovement
		}
		return complexityOrder(a.ComplexityTier) < complexityOrder(b.ComplexityTier)
	})
	for i, s := range compliant {
		s.Rank = i + 1
	}
	return out
}
