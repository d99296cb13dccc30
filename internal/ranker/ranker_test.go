package ranker

import (
	"testing"

	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

func evenWeights() store.Weights {
	return store.Weights{Coverage: 25, Cost: 25, ServiceLevel: 25, Complexity: 25}
}

func compliant(id string, coverage, cost, service, complexity float64) store.Suggestion {
	return store.Suggestion{
		SuggestionID:    id,
		CoverageScore:   coverage,
		CostScore:       cost,
		ServiceScore:    service,
		ComplexityScore: complexity,
		LaborLawOK:      true,
		UnionOK:         true,
		ContractOK:      true,
		BusinessRuleOK:  true,
	}
}

func TestOverall(t *testing.T) {
	t.Parallel()
	s := compliant("a", 80, 60, 40, 20)
	w := store.Weights{Coverage: 40, Cost: 30, ServiceLevel: 20, Complexity: 10}
	// 80*0.4 + 60*0.3 + 40*0.2 + 20*0.1 = 60
	if got := Overall(s, w); got != 60 {
		t.Fatalf("Overall = %v, want 60", got)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	t.Parallel()
	in := []store.Suggestion{
		compliant("low", 10, 10, 10, 10),
		compliant("high", 90, 90, 90, 90),
		compliant("mid", 50, 50, 50, 50),
	}
	out := Rank(in, evenWeights())
	byID := make(map[string]store.Suggestion)
	for _, s := range out {
		byID[s.SuggestionID] = s
	}
	if byID["high"].Rank != 1 || byID["mid"].Rank != 2 || byID["low"].Rank != 3 {
		t.Fatalf("ranks = high:%d mid:%d low:%d", byID["high"].Rank, byID["mid"].Rank, byID["low"].Rank)
	}
}

func TestRankTieBreaks(t *testing.T) {
	t.Parallel()
	a := compliant("more-coverage", 50, 50, 50, 50)
	a.CoverageImprovement = 40
	b := compliant("less-coverage", 50, 50, 50, 50)
	b.CoverageImprovement = 20

	out := Rank([]store.Suggestion{b, a}, evenWeights())
	byID := make(map[string]store.Suggestion)
	for _, s := range out {
		byID[s.SuggestionID] = s
	}
	if byID["more-coverage"].Rank != 1 {
		t.Fatalf("equal scores should rank higher coverage improvement first: %+v", byID)
	}

	// Equal score and coverage: lower complexity wins.
	c := compliant("simple", 50, 50, 50, 50)
	c.ComplexityTier = models.ComplexitySimple
	d := compliant("complex", 50, 50, 50, 50)
	d.ComplexityTier = models.ComplexityComplex
	out = Rank([]store.Suggestion{d, c}, evenWeights())
	for _, s := range out {
		byID[s.SuggestionID] = s
	}
	if byID["simple"].Rank != 1 || byID["complex"].Rank != 2 {
		t.Fatalf("complexity tie-break failed: simple=%d complex=%d", byID["simple"].Rank, byID["complex"].Rank)
	}
}

func TestRankSkipsNonCompliant(t *testing.T) {
	t.Parallel()
	bad := compliant("bad", 99, 99, 99, 99)
	bad.LaborLawOK = false
	good := compliant("good", 10, 10, 10, 10)

	out := Rank([]store.Suggestion{bad, good}, evenWeights())
	byID := make(map[string]store.Suggestion)
	for _, s := range out {
		byID[s.SuggestionID] = s
	}
	if byID["bad"].Rank != 0 {
		t.Fatalf("non-compliant suggestion got rank %d", byID["bad"].Rank)
	}
	if byID["bad"].OverallScore != 99 {
		t.Fatalf("non-compliant suggestion should still be scored, got %v", byID["bad"].OverallScore)
	}
	if byID["good"].Rank != 1 {
		t.Fatalf("compliant suggestion rank = %d, want 1", byID["good"].Rank)
	}
}

func TestRankIdempotent(t *testing.T) {
	t.Parallel()
	in := []store.Suggestion{
		compliant("a", 70, 30, 50, 60),
		compliant("b", 30, 70, 50, 60),
		compliant("c", 50, 50, 50, 50),
	}
	first := Rank(in, evenWeights())
	second := Rank(first, evenWeights())
	for i := range first {
		if first[i].Rank != second[i].Rank || first[i].OverallScore != second[i].OverallScore {
			t.Fatalf("re-ranking changed results: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := []store.Suggestion{compliant("a", 50, 50, 50, 50)}
	_ = Rank(in, evenWeights())
	if in[0].Rank != 0 || in[0].OverallScore != 0 {
		t.Fatalf("input mutated: %+v", in[0])
	}
}
