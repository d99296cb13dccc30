// Package generator implements the third pipeline stage: a bounded,
// multi-objective search over legal shift deltas that produces candidate
// schedule variants per detected gap pattern.
package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/optishift/optishift/internal/analyzer"
	"github.com/optishift/optishift/internal/pattern"
	"github.com/optishift/optishift/internal/store"
	"github.com/optishift/optishift/pkg/models"
)

// ErrCancelled is returned when the run's cancellation flag fired mid-search.
// Candidates built before the flag was observed are still returned.
var ErrCancelled = errors.New("variant generation cancelled")

// Options bounds the search.
type Options struct {
	MaxPerPattern int           // candidate cap per pattern (default 3)
	Budget        time.Duration // wall-clock budget for the whole stage (default 30s)
	Workers       int           // concurrent pattern searches (default 4)
	Width         time.Duration // interval width, must match the analyzer's
}

func (o Options) withDefaults() Options {
	if o.MaxPerPattern <= 0 {
		o.MaxPerPattern = models.DefaultMaxCandidates
	}
	if o.Budget <= 0 {
		o.Budget = models.DefaultSearchBudgetSec * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Width <= 0 {
		o.Width = analyzer.DefaultWidth
	}
	return o
}

// Candidate is one complete, self-consistent shift diff with its estimates.
type Candidate struct {
	Suggestion store.Suggestion
	Details    []store.SuggestionDetail
}

// Generator searches for candidates per pattern. Patterns are independent, so
// searches run in parallel workers; results are merged before validation.
type Generator struct {
	Opts Options
}

// Generate produces at most Opts.MaxPerPattern candidates per pattern within
// the wall-clock budget. On budget expiry it returns the best candidates found
// so far together with context.DeadlineExceeded; when cancelled() fires it
// stops between units of work and returns ErrCancelled with partial results.
func (g *Generator) Generate(ctx context.Context, patterns []store.GapPattern, intervals []store.CoverageInterval, employees []store.Employee, shifts []store.Shift, cancelled func() bool, progress func(done, total int)) ([]Candidate, error) {
	opts := g.Opts.withDefaults()
	if len(patterns) == 0 {
		return nil, nil
	}
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	searchCtx, cancel := context.WithTimeout(ctx, opts.Budget)
	defer cancel()

	ros := indexRoster(employees, shifts)
	surplus := surplusShifts(shifts, intervals, opts.Width)

	var (
		mu   sync.Mutex
		out  []Candidate
		done int
	)
	grp, grpCtx := errgroup.WithContext(searchCtx)
	grp.SetLimit(opts.Workers)
	for _, p := range patterns {
		p := p
		grp.Go(func() error {
			if cancelled() {
				return ErrCancelled
			}
			if grpCtx.Err() != nil {
				return grpCtx.Err()
			}
			members := pattern.Members(p, intervals)
			cands := searchPattern(grpCtx, p, members, ros, surplus, opts, cancelled)
			mu.Lock()
			out = append(out, cands...)
			done++
			d := done
			mu.Unlock()
			if progress != nil {
				progress(d, len(patterns))
			}
			return nil
		})
	}
	err := grp.Wait()

	// Stable merge order: worst pattern first, then best estimated candidate.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suggestion.PatternLabel != out[j].Suggestion.PatternLabel {
			return out[i].Suggestion.PatternLabel < out[j].Suggestion.PatternLabel
		}
		return out[i].Suggestion.CoverageImprovement > out[j].Suggestion.CoverageImprovement
	})

	switch {
	case errors.Is(err, ErrCancelled):
		return out, ErrCancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(searchCtx.Err(), context.DeadlineExceeded):
		return out, context.DeadlineExceeded
	case err != nil:
		return out, err
	}
	return out, nil
}

// searchPattern runs the constructive search for one pattern: enumerate legal
// moves per day block, build candidates under distinct objective orderings,
// then apply one local-improvement pass to the best. Bails out between
// candidates when the budget or the cancellation flag fires.
func searchPattern(ctx context.Context, p store.GapPattern, members []store.CoverageInterval, ros *roster, surplus []store.Shift, opts Options, cancelled func() bool) []Candidate {
	blocks := blocksByDay(members, opts.Width)
	if len(blocks) == 0 {
		return nil
	}
	movesByDay := make(map[time.Time][]move, len(blocks))
	for _, b := range blocks {
		if ctx.Err() != nil {
			return nil
		}
		movesByDay[b.day] = ros.movesForBlock(b, surplus)
	}

	available := distinctEmployees(movesByDay)
	strategies := []struct {
		name string
		less func(a, b move) bool
	}{
		{"max coverage", func(a, b move) bool {
			if a.detail.CoverageDelta != b.detail.CoverageDelta {
				return a.detail.CoverageDelta > b.detail.CoverageDelta
			}
			return a.cost < b.cost
		}},
		{"min cost", func(a, b move) bool {
			if a.cost != b.cost {
				return a.cost < b.cost
			}
			return a.detail.CoverageDelta > b.detail.CoverageDelta
		}},
		{"preference fit", func(a, b move) bool {
			if a.pref != b.pref {
				return a.pref > b.pref
			}
			return a.cost < b.cost
		}},
	}

	var (
		out  []Candidate
		seen = make(map[string]bool)
	)
	for i, strat := range strategies {
		if len(out) >= opts.MaxPerPattern {
			break
		}
		if cancelled() || ctx.Err() != nil {
			break
		}
		selected := selectMoves(blocks, movesByDay, strat.less)
		if len(selected) == 0 {
			continue
		}
		if i == 0 {
			selected = improve(blocks, movesByDay, selected)
		}
		key := selectionKey(selected)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, buildCandidate(p, blocks, selected, available, strat.name, opts))
	}
	return out
}

// selectMoves greedily picks, per day, enough non-conflicting moves to close
// that day's worst gap under the given ordering. One move per employee per
// day keeps the diff free of overlapping assignments.
func selectMoves(blocks []dayBlock, movesByDay map[time.Time][]move, less func(a, b move) bool) []move {
	var selected []move
	for _, b := range blocks {
		moves := append([]move(nil), movesByDay[b.day]...)
		sort.SliceStable(moves, func(i, j int) bool { return less(moves[i], moves[j]) })
		used := make(map[int64]bool)
		need := b.maxGap
		for _, m := range moves {
			if need == 0 {
				break
			}
			if used[m.employeeID] {
				continue
			}
			used[m.employeeID] = true
			selected = append(selected, m)
			need--
		}
	}
	return selected
}

// improve makes one swap pass: replace a selected move with an unselected one
// for the same day when the swap strictly lowers cost without losing coverage.
func improve(blocks []dayBlock, movesByDay map[time.Time][]move, selected []move) []move {
	byDay := make(map[time.Time]map[int64]bool)
	for _, m := range selected {
		if byDay[m.day] == nil {
			byDay[m.day] = make(map[int64]bool)
		}
		byDay[m.day][m.employeeID] = true
	}
	out := append([]move(nil), selected...)
	for i, m := range out {
		for _, alt := range movesByDay[m.day] {
			if byDay[m.day][alt.employeeID] {
				continue
			}
			if alt.cost < m.cost && alt.detail.CoverageDelta >= m.detail.CoverageDelta {
				delete(byDay[m.day], m.employeeID)
				byDay[m.day][alt.employeeID] = true
				out[i] = alt
				break
			}
		}
	}
	return out
}

// buildCandidate turns a move selection into a Suggestion with projected
// deltas, component scores, and an initial risk/complexity classification.
func buildCandidate(p store.GapPattern, blocks []dayBlock, selected []move, available int, strategy string, opts Options) Candidate {
	perDay := make(map[time.Time]int)
	var details []store.SuggestionDetail
	var totalCost float64
	for _, m := range selected {
		perDay[m.day]++
		details = append(details, m.detail)
		totalCost += m.cost
	}

	var totalGap, covered, needed, addressed int
	var slBefore, slAfter float64
	var slCount int
	for _, b := range blocks {
		added := perDay[b.day]
		if b.maxGap > needed {
			needed = b.maxGap
		}
		for _, iv := range b.slices {
			totalGap += iv.Gap
			c := added
			if c > iv.Gap {
				c = iv.Gap
			}
			covered += c
			addressed++
			slBefore += analyzer.ServiceLevel(iv.Gap)
			slAfter += analyzer.ServiceLevel(iv.Gap - c)
			slCount++
		}
	}

	coverageImprovement := 0.0
	if totalGap > 0 {
		coverageImprovement = 100 * float64(covered) / float64(totalGap)
	}
	slDelta := 0.0
	if slCount > 0 {
		slDelta = (slAfter - slBefore) / float64(slCount)
	}

	// Weekly cost impact: the window's added cost scaled to a seven-day week.
	days := len(blocks)
	weeklyCost := totalCost
	if days > 0 {
		weeklyCost = totalCost * 7 / float64(days)
	}

	costPerCovered := 0.0
	if covered > 0 {
		costPerCovered = weeklyCost / float64(covered)
	}

	sg := store.Suggestion{
		PatternLabel:        p.Label,
		Name:                fmt.Sprintf("Close %s gap (%s)", p.Label, strategy),
		Description:         describeSelection(p, selected, covered, totalGap),
		CoverageScore:       clamp(coverageImprovement, 0, 100),
		CostScore:           clamp(100/(1+costPerCovered/25), 0, 100),
		ServiceScore:        clamp(slDelta*4, 0, 100),
		CoverageImprovement: coverageImprovement,
		WeeklyCostDelta:     weeklyCost,
		ServiceLevelDelta:   slDelta,
		HeadcountNeeded:     needed,
		HeadcountAvailable:  available,
		RiskTier:            riskTier(needed, available),
		ComplexityTier:      complexityTier(addressed),
		LaborLawOK:          true,
		UnionOK:             true,
		ContractOK:          true,
		BusinessRuleOK:      true,
	}
	sg.ComplexityScore = complexityScore(sg.ComplexityTier)
	return Candidate{Suggestion: sg, Details: details}
}

// riskTier scales with the ratio of headcount needed to headcount available.
func riskTier(needed, available int) string {
	if needed <= 0 {
		return models.RiskLow
	}
	if available <= 0 {
		return models.RiskHigh
	}
	ratio := float64(needed) / float64(available)
	switch {
	case ratio >= 0.8:
		return models.RiskHigh
	case ratio >= 0.5:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// complexityTier scales with the number of gap intervals the candidate addresses.
func complexityTier(addressed int) string {
	switch {
	case addressed <= 3:
		return models.ComplexitySimple
	case addressed <= 8:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

func complexityScore(tier string) float64 {
	switch tier {
	case models.ComplexitySimple:
		return 90
	case models.ComplexityMedium:
		return 60
	default:
		return 30
	}
}

func describeSelection(p store.GapPattern, selected []move, covered, totalGap int) string {
	kinds := make(map[string]int)
	for _, m := range selected {
		kinds[m.detail.ChangeType]++
	}
	return fmt.Sprintf("%d shift change(s) targeting %q (avg gap %.1f): covers %d of %d gap slots; changes: %v",
		len(selected), p.Label, p.AverageGap, covered, totalGap, kinds)
}

func distinctEmployees(movesByDay map[time.Time][]move) int {
	ids := make(map[int64]bool)
	for _, moves := range movesByDay {
		for _, m := range moves {
			ids[m.employeeID] = true
		}
	}
	return len(ids)
}

func selectionKey(selected []move) string {
	keys := make([]string, len(selected))
	for i, m := range selected {
		keys[i] = moveKey(m)
	}
	sort.Strings(keys)
	return fmt.Sprint(keys)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
