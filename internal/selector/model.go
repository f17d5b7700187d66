// Package selector implements ModelSelector (the feature-match →
// popularity → random fallback chain, spec.md §4.4) and MultiCardSelector
// (the single/duo/trio presentation decision, spec.md §4.5).
package selector

import (
	"math"
	"math/rand/v2"
	"sort"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// Candidate pairs a Product with its computed Score for selection.
type Candidate struct {
	Product domain.Product
	Score   domain.Score
}

// Result is what ModelSelector produces: the ordered candidates it picked,
// which model ran, and the fallback reason if the primary model didn't.
type Result struct {
	Candidates     []Candidate
	ModelUsed      domain.ModelUsed
	FallbackReason string
}

// ErrNoMatch is returned when every model in the fallback chain fails to
// produce a result from a non-empty candidate set — callers should not see
// this directly in normal operation since random() always succeeds on a
// non-empty input; it is reserved for the zero-candidate boundary.
type ErrNoMatch struct{ Reason string }

func (e *ErrNoMatch) Error() string { return "no match: " + e.Reason }

// PrimaryModel picks which selection model runs first, per the table in
// spec.md §4.4.
func PrimaryModel(productCount int, technicalQuery bool) domain.ModelUsed {
	switch {
	case productCount >= 3 && technicalQuery:
		return domain.ModelFeatureMatch
	case productCount >= 2:
		return domain.ModelPopularity
	default:
		return domain.ModelRandom
	}
}

// Select runs the fallback chain: feature-match → popularity → random,
// per spec.md §4.4. candidates is assumed pre-scored by the ScoringEngine
// (feature-match ordering lives in the Score.Final the pipeline already
// sorted by; Select here only decides presentation-model selection and the
// slice it hands onward).
func Select(candidates []Candidate, technicalQuery bool, seed uint64) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, &ErrNoMatch{Reason: "no_search_results"}
	}

	primary := PrimaryModel(len(candidates), technicalQuery)

	switch primary {
	case domain.ModelFeatureMatch:
		if ranked := featureMatchRank(candidates); len(ranked) > 0 {
			return Result{Candidates: ranked, ModelUsed: domain.ModelFeatureMatch}, nil
		}
		return fallbackFromPopularity(candidates, seed, "feature_match_empty")
	case domain.ModelPopularity:
		if ranked := popularityRank(candidates); len(ranked) > 0 {
			return Result{Candidates: ranked, ModelUsed: domain.ModelPopularity}, nil
		}
		return fallbackFromRandom(candidates, seed, "popularity_empty")
	default:
		ranked := randomRank(candidates, seed)
		return Result{Candidates: ranked, ModelUsed: domain.ModelRandom}, nil
	}
}

func fallbackFromPopularity(candidates []Candidate, seed uint64, reason string) (Result, error) {
	if ranked := popularityRank(candidates); len(ranked) > 0 {
		return Result{Candidates: ranked, ModelUsed: domain.ModelPopularity, FallbackReason: reason}, nil
	}
	return fallbackFromRandom(candidates, seed, reason)
}

func fallbackFromRandom(candidates []Candidate, seed uint64, reason string) (Result, error) {
	ranked := randomRank(candidates, seed)
	if len(ranked) == 0 {
		return Result{}, &ErrNoMatch{Reason: reason}
	}
	return Result{Candidates: ranked, ModelUsed: domain.ModelRandom, FallbackReason: reason}, nil
}

// featureMatchRank orders candidates by their already-computed Score.Final
// descending; it fails (returns empty) when no candidate matched any
// feature at all, since that indicates feature-match degenerated to a
// meaningless ordering (spec.md §4.4: "no features extracted" failure).
func featureMatchRank(candidates []Candidate) []Candidate {
	anyMatched := false
	for _, c := range candidates {
		if len(c.Score.MatchedFeatures) > 0 {
			anyMatched = true
			break
		}
	}
	if !anyMatched {
		return nil
	}
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score.Final > out[j].Score.Final })
	return out
}

// popularityRank ranks by log(1+rating_count)*0.6 + avg_rating/5*0.4, with
// unrated products pushed below any rated product (spec.md §4.4).
func popularityRank(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Product, out[j].Product
		aRated, bRated := a.RatingCount > 0, b.RatingCount > 0
		if aRated != bRated {
			return aRated // rated sorts before unrated
		}
		return popularitySignal(a) > popularitySignal(b)
	})
	return out
}

func popularitySignal(p domain.Product) float64 {
	return math.Log(1+float64(p.RatingCount))*0.6 + (p.AverageRating/5)*0.4
}

// randomRank performs weighted-random selection over the full candidate
// set using a seeded generator so results are reproducible per request
// (spec.md §4.4). Weight = rating_count + 1. Guaranteed non-empty output
// for a non-empty input.
func randomRank(candidates []Candidate, seed uint64) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)
	out := make([]Candidate, 0, len(remaining))

	for len(remaining) > 0 {
		total := 0.0
		weights := make([]float64, len(remaining))
		for i, c := range remaining {
			w := float64(c.Product.RatingCount + 1)
			weights[i] = w
			total += w
		}
		pick := rng.Float64() * total
		idx := 0
		acc := 0.0
		for i, w := range weights {
			acc += w
			if pick <= acc {
				idx = i
				break
			}
		}
		out = append(out, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return out
}
