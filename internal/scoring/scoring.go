// Package scoring turns an answer set into per-dimension scores, a weighted
// overall score, and a risk tier. Every function here is pure: the result
// depends only on the answers and the static bank.
package scoring

import (
	"math"

	"github.com/amourisk/amourisk/internal/bank"
	"github.com/amourisk/amourisk/internal/model"
)

// ScoreDimension returns the 0-100 score for one dimension: the sum of the
// answered scores (unanswered counts as 0) over the dimension maximum,
// rounded half up. A dimension with no questions scores 0.
func ScoreDimension(answers model.AnswerSet, d model.Dimension) int {
	if len(d.Questions) == 0 {
		return 0
	}
	total := 0
	for _, q := range d.Questions {
		total += answers[q.ID]
	}
	maxPossible := len(d.Questions) * bank.MaxOptionScore
	return int(math.Round(float64(total) / float64(maxPossible) * 100))
}

// ScoreOverall returns the weighted overall score from the integer dimension
// scores, rounding once at the end. Weights are taken as-is; keeping their
// sum at 1.0 is the bank's invariant, not enforced here.
func ScoreOverall(perDimension map[string]int, dims []model.Dimension) int {
	weighted := 0.0
	for _, d := range dims {
		weighted += float64(perDimension[d.Name]) * d.Weight
	}
	return int(math.Round(weighted))
}

// ClassifyRisk maps an overall score to its tier. Thresholds are inclusive
// lower bounds applied in descending order. TierNoRisk is never returned:
// anything at or below 30 is TierLow. That leaves the tier reachable only as
// a display default, which matches the shipped behavior.
func ClassifyRisk(overall int) model.RiskTier {
	switch {
	case overall >= 81:
		return model.TierVeryHigh
	case overall >= 61:
		return model.TierHigh
	case overall >= 31:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// Compute derives the full score set for an answer set against the bank.
func Compute(answers model.AnswerSet) model.DimensionScoreSet {
	dims := bank.Dimensions()
	perDimension := make(map[string]int, len(dims))
	for _, d := range dims {
		perDimension[d.Name] = ScoreDimension(answers, d)
	}
	overall := ScoreOverall(perDimension, dims)
	return model.DimensionScoreSet{
		PerDimension: perDimension,
		Overall:      overall,
		Tier:         ClassifyRisk(overall),
	}
}
