// Package grades computes summary statistics over assessment scores.
//
// Scores use a 0–10 scale. A score of 5.0 or above counts as a pass.
package grades

import (
	"math"
)

const (
	MinScore  = 0.0
	MaxScore  = 10.0
	PassScore = 5.0
)

// Bin is one histogram bucket. Every bin is half-open [Min, Max) except the
// last one, which also includes Max.
type Bin struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type Summary struct {
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	PassRate  float64 `json:"pass_rate"`
	Histogram []Bin   `json:"histogram"`
}

var binEdges = []float64{0, 2, 4, 6, 8, 10}

var binLabels = []string{"0-2", "2-4", "4-6", "6-8", "8-10"}

// Aggregate summarizes scores. An empty input yields a zero Summary with an
// empty histogram.
func Aggregate(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{Histogram: []Bin{}}
	}

	histogram := newHistogram()

	var (
		sum    float64
		passed int
		min    = scores[0]
		max    = scores[0]
	)

	for _, score := range scores {
		sum += score
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
		if score >= PassScore {
			passed++
		}
		histogram[binIndex(score)].Count++
	}

	count := len(scores)

	return Summary{
		Count:     count,
		Mean:      round2(sum / float64(count)),
		Min:       min,
		Max:       max,
		PassRate:  round2(float64(passed) / float64(count) * 100),
		Histogram: histogram,
	}
}

func newHistogram() []Bin {
	bins := make([]Bin, len(binLabels))
	for i := range bins {
		bins[i] = Bin{
			Label: binLabels[i],
			Min:   binEdges[i],
			Max:   binEdges[i+1],
		}
	}
	return bins
}

// binIndex maps a score to exactly one bin. Out-of-range scores are clamped
// into the first or last bin.
func binIndex(score float64) int {
	last := len(binLabels) - 1
	if score >= binEdges[last] {
		return last
	}
	for i := 0; i < last; i++ {
		if score < binEdges[i+1] {
			return i
		}
	}
	return last
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds a score to the valid 0–10 range.
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, score))
}

// Valid reports whether score lies within the 0–10 range.
func Valid(score float64) bool {
	return !math.IsNaN(score) && score >= MinScore && score <= MaxScore
}
