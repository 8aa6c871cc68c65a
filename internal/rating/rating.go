// Package rating implements the bounded proficiency score kept per word and
// the weighted sampler that prefers poorly known words.
package rating

import (
	"math"

	"github.com/example/derbot/pkg/models"
)

const (
	Min = 0.0
	Max = 5.0

	// MasteredThreshold hides words from easy and medium drills on the
	// personal dictionary.
	MasteredThreshold = 4.9
)

// Delta returns the rating change for an answer at the given level.
// Lower rating means less mastery, so a correct answer lowers it.
func Delta(level models.Level, correct bool) float64 {
	if correct {
		return -0.1
	}
	if level == models.Hard {
		return 0.2
	}
	return 0.1
}

// Apply adds delta to r, clamps the result into [Min, Max] and rounds it to
// one decimal.
func Apply(r, delta float64) float64 {
	return Clamp(math.Round((r+delta)*10) / 10)
}

// Clamp bounds r to [Min, Max].
func Clamp(r float64) float64 {
	if math.IsNaN(r) {
		return Min
	}
	return math.Max(Min, math.Min(Max, r))
}

// IsMastered reports whether r has reached the mastered threshold.
func IsMastered(r float64) bool {
	return r >= MasteredThreshold
}
