package app

import (
	"math"
	"time"
)

const (
	maxPoints = 1000
	minPoints = maxPoints / 2
)

// Points scores a correct in-window answer: half credit for being right, the
// other half scaled by how much of the time limit was left.
func Points(timeLimit int, elapsed time.Duration) int {
	if timeLimit <= 0 {
		return minPoints
	}
	limit := float64(timeLimit)
	secs := elapsed.Seconds()
	if secs < 0 {
		secs = 0
	}
	if secs > limit {
		secs = limit
	}
	speedBonus := (limit - secs) / limit
	return int(math.Round(maxPoints * (0.5 + 0.5*speedBonus)))
}
