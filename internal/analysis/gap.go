package analysis

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// AverageGap returns the mean of consecutive whole-day differences of an
// ascending date sequence. Each difference is truncated to whole days before
// averaging. ok is false when fewer than two dates are given.
func AverageGap(dates []time.Time) (avg float64, ok bool) {
	if len(dates) < 2 {
		return math.NaN(), false
	}
	var sum int64
	for i := 1; i < len(dates); i++ {
		sum += wholeDays(dates[i].Sub(dates[i-1]))
	}
	return float64(sum) / float64(len(dates)-1), true
}

func wholeDays(d time.Duration) int64 {
	return int64(d / day)
}
