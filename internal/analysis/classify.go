package analysis

import (
	"math"
	"time"
)

// Classification is the ordering-frequency label of a customer.
type Classification string

const (
	Frequent   Classification = "Frequent"
	Moderate   Classification = "Moderate"
	Infrequent Classification = "Infrequent"
	Unknown    Classification = "Unknown"
)

// Classifications lists the labels in display order.
var Classifications = []Classification{Frequent, Moderate, Infrequent, Unknown}

const (
	frequentBelowDays = 7
	moderateBelowDays = 30
)

// Classify maps an average gap in days to a label. Missing, NaN and
// non-positive gaps are Unknown.
func Classify(avg float64, ok bool) Classification {
	switch {
	case !ok || math.IsNaN(avg) || avg <= 0:
		return Unknown
	case avg < frequentBelowDays:
		return Frequent
	case avg < moderateBelowDays:
		return Moderate
	default:
		return Infrequent
	}
}

// PredictNext projects the next order date as last + round(avg) days, rounding
// half to even before the date arithmetic. It reports false when no prediction applies.
func PredictNext(last time.Time, avg float64, ok bool) (time.Time, bool) {
	if !ok || last.IsZero() || math.IsNaN(avg) || math.IsInf(avg, 0) || avg <= 0 {
		return time.Time{}, false
	}
	return last.AddDate(0, 0, int(math.RoundToEven(avg))), true
}
