package utils

import "math"

// CompletionPercentage reports how complete a user's legacy plan is: the share
// of satisfied signals, rounded to the nearest whole percent.
func CompletionPercentage(signals ...bool) int {
	if len(signals) == 0 {
		return 0
	}
	satisfied := 0
	for _, s := range signals {
		if s {
			satisfied++
		}
	}
	return int(math.Round(float64(satisfied) / float64(len(signals)) * 100))
}
