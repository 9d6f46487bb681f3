package utils

import (
	"math"
	"time"
)

// TimeLockStatus classifies a time-locked item against a reference instant.
type TimeLockStatus struct {
	DaysRemaining int  `json:"days_remaining"`
	Unlocked      bool `json:"unlocked"`
}

// EvaluateTimeLock computes how many whole days remain until lockUntil,
// rounding partial days up, and whether the lock has elapsed. DaysRemaining is
// negative for locks that expired more than a day ago.
func EvaluateTimeLock(lockUntil, now time.Time) TimeLockStatus {
	days := int(math.Ceil(lockUntil.Sub(now).Hours() / 24))
	return TimeLockStatus{
		DaysRemaining: days,
		Unlocked:      days <= 0,
	}
}
