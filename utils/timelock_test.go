package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateTimeLock(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		lockUntil time.Time
		wantDays  int
		unlocked  bool
	}{
		{"one day ahead", now.Add(24 * time.Hour), 1, false},
		{"partial day rounds up", now.Add(1 * time.Hour), 1, false},
		{"ten days ahead", now.Add(10 * 24 * time.Hour), 10, false},
		{"exactly now", now, 0, true},
		{"just elapsed", now.Add(-1 * time.Hour), 0, true},
		{"long expired", now.Add(-48 * time.Hour), -2, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateTimeLock(tc.lockUntil, now)
			assert.Equal(t, tc.wantDays, got.DaysRemaining)
			assert.Equal(t, tc.unlocked, got.Unlocked)
		})
	}
}
