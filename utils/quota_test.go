package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemainingStorage_Unused(t *testing.T) {
	q := RemainingStorage(0, 1024)

	assert.Equal(t, int64(1024)*1024*1024, q.RemainingBytes)
	assert.Equal(t, "1 GB", q.RemainingFormatted)
	assert.Equal(t, float64(0), q.UsagePercentage)
}

func TestRemainingStorage_PartialUse(t *testing.T) {
	used := int64(512) * 1024 * 1024
	q := RemainingStorage(used, 1024)

	assert.Equal(t, used, q.RemainingBytes)
	assert.Equal(t, "512 MB", q.RemainingFormatted)
	assert.Equal(t, float64(50), q.UsagePercentage)
}

func TestRemainingStorage_OverLimitClamps(t *testing.T) {
	used := int64(2) * 1024 * 1024 * 1024
	q := RemainingStorage(used, 1024)

	assert.Equal(t, int64(0), q.RemainingBytes)
	assert.Equal(t, "0 Bytes", q.RemainingFormatted)
	assert.Equal(t, float64(100), q.UsagePercentage)
}

func TestRemainingStorage_DefaultPlan(t *testing.T) {
	q := RemainingStorage(0, 0)

	assert.Equal(t, int64(1024)*1024*1024, q.RemainingBytes)
}
