package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	nextDay := time.Date(2026, 5, 2, 0, 30, 0, 0, time.UTC)

	assert.True(t, isSameDay(morning, evening))
	assert.False(t, isSameDay(evening, nextDay))
}

func TestIsYesterday(t *testing.T) {
	yesterday := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, 5, 2, 0, 1, 0, 0, time.UTC)
	twoDaysLater := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)

	assert.True(t, isYesterday(yesterday, today))
	assert.False(t, isYesterday(yesterday, twoDaysLater))
	assert.False(t, isYesterday(today, today))
}
