package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage())
	assert.Equal(t, 0, CompletionPercentage(false, false, false, false, false))
	assert.Equal(t, 20, CompletionPercentage(true, false, false, false, false))
	assert.Equal(t, 40, CompletionPercentage(true, true, false, false, false))
	assert.Equal(t, 60, CompletionPercentage(true, true, true, false, false))
	assert.Equal(t, 100, CompletionPercentage(true, true, true, true, true))
}

func TestCompletionPercentage_Rounds(t *testing.T) {
	// one of three satisfied: 33.33 rounds to 33
	assert.Equal(t, 33, CompletionPercentage(true, false, false))
	// two of three satisfied: 66.67 rounds to 67
	assert.Equal(t, 67, CompletionPercentage(true, true, false))
}
