package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		expected int
	}{
		{name: "below range", value: -5, expected: 10},
		{name: "lower bound", value: 10, expected: 10},
		{name: "inside range", value: 55, expected: 55},
		{name: "upper bound", value: 100, expected: 100},
		{name: "above range", value: 140, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clamp(tt.value, 10, 100))
		})
	}

	assert.InDelta(t, 0.5, Clamp(0.5, 0.0, 1.0), 1e-9)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 4.17, RoundTo(4.16666, 2))
	assert.Equal(t, 4.0, RoundTo(4.04, 0))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]int{1, 2, 3, 4}), 1e-9)
}
