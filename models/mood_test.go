package models

import "testing"

func TestStressBand(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{score: 1, expected: BandLow},
		{score: 2, expected: BandLow},
		{score: 3, expected: BandModerate},
		{score: 4, expected: BandHigh},
		{score: 5, expected: BandHigh},
	}

	for _, tt := range tests {
		if got := StressBand(tt.score); got != tt.expected {
			t.Errorf("StressBand(%d) = %q, expected %q", tt.score, got, tt.expected)
		}
	}
}

func TestMoodLogBand(t *testing.T) {
	entry := MoodLog{StressScore: 4}
	if got := entry.Band(); got != BandHigh {
		t.Errorf("Band() = %q, expected %q", got, BandHigh)
	}
}
