package predictor

import (
	"math"
	"testing"
)

func TestExtractLevelFeature(t *testing.T) {
	tests := []struct {
		name     string
		level    int
		expected float64
	}{
		{name: "minimum level", level: 1, expected: 0.2},
		{name: "middle level", level: 3, expected: 0.6},
		{name: "maximum level", level: 5, expected: 1.0},
		{name: "level clamped low", level: 0, expected: 0.2},
		{name: "level clamped high", level: 9, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Extract(tt.level, "")
			if len(features) != FeatureCount {
				t.Fatalf("Extract() returned %d features, expected %d", len(features), FeatureCount)
			}
			if math.Abs(features[0]-tt.expected) > 1e-9 {
				t.Errorf("features[0] = %v, expected %v", features[0], tt.expected)
			}
			for i := 1; i < len(features); i++ {
				if features[i] != 0 {
					t.Errorf("features[%d] = %v, expected 0 for an empty note", i, features[i])
				}
			}
		})
	}
}

func TestExtractKeywordCounts(t *testing.T) {
	// features[3] carries the stress keyword group.
	features := Extract(3, "So much stress, the deadline pressure is unreal")
	if got := features[3]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("stress feature = %v, expected 1.0 for three matches", got)
	}

	// A single match contributes a third.
	features = Extract(3, "one deadline tomorrow")
	if got := features[3]; math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("stress feature = %v, expected 1/3 for one match", got)
	}
}

func TestExtractCapsRepeatedKeywords(t *testing.T) {
	features := Extract(3, "stress stress stress stress stress stress")
	if got := features[3]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("stress feature = %v, expected cap at 1.0", got)
	}
}

func TestExtractIgnoresPunctuationAndCase(t *testing.T) {
	a := Extract(2, "Anxious!! Worried... PANIC?")
	b := Extract(2, "anxious worried panic")
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("features[%d] differ: %v vs %v", i, a[i], b[i])
		}
	}
}
