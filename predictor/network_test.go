package predictor

import (
	"encoding/json"
	"math"
	"testing"
)

func TestTrainReducesLoss(t *testing.T) {
	net := NewNetwork(7)
	samples := TrainingData()

	before := net.MeanLoss(samples)
	final := net.Train(samples, 200, 0.1, 7)

	if final >= before {
		t.Errorf("final epoch loss %v did not improve on initial loss %v", final, before)
	}
	if after := net.MeanLoss(samples); after >= before {
		t.Errorf("post-training loss %v did not improve on initial loss %v", after, before)
	}
}

func TestTrainedNetworkSeparatesExtremes(t *testing.T) {
	net := NewNetwork(7)
	net.Train(TrainingData(), 300, 0.1, 7)

	calm := net.Predict(Extract(5, "had a peaceful relaxed day with friends"))
	tense := net.Predict(Extract(1, "completely overwhelmed, panic and deadline stress, cannot sleep"))

	if tense <= calm {
		t.Errorf("stressed entry scored %v, calm entry %v, expected stressed > calm", tense, calm)
	}
}

func TestPredictStaysInUnitInterval(t *testing.T) {
	net := NewNetwork(3)
	for _, s := range TrainingData() {
		p := net.Predict(s.Features)
		if p <= 0 || p >= 1 {
			t.Fatalf("Predict() = %v, expected a value strictly inside (0,1)", p)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	net := NewNetwork(11)
	net.Train(TrainingData(), 50, 0.1, 11)

	blob, err := net.MarshalWeights()
	if err != nil {
		t.Fatalf("MarshalWeights() error: %v", err)
	}

	restored, err := UnmarshalNetwork(blob)
	if err != nil {
		t.Fatalf("UnmarshalNetwork() error: %v", err)
	}

	for _, s := range TrainingData()[:10] {
		want := net.Predict(s.Features)
		got := restored.Predict(s.Features)
		if math.Abs(want-got) > 1e-12 {
			t.Fatalf("restored network predicts %v, original %v", got, want)
		}
	}
}

func TestUnmarshalRejectsWrongShape(t *testing.T) {
	blob, err := json.Marshal(networkSnapshot{
		Sizes:   []int{4, 2, 1},
		Weights: [][]float64{make([]float64, 8), make([]float64, 2)},
		Biases:  [][]float64{make([]float64, 2), make([]float64, 1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalNetwork(blob); err == nil {
		t.Error("UnmarshalNetwork() accepted a snapshot with the wrong shape")
	}

	if _, err := UnmarshalNetwork([]byte("not json")); err == nil {
		t.Error("UnmarshalNetwork() accepted garbage input")
	}
}

func TestStressScore(t *testing.T) {
	tests := []struct {
		probability float64
		expected    int
	}{
		{probability: 0.0, expected: 1},
		{probability: 0.1, expected: 1},
		{probability: 0.3, expected: 2},
		{probability: 0.5, expected: 3},
		{probability: 0.7, expected: 4},
		{probability: 0.9, expected: 5},
		{probability: 1.0, expected: 5},
	}

	for _, tt := range tests {
		if got := StressScore(tt.probability); got != tt.expected {
			t.Errorf("StressScore(%v) = %d, expected %d", tt.probability, got, tt.expected)
		}
	}
}
