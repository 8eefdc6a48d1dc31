package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mindhaven/backend/models"
)

// Prediction is the result of scoring a single mood entry.
type Prediction struct {
	StressScore int     `json:"stress_score"` // 1 (relaxed) .. 5 (very stressed)
	Band        string  `json:"band"`
	Probability float64 `json:"probability"` // raw sigmoid output
}

// SnapshotStore persists trained weights between restarts.
type SnapshotStore interface {
	LatestModelSnapshot(ctx context.Context) (*models.ModelSnapshot, error)
	CreateModelSnapshot(ctx context.Context, snapshot *models.ModelSnapshot) error
}

// Predictor wraps the network behind a read lock so scoring from request
// handlers and the occasional retrain do not race.
type Predictor struct {
	mu  sync.RWMutex
	net *Network
}

// New returns a predictor with freshly initialized, untrained weights.
// Call LoadOrTrain before serving real traffic.
func New(seed int64) *Predictor {
	return &Predictor{net: NewNetwork(seed)}
}

// LoadOrTrain restores the newest stored snapshot, or trains from the static
// dataset and stores the result when none exists.
func (p *Predictor) LoadOrTrain(ctx context.Context, store SnapshotStore, epochs int, learningRate float64, seed int64) error {
	snapshot, err := store.LatestModelSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up model snapshot: %w", err)
	}

	if snapshot != nil {
		net, err := UnmarshalNetwork(snapshot.Weights)
		if err != nil {
			slog.Warn("Stored model snapshot is unusable, retraining", "version", snapshot.Version, "error", err)
		} else {
			p.mu.Lock()
			p.net = net
			p.mu.Unlock()
			slog.Info("Predictor restored from snapshot", "version", snapshot.Version, "loss", snapshot.Loss)
			return nil
		}
	}

	loss, err := p.Retrain(ctx, store, epochs, learningRate, seed)
	if err != nil {
		return err
	}
	slog.Info("Predictor trained from static dataset", "samples", len(trainingRows), "epochs", epochs, "loss", loss)
	return nil
}

// Retrain trains a fresh network on the static dataset, swaps it in, and
// stores a new snapshot version.
func (p *Predictor) Retrain(ctx context.Context, store SnapshotStore, epochs int, learningRate float64, seed int64) (float64, error) {
	net := NewNetwork(seed)
	loss := net.Train(TrainingData(), epochs, learningRate, seed)

	blob, err := net.MarshalWeights()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize trained weights: %w", err)
	}

	version := 1
	if prev, err := store.LatestModelSnapshot(ctx); err == nil && prev != nil {
		version = prev.Version + 1
	}

	if err := store.CreateModelSnapshot(ctx, &models.ModelSnapshot{
		Version:   version,
		Weights:   blob,
		Loss:      loss,
		TrainedAt: time.Now(),
	}); err != nil {
		return 0, fmt.Errorf("failed to store model snapshot: %w", err)
	}

	p.mu.Lock()
	p.net = net
	p.mu.Unlock()
	return loss, nil
}

// Score classifies one mood entry. The sigmoid output is mapped linearly
// onto the 1-5 stress scale.
func (p *Predictor) Score(level int, note string) Prediction {
	p.mu.RLock()
	probability := p.net.Predict(Extract(level, note))
	p.mu.RUnlock()

	score := StressScore(probability)
	return Prediction{
		StressScore: score,
		Band:        models.StressBand(score),
		Probability: probability,
	}
}

// StressScore maps a sigmoid probability onto the 1-5 stress scale.
func StressScore(probability float64) int {
	score := 1 + int(math.Round(probability*4))
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}
