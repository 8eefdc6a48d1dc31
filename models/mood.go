package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stress bands derived from the predicted 1-5 stress score.
const (
	BandLow      = "low"
	BandModerate = "moderate"
	BandHigh     = "high"
)

// MoodLog is a single self-reported mood entry. The predictor scores the entry
// at creation time and the result is denormalized onto the row so history and
// statistics never need to re-run inference.
type MoodLog struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Level       int            `gorm:"not null;check:level BETWEEN 1 AND 5" json:"level"`
	Note        string         `gorm:"type:text" json:"note,omitempty"`
	StressScore int            `gorm:"not null;check:stress_score BETWEEN 1 AND 5" json:"stress_score"`
	Confidence  float64        `gorm:"type:decimal(5,4)" json:"confidence"` // raw sigmoid output, 0..1
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *MoodLog) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Band maps the entry's stress score onto a coarse recommendation band.
func (m *MoodLog) Band() string {
	return StressBand(m.StressScore)
}

// StressBand maps a 1-5 stress score onto low / moderate / high.
func StressBand(score int) string {
	switch {
	case score <= 2:
		return BandLow
	case score == 3:
		return BandModerate
	default:
		return BandHigh
	}
}

// Recommendation is one entry of the static wellness catalogue, keyed by
// stress band. The catalogue is seeded at startup and never user-editable.
type Recommendation struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	Band      string         `gorm:"size:20;not null;index;check:band IN ('low', 'moderate', 'high')" json:"band"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// MoodStats represents aggregated mood statistics for a user.
type MoodStats struct {
	TotalEntries  int64      `json:"total_entries"`
	AverageMood   float64    `json:"average_mood"`
	AverageStress float64    `json:"average_stress"`
	HighStress    int64      `json:"high_stress_entries"`
	LastEntry     *time.Time `json:"last_entry"`
}

// ModelSnapshot stores the serialized predictor weights as a single blob.
// The newest version is loaded at startup; training only runs when no
// snapshot exists yet.
type ModelSnapshot struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	Version   int            `gorm:"not null;index" json:"version"`
	Weights   []byte         `gorm:"type:bytea;not null" json:"-"`
	Loss      float64        `gorm:"type:decimal(8,6)" json:"loss"`
	TrainedAt time.Time      `gorm:"not null" json:"trained_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *ModelSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
