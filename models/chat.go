package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is a persisted text message within a video session. Typing
// indicators are relayed over the websocket but never stored.
type ChatMessage struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"type:uuid;not null;index" json:"session_id"`
	SenderID  string         `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session VideoSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Sender  User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ChatStats represents aggregated peer-chat statistics for a user.
type ChatStats struct {
	TotalSessions int64      `json:"total_sessions"`
	TotalMessages int64      `json:"total_messages"`
	LastSession   *time.Time `json:"last_session"`
}
