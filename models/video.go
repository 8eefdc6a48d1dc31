package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoSession links two matched peers. Created by the matchmaking loop,
// ended when either peer leaves or disconnects.
type VideoSession struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CallerID  string         `gorm:"type:uuid;not null;index" json:"caller_id"`
	CalleeID  string         `gorm:"type:uuid;not null;index" json:"callee_id"`
	Status    string         `gorm:"not null;default:'pending';check:status IN ('pending', 'active', 'ended')" json:"status"`
	StartedAt time.Time      `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Caller   User               `gorm:"foreignKey:CallerID" json:"caller,omitempty"`
	Callee   User               `gorm:"foreignKey:CalleeID" json:"callee,omitempty"`
	Signals  []SignalingMessage `gorm:"foreignKey:SessionID" json:"signals,omitempty"`
	Messages []ChatMessage      `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

func (s *VideoSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// HasPeer reports whether the given user is one of the two session peers.
func (s *VideoSession) HasPeer(userID string) bool {
	return s.CallerID == userID || s.CalleeID == userID
}

// PeerOf returns the other peer of the session, or "" if userID is not a peer.
func (s *VideoSession) PeerOf(userID string) string {
	switch userID {
	case s.CallerID:
		return s.CalleeID
	case s.CalleeID:
		return s.CallerID
	}
	return ""
}

// SignalingMessage is an opaque WebRTC negotiation payload relayed between the
// two peers. The payload is never inspected by the server; rows exist only so
// a reconnecting peer can replay what it missed.
type SignalingMessage struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"type:uuid;not null;index" json:"session_id"`
	SenderID  string         `gorm:"type:uuid;not null;index" json:"sender_id"`
	Kind      string         `gorm:"size:20;not null;check:kind IN ('offer', 'answer', 'candidate')" json:"kind"`
	Payload   string         `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session VideoSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

func (m *SignalingMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
