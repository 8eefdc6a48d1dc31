package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mindhaven/backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GORMRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	repo := NewGORMRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate on sqlite failed: %v", err)
	}
	return repo
}

// The schema must migrate on the SQLite dev fallback, not only on Postgres.
func TestAutoMigrateOnSQLite(t *testing.T) {
	newTestRepository(t)
}

func TestCreateUserAssignsID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{
		Email:    "id-check@example.com",
		Password: "hashed",
		Handle:   "calm-otter-1000",
		Role:     "user",
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if user.ID == "" {
		t.Fatal("user ID was not assigned on create")
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error: %v", err)
	}
	if got == nil || got.Handle != user.Handle {
		t.Errorf("GetUserByID() = %+v, expected the created user", got)
	}
}

func TestGetSignalingMessagesReturnsNewestInOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	sessionID := uuid.New().String()
	senderID := uuid.New().String()
	base := time.Now().Add(-time.Hour)

	const total = 60
	for i := 0; i < total; i++ {
		msg := &models.SignalingMessage{
			SessionID: sessionID,
			SenderID:  senderID,
			Kind:      "candidate",
			Payload:   fmt.Sprintf(`{"seq":%d}`, i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.CreateSignalingMessage(ctx, msg); err != nil {
			t.Fatalf("CreateSignalingMessage() error: %v", err)
		}
	}

	const limit = 50
	got, err := repo.GetSignalingMessages(ctx, sessionID, limit)
	if err != nil {
		t.Fatalf("GetSignalingMessages() error: %v", err)
	}
	if len(got) != limit {
		t.Fatalf("got %d messages, expected %d", len(got), limit)
	}

	// The cap must drop the oldest rows and keep the newest, oldest first.
	if want := fmt.Sprintf(`{"seq":%d}`, total-limit); got[0].Payload != want {
		t.Errorf("first replayed payload = %s, expected %s", got[0].Payload, want)
	}
	if want := fmt.Sprintf(`{"seq":%d}`, total-1); got[limit-1].Payload != want {
		t.Errorf("last replayed payload = %s, expected %s", got[limit-1].Payload, want)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("replay out of order at index %d", i)
		}
	}
}

func TestGetSignalingMessagesUnlimited(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	sessionID := uuid.New().String()
	for i := 0; i < 3; i++ {
		msg := &models.SignalingMessage{
			SessionID: sessionID,
			SenderID:  uuid.New().String(),
			Kind:      "offer",
			Payload:   `{}`,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := repo.CreateSignalingMessage(ctx, msg); err != nil {
			t.Fatalf("CreateSignalingMessage() error: %v", err)
		}
	}

	got, err := repo.GetSignalingMessages(ctx, sessionID, 0)
	if err != nil {
		t.Fatalf("GetSignalingMessages() error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d messages, expected all 3", len(got))
	}
}
