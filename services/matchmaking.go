package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mindhaven/backend/models"
	ws "github.com/mindhaven/backend/websocket"
)

// matchQueue is the waiting-line store (Redis in production).
type matchQueue interface {
	Enqueue(ctx context.Context, userID, handle string) error
	Leave(ctx context.Context, userID string) error
	Position(ctx context.Context, userID string) (int64, error)
	PopPair(ctx context.Context) (string, string, error)
	Restore(ctx context.Context, userID string) error
	Forget(ctx context.Context, userIDs ...string) error
	EvictStale(ctx context.Context, ttl time.Duration) ([]string, error)
}

// sessionStore is the subset of the repository the matchmaker needs.
type sessionStore interface {
	CreateVideoSession(ctx context.Context, session *models.VideoSession) error
	GetActiveSessionForUser(ctx context.Context, userID string) (*models.VideoSession, error)
}

// matchNotifier pushes matchmaking events to connected clients.
type matchNotifier interface {
	SendToUser(userID string, payload []byte) bool
}

// MatchmakingService owns the pairing loop. All pairing happens in a single
// goroutine on a fixed sweep interval: clients never poll, they get pushed a
// match.found event, and entries that outlive the TTL are evicted with a
// queue.expired event.
type MatchmakingService struct {
	queue         matchQueue
	sessions      sessionStore
	notify        matchNotifier
	sweepInterval time.Duration
	entryTTL      time.Duration
}

func NewMatchmakingService(queue matchQueue, sessions sessionStore, notify matchNotifier, sweepInterval, entryTTL time.Duration) *MatchmakingService {
	if sweepInterval <= 0 {
		sweepInterval = 2 * time.Second
	}
	if entryTTL <= 0 {
		entryTTL = 2 * time.Minute
	}
	return &MatchmakingService{
		queue:         queue,
		sessions:      sessions,
		notify:        notify,
		sweepInterval: sweepInterval,
		entryTTL:      entryTTL,
	}
}

// Join puts a user into the waiting line. Users with a live session must
// leave it before queueing again.
func (m *MatchmakingService) Join(ctx context.Context, user *models.User) (int64, error) {
	active, err := m.sessions.GetActiveSessionForUser(ctx, user.ID)
	if err != nil {
		return -1, fmt.Errorf("failed to check active session: %w", err)
	}
	if active != nil {
		return -1, fmt.Errorf("user already has an active session")
	}

	if err := m.queue.Enqueue(ctx, user.ID, user.Handle); err != nil {
		return -1, err
	}
	return m.queue.Position(ctx, user.ID)
}

// Leave removes the user from the waiting line.
func (m *MatchmakingService) Leave(ctx context.Context, userID string) error {
	return m.queue.Leave(ctx, userID)
}

// Position returns the zero-based queue position, or -1 when not waiting.
func (m *MatchmakingService) Position(ctx context.Context, userID string) (int64, error) {
	return m.queue.Position(ctx, userID)
}

// Run drives the pairing loop until the context is canceled.
func (m *MatchmakingService) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	slog.Info("Matchmaking loop started", "sweep_interval", m.sweepInterval, "entry_ttl", m.entryTTL)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Matchmaking loop stopped")
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one matchmaking pass: evict stale entries, then pair everyone
// currently waiting, oldest first.
func (m *MatchmakingService) Sweep(ctx context.Context) {
	expired, err := m.queue.EvictStale(ctx, m.entryTTL)
	if err != nil {
		slog.Error("Failed to evict stale queue entries", "error", err)
	}
	for _, userID := range expired {
		m.send(userID, &ws.Message{Type: ws.MsgQueueExpired, Timestamp: time.Now()})
	}

	for {
		caller, callee, err := m.queue.PopPair(ctx)
		if err != nil {
			slog.Error("Failed to pop waiting pair", "error", err)
			return
		}
		if caller == "" || callee == "" {
			return
		}
		if err := m.pair(ctx, caller, callee); err != nil {
			slog.Error("Failed to pair users, restoring queue entries", "error", err, "caller_id", caller, "callee_id", callee)
			m.restore(ctx, caller)
			m.restore(ctx, callee)
			// Stop this sweep so the restored pair is retried on the
			// next tick instead of failing in a tight loop.
			return
		}
		if err := m.queue.Forget(ctx, caller, callee); err != nil {
			slog.Warn("Failed to drop queue meta for matched pair", "error", err)
		}
	}
}

// restore puts a popped user back into the waiting line; if even that fails
// the client is told its queue entry is gone so it can re-queue.
func (m *MatchmakingService) restore(ctx context.Context, userID string) {
	if err := m.queue.Restore(ctx, userID); err != nil {
		m.send(userID, &ws.Message{Type: ws.MsgQueueExpired, Timestamp: time.Now()})
	}
}

func (m *MatchmakingService) pair(ctx context.Context, callerID, calleeID string) error {
	session := &models.VideoSession{
		ID:        uuid.New().String(),
		CallerID:  callerID,
		CalleeID:  calleeID,
		Status:    "pending",
		StartedAt: time.Now(),
	}
	if err := m.sessions.CreateVideoSession(ctx, session); err != nil {
		return fmt.Errorf("failed to create video session: %w", err)
	}

	m.send(callerID, &ws.Message{
		Type:      ws.MsgMatchFound,
		SessionID: session.ID,
		PeerID:    calleeID,
		Timestamp: time.Now(),
	})
	m.send(calleeID, &ws.Message{
		Type:      ws.MsgMatchFound,
		SessionID: session.ID,
		PeerID:    callerID,
		Timestamp: time.Now(),
	})

	slog.Info("Peers matched", "session_id", session.ID, "caller_id", callerID, "callee_id", calleeID)
	return nil
}

func (m *MatchmakingService) send(userID string, msg *ws.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal matchmaking event", "error", err, "type", msg.Type)
		return
	}
	if !m.notify.SendToUser(userID, payload) {
		// The match.found row still exists; the client picks it up from
		// /match/status on reconnect.
		slog.Warn("Matchmaking event not delivered", "user_id", userID, "type", msg.Type)
	}
}
