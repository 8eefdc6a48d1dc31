package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mindhaven/backend/models"
	"github.com/mindhaven/backend/repository"
	ws "github.com/mindhaven/backend/websocket"
)

// A reconnecting peer gets at most this many signaling messages replayed.
const signalReplayLimit = 50

// safeSend tries to send a message to the client channel, recovers if closed
func safeSend(ch chan<- []byte, msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel is closed, ignore
		}
	}()
	select {
	case ch <- msg:
		// sent
	default:
		// channel full or closed
	}
}

// WebSocketHandler routes incoming websocket frames: chat and signaling
// into the session room, lifecycle messages into the repository.
type WebSocketHandler struct {
	repo *repository.GORMRepository
	hub  *ws.Hub
}

func NewWebSocketHandler(repo *repository.GORMRepository, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		repo: repo,
		hub:  hub,
	}
}

// HandleMessage processes one incoming frame from a client.
func (h *WebSocketHandler) HandleMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err, "user_id", client.UserID)
		h.sendError(client, "malformed message")
		return
	}

	ctx := context.Background()

	switch msg.Type {
	case ws.MsgSessionJoin:
		h.handleJoin(ctx, client, msg)
	case ws.MsgChatMessage:
		h.handleChat(ctx, client, msg)
	case ws.MsgSignal:
		h.handleSignal(ctx, client, msg)
	case ws.MsgTypingStart, ws.MsgTypingStop:
		h.relayToRoom(client, msg)
	case ws.MsgSessionLeave:
		h.handleLeave(ctx, client)
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "user_id", client.UserID)
	}
}

// HandleDisconnect ends the client's session when the connection drops, so
// the remaining peer is not left waiting on a dead call.
func (h *WebSocketHandler) HandleDisconnect(client *ws.Client) {
	h.handleLeave(context.Background(), client)
}

// handleJoin validates session membership, moves the client into the room,
// and replays persisted chat and signaling history.
func (h *WebSocketHandler) handleJoin(ctx context.Context, client *ws.Client, msg ws.Message) {
	session, err := h.repo.GetVideoSession(ctx, msg.SessionID)
	if err != nil {
		h.sendError(client, "failed to load session")
		return
	}
	if session == nil || !session.HasPeer(client.UserID) {
		h.sendError(client, "session not found")
		return
	}
	if session.Status == "ended" {
		h.sendError(client, "session has ended")
		return
	}

	h.hub.JoinRoom(session.ID, client)
	if err := h.repo.MarkSessionActive(ctx, session.ID); err != nil {
		slog.Error("Failed to mark session active", "error", err, "session_id", session.ID)
	}

	// Replay what the peer may have sent while this client was away.
	if messages, err := h.repo.GetChatMessages(ctx, session.ID, 0); err == nil {
		for _, m := range messages {
			h.sendTo(client, &ws.Message{
				Type:      ws.MsgChatMessage,
				SessionID: session.ID,
				Sender:    m.SenderID,
				Content:   m.Content,
				Timestamp: m.CreatedAt,
			})
		}
	}
	if signals, err := h.repo.GetSignalingMessages(ctx, session.ID, signalReplayLimit); err == nil {
		for _, s := range signals {
			if s.SenderID == client.UserID {
				continue
			}
			h.sendTo(client, &ws.Message{
				Type:      ws.MsgSignal,
				SessionID: session.ID,
				Sender:    s.SenderID,
				Kind:      s.Kind,
				Payload:   json.RawMessage(s.Payload),
				Timestamp: s.CreatedAt,
			})
		}
	}

	slog.Info("Client joined session room", "session_id", session.ID, "user_id", client.UserID)
}

func (h *WebSocketHandler) handleChat(ctx context.Context, client *ws.Client, msg ws.Message) {
	room := h.hub.Room(client)
	if room == "" || room != msg.SessionID {
		h.sendError(client, "not in session")
		return
	}
	if msg.Content == "" {
		return
	}

	message := &models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: room,
		SenderID:  client.UserID,
		Content:   msg.Content,
	}
	if err := h.repo.CreateChatMessage(ctx, message); err != nil {
		slog.Error("Failed to persist chat message", "error", err, "session_id", room)
		h.sendError(client, "failed to send message")
		return
	}

	h.broadcast(room, client, &ws.Message{
		Type:      ws.MsgChatMessage,
		SessionID: room,
		Sender:    client.UserID,
		Content:   msg.Content,
		Timestamp: time.Now(),
	})
}

// handleSignal persists the opaque payload for replay and relays it to the
// peer verbatim. The server never inspects the payload.
func (h *WebSocketHandler) handleSignal(ctx context.Context, client *ws.Client, msg ws.Message) {
	room := h.hub.Room(client)
	if room == "" || room != msg.SessionID {
		h.sendError(client, "not in session")
		return
	}

	switch msg.Kind {
	case "offer", "answer", "candidate":
	default:
		h.sendError(client, "unknown signal kind")
		return
	}
	if len(msg.Payload) == 0 {
		h.sendError(client, "empty signal payload")
		return
	}

	signal := &models.SignalingMessage{
		ID:        uuid.New().String(),
		SessionID: room,
		SenderID:  client.UserID,
		Kind:      msg.Kind,
		Payload:   string(msg.Payload),
	}
	if err := h.repo.CreateSignalingMessage(ctx, signal); err != nil {
		slog.Error("Failed to persist signaling message", "error", err, "session_id", room, "kind", msg.Kind)
	}

	h.broadcast(room, client, &ws.Message{
		Type:      ws.MsgSignal,
		SessionID: room,
		Sender:    client.UserID,
		Kind:      msg.Kind,
		Payload:   msg.Payload,
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) relayToRoom(client *ws.Client, msg ws.Message) {
	room := h.hub.Room(client)
	if room == "" || room != msg.SessionID {
		return
	}
	h.broadcast(room, client, &ws.Message{
		Type:      msg.Type,
		SessionID: room,
		Sender:    client.UserID,
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) handleLeave(ctx context.Context, client *ws.Client) {
	room := h.hub.Room(client)
	if room == "" {
		return
	}

	if err := h.repo.EndVideoSession(ctx, room); err != nil {
		slog.Error("Failed to end video session", "error", err, "session_id", room)
	}

	h.broadcast(room, client, &ws.Message{
		Type:      ws.MsgPeerLeft,
		SessionID: room,
		Sender:    client.UserID,
		Timestamp: time.Now(),
	})
	h.hub.LeaveRoom(client)

	slog.Info("Client left session", "session_id", room, "user_id", client.UserID)
}

func (h *WebSocketHandler) broadcast(room string, from *ws.Client, msg *ws.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal message", "error", err, "type", msg.Type)
		return
	}
	h.hub.BroadcastRoom(room, payload, from)
}

func (h *WebSocketHandler) sendTo(client *ws.Client, msg *ws.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal message", "error", err, "type", msg.Type)
		return
	}
	safeSend(client.Send, payload)
}

func (h *WebSocketHandler) sendError(client *ws.Client, reason string) {
	h.sendTo(client, &ws.Message{Type: ws.MsgError, Content: reason, Timestamp: time.Now()})
}
