package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the envelope for everything on the wire, both directions.
// Signal payloads stay opaque; the server relays them verbatim.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Kind      string          `json:"kind,omitempty"` // signal kind: offer, answer, candidate
	Content   string          `json:"content,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	PeerID    string          `json:"peer_id,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Message types
const (
	MsgChatMessage  = "chat.message"
	MsgSignal       = "signal"
	MsgTypingStart  = "typing.start"
	MsgTypingStop   = "typing.stop"
	MsgSessionJoin  = "session.join"
	MsgSessionLeave = "session.leave"
	MsgMatchFound   = "match.found"
	MsgQueueExpired = "queue.expired"
	MsgPeerLeft     = "peer.left"
	MsgError        = "error"
)

type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	UserID         string
	room           string
	MessageHandler func(*Client, []byte) // Function to handle incoming messages
	CloseHandler   func(*Client)         // Invoked once when the connection drops
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.byUser[client.UserID] == nil {
				h.byUser[client.UserID] = make(map[*Client]bool)
			}
			h.byUser[client.UserID][client] = true
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.removeFromRoomLocked(client)
				if conns := h.byUser[client.UserID]; conns != nil {
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.byUser, client.UserID)
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID)
		}
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID string) *Client {
	client := &Client{
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
	}

	h.register <- client
	return client
}

// JoinRoom moves the client into the given session room, leaving any
// previous room first. A client is in at most one room at a time.
func (h *Hub) JoinRoom(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(c)
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*Client]bool)
	}
	h.rooms[sessionID][c] = true
	c.room = sessionID
}

func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c)
}

func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.room == "" {
		return
	}
	if members := h.rooms[c.room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// Room returns the session room the client currently sits in.
func (h *Hub) Room(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.room
}

// BroadcastRoom sends the payload to every room member except the sender.
// Clients with a full send buffer are skipped rather than blocked on.
func (h *Hub) BroadcastRoom(sessionID string, payload []byte, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[sessionID] {
		if client == exclude {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			slog.Warn("Dropping message for slow client", "user_id", client.UserID, "session_id", sessionID)
		}
	}
}

// SendToUser delivers the payload to every connection of the user and
// reports whether at least one delivery happened.
func (h *Hub) SendToUser(userID string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for client := range h.byUser[userID] {
		select {
		case client.Send <- payload:
			delivered = true
		default:
			slog.Warn("Dropping message for slow client", "user_id", userID)
		}
	}
	return delivered
}

func (c *Client) ReadPump() {
	defer func() {
		if c.CloseHandler != nil {
			c.CloseHandler(c)
		}
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(64 * 1024) // SDP offers stay well under this
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err, "user_id", c.UserID)
			}
			break
		}

		if c.MessageHandler != nil {
			// Frames are handled in arrival order. Signaling relay relies
			// on this: an offer must reach the peer before its candidates.
			c.MessageHandler(c, messageBytes)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
