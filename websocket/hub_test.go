package websocket

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{
		Hub:    h,
		Send:   make(chan []byte, 256),
		UserID: userID,
	}
}

func registerTestClient(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := newTestClient(h, userID)
	h.register <- c
	waitFor(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.clients[c]
	})
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestJoinRoomMovesClientBetweenRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := registerTestClient(t, hub, "u1")

	hub.JoinRoom("s1", c)
	if got := hub.Room(c); got != "s1" {
		t.Fatalf("Room() = %q, expected s1", got)
	}

	// Joining a second room must leave the first.
	hub.JoinRoom("s2", c)
	if got := hub.Room(c); got != "s2" {
		t.Fatalf("Room() = %q, expected s2", got)
	}
	hub.mu.RLock()
	_, stillThere := hub.rooms["s1"]
	hub.mu.RUnlock()
	if stillThere {
		t.Error("empty room s1 was not cleaned up")
	}

	hub.LeaveRoom(c)
	if got := hub.Room(c); got != "" {
		t.Errorf("Room() = %q after leave, expected empty", got)
	}
}

func TestBroadcastRoomExcludesSender(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sender := registerTestClient(t, hub, "u1")
	peer := registerTestClient(t, hub, "u2")
	hub.JoinRoom("s1", sender)
	hub.JoinRoom("s1", peer)

	hub.BroadcastRoom("s1", []byte("hello"), sender)

	select {
	case msg := <-peer.Send:
		if string(msg) != "hello" {
			t.Errorf("peer received %q, expected hello", msg)
		}
	default:
		t.Fatal("peer received nothing")
	}

	select {
	case msg := <-sender.Send:
		t.Errorf("sender received its own broadcast: %q", msg)
	default:
	}
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := registerTestClient(t, hub, "u1")
	second := registerTestClient(t, hub, "u1")

	if !hub.SendToUser("u1", []byte("ping")) {
		t.Fatal("SendToUser() = false for a connected user")
	}
	for _, c := range []*Client{first, second} {
		select {
		case <-c.Send:
		default:
			t.Fatal("a connection of the user received nothing")
		}
	}

	if hub.SendToUser("nobody", []byte("ping")) {
		t.Error("SendToUser() = true for an unknown user")
	}
}

func TestUnregisterCleansUp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := registerTestClient(t, hub, "u1")
	hub.JoinRoom("s1", c)

	hub.unregister <- c
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return !hub.clients[c]
	})

	if hub.SendToUser("u1", []byte("ping")) {
		t.Error("SendToUser() still delivers after unregister")
	}
	hub.mu.RLock()
	_, roomLeft := hub.rooms["s1"]
	hub.mu.RUnlock()
	if roomLeft {
		t.Error("room membership survived unregister")
	}

	if _, open := <-c.Send; open {
		t.Error("Send channel still open after unregister")
	}
}

func TestReadPumpDeliversFramesInOrder(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	var mu sync.Mutex
	var got []string

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client := hub.RegisterClient(conn, "u1")
		client.MessageHandler = func(c *Client, msg []byte) {
			mu.Lock()
			got = append(got, string(msg))
			mu.Unlock()
		}
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	const frames = 100
	for i := 0; i < frames; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("frame-%03d", i))); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == frames
	})

	mu.Lock()
	defer mu.Unlock()
	for i, msg := range got {
		if want := fmt.Sprintf("frame-%03d", i); msg != want {
			t.Fatalf("frame %d = %q, expected %q", i, msg, want)
		}
	}
}
