package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mindhaven/backend/models"
	ws "github.com/mindhaven/backend/websocket"
)

type fakeQueue struct {
	waiting   []string
	stale     []string
	enqueued  []string
	forgotten []string
	scores    map[string]int
	nextScore int
}

// score mirrors the Redis zset scores: assigned once per user, kept across
// pops so Restore can reinsert at the original position.
func (q *fakeQueue) score(userID string) int {
	if q.scores == nil {
		q.scores = make(map[string]int)
		for i, id := range q.waiting {
			q.scores[id] = i
		}
		q.nextScore = len(q.waiting)
	}
	if s, ok := q.scores[userID]; ok {
		return s
	}
	q.scores[userID] = q.nextScore
	q.nextScore++
	return q.scores[userID]
}

func (q *fakeQueue) Enqueue(ctx context.Context, userID, handle string) error {
	q.score(userID)
	q.waiting = append(q.waiting, userID)
	q.enqueued = append(q.enqueued, userID)
	return nil
}

func (q *fakeQueue) Leave(ctx context.Context, userID string) error {
	for i, id := range q.waiting {
		if id == userID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	return nil
}

func (q *fakeQueue) Position(ctx context.Context, userID string) (int64, error) {
	for i, id := range q.waiting {
		if id == userID {
			return int64(i), nil
		}
	}
	return -1, nil
}

func (q *fakeQueue) PopPair(ctx context.Context) (string, string, error) {
	if len(q.waiting) < 2 {
		return "", "", nil
	}
	a, b := q.waiting[0], q.waiting[1]
	q.waiting = q.waiting[2:]
	return a, b, nil
}

func (q *fakeQueue) Restore(ctx context.Context, userID string) error {
	s := q.score(userID)
	at := len(q.waiting)
	for i, id := range q.waiting {
		if q.score(id) > s {
			at = i
			break
		}
	}
	q.waiting = append(q.waiting[:at], append([]string{userID}, q.waiting[at:]...)...)
	return nil
}

func (q *fakeQueue) Forget(ctx context.Context, userIDs ...string) error {
	q.forgotten = append(q.forgotten, userIDs...)
	return nil
}

func (q *fakeQueue) EvictStale(ctx context.Context, ttl time.Duration) ([]string, error) {
	expired := q.stale
	q.stale = nil
	return expired, nil
}

type fakeSessionStore struct {
	created []*models.VideoSession
	active  map[string]*models.VideoSession
	err     error
}

func (s *fakeSessionStore) CreateVideoSession(ctx context.Context, session *models.VideoSession) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, session)
	return nil
}

func (s *fakeSessionStore) GetActiveSessionForUser(ctx context.Context, userID string) (*models.VideoSession, error) {
	return s.active[userID], nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]ws.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]ws.Message)}
}

func (n *fakeNotifier) SendToUser(userID string, payload []byte) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	var msg ws.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false
	}
	n.sent[userID] = append(n.sent[userID], msg)
	return true
}

func (n *fakeNotifier) messages(userID string) []ws.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[userID]
}

func newTestMatchmaking(queue *fakeQueue, sessions *fakeSessionStore, notifier *fakeNotifier) *MatchmakingService {
	return NewMatchmakingService(queue, sessions, notifier, time.Second, time.Minute)
}

func TestSweepPairsOldestFirst(t *testing.T) {
	queue := &fakeQueue{waiting: []string{"u1", "u2", "u3", "u4"}}
	sessions := &fakeSessionStore{}
	notifier := newFakeNotifier()
	svc := newTestMatchmaking(queue, sessions, notifier)

	svc.Sweep(context.Background())

	if len(sessions.created) != 2 {
		t.Fatalf("created %d sessions, expected 2", len(sessions.created))
	}
	first := sessions.created[0]
	if first.CallerID != "u1" || first.CalleeID != "u2" {
		t.Errorf("first pair = (%s, %s), expected (u1, u2)", first.CallerID, first.CalleeID)
	}
	if first.Status != "pending" {
		t.Errorf("new session status = %q, expected pending", first.Status)
	}
	if len(queue.waiting) != 0 {
		t.Errorf("%d users still waiting after sweep, expected 0", len(queue.waiting))
	}
	if len(queue.forgotten) != 4 {
		t.Errorf("dropped meta for %d users, expected 4", len(queue.forgotten))
	}

	got := notifier.messages("u1")
	if len(got) != 1 || got[0].Type != ws.MsgMatchFound {
		t.Fatalf("u1 messages = %+v, expected a single match.found", got)
	}
	if got[0].SessionID != first.ID || got[0].PeerID != "u2" {
		t.Errorf("u1 match.found = %+v, expected session %s with peer u2", got[0], first.ID)
	}
	if peer := notifier.messages("u2"); len(peer) != 1 || peer[0].PeerID != "u1" {
		t.Errorf("u2 messages = %+v, expected match.found with peer u1", peer)
	}
}

func TestSweepLeavesOddUserWaiting(t *testing.T) {
	queue := &fakeQueue{waiting: []string{"u1", "u2", "u3"}}
	sessions := &fakeSessionStore{}
	notifier := newFakeNotifier()
	svc := newTestMatchmaking(queue, sessions, notifier)

	svc.Sweep(context.Background())

	if len(sessions.created) != 1 {
		t.Fatalf("created %d sessions, expected 1", len(sessions.created))
	}
	if len(queue.waiting) != 1 || queue.waiting[0] != "u3" {
		t.Errorf("waiting = %v, expected only u3 left", queue.waiting)
	}
	if got := notifier.messages("u3"); len(got) != 0 {
		t.Errorf("u3 received %+v, expected nothing", got)
	}
}

func TestSweepNotifiesExpiredEntries(t *testing.T) {
	queue := &fakeQueue{stale: []string{"u9"}}
	sessions := &fakeSessionStore{}
	notifier := newFakeNotifier()
	svc := newTestMatchmaking(queue, sessions, notifier)

	svc.Sweep(context.Background())

	got := notifier.messages("u9")
	if len(got) != 1 || got[0].Type != ws.MsgQueueExpired {
		t.Fatalf("u9 messages = %+v, expected a single queue.expired", got)
	}
	if len(sessions.created) != 0 {
		t.Errorf("created %d sessions, expected 0", len(sessions.created))
	}
}

func TestJoinRejectsActiveSession(t *testing.T) {
	queue := &fakeQueue{}
	sessions := &fakeSessionStore{
		active: map[string]*models.VideoSession{
			"u1": {ID: "existing", Status: "active"},
		},
	}
	svc := newTestMatchmaking(queue, sessions, newFakeNotifier())

	_, err := svc.Join(context.Background(), &models.User{ID: "u1", Handle: "calm-otter-1"})
	if err == nil {
		t.Fatal("Join() accepted a user with a live session")
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("user was enqueued despite the live session")
	}
}

func TestJoinReturnsQueuePosition(t *testing.T) {
	queue := &fakeQueue{waiting: []string{"u1"}}
	sessions := &fakeSessionStore{}
	svc := newTestMatchmaking(queue, sessions, newFakeNotifier())

	pos, err := svc.Join(context.Background(), &models.User{ID: "u2", Handle: "quiet-heron-2"})
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if pos != 1 {
		t.Errorf("position = %d, expected 1", pos)
	}
}

func TestPairFailureRestoresWaitingUsers(t *testing.T) {
	queue := &fakeQueue{waiting: []string{"u1", "u2"}}
	sessions := &fakeSessionStore{err: errors.New("database down")}
	notifier := newFakeNotifier()
	svc := newTestMatchmaking(queue, sessions, notifier)

	svc.Sweep(context.Background())

	if len(notifier.messages("u1")) != 0 {
		t.Error("u1 was notified although session creation failed")
	}
	if len(queue.waiting) != 2 || queue.waiting[0] != "u1" || queue.waiting[1] != "u2" {
		t.Fatalf("waiting = %v, expected u1 and u2 restored in order", queue.waiting)
	}

	// The restored pair is matched on the next sweep once the store recovers.
	sessions.err = nil
	svc.Sweep(context.Background())

	if len(sessions.created) != 1 {
		t.Fatalf("created %d sessions after recovery, expected 1", len(sessions.created))
	}
	if got := notifier.messages("u1"); len(got) != 1 || got[0].Type != ws.MsgMatchFound {
		t.Errorf("u1 messages after recovery = %+v, expected a single match.found", got)
	}
}
