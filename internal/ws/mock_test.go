package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type mockConn struct {
	id       string
	userID   string
	received [][]byte
	closed   bool
	sendErr  error
	mu       sync.Mutex
}

func newMockConn(id, userID string) *mockConn {
	return &mockConn{id: id, userID: userID}
}

func (m *mockConn) ID() string     { return m.id }
func (m *mockConn) UserID() string { return m.userID }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrConnClosed
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = nil
}

type rawEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func (m *mockConn) events(t *testing.T) []rawEvent {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]rawEvent, 0, len(m.received))
	for _, b := range m.received {
		var e rawEvent
		require.NoError(t, json.Unmarshal(b, &e))
		out = append(out, e)
	}
	return out
}

func (m *mockConn) eventsOfType(t *testing.T, eventType string) []rawEvent {
	t.Helper()
	var out []rawEvent
	for _, e := range m.events(t) {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockConn) statuses(t *testing.T) []models.UserStatusData {
	t.Helper()
	var out []models.UserStatusData
	for _, e := range m.eventsOfType(t, models.EventUserStatus) {
		var s models.UserStatusData
		require.NoError(t, json.Unmarshal(e.Data, &s))
		out = append(out, s)
	}
	return out
}

func countStatus(statuses []models.UserStatusData, userID, status string) int {
	n := 0
	for _, s := range statuses {
		if s.UserID == userID && s.Status == status {
			n++
		}
	}
	return n
}

type recordedLastSeen struct {
	userID string
	at     time.Time
}

type fakeLastSeen struct {
	mu      sync.Mutex
	records []recordedLastSeen
}

func (f *fakeLastSeen) RecordLastSeen(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedLastSeen{userID: userID, at: at})
	return nil
}

func (f *fakeLastSeen) get() []recordedLastSeen {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedLastSeen(nil), f.records...)
}

func newTestHub(t *testing.T, lastSeen LastSeenRecorder) *Hub {
	t.Helper()
	h := NewHub(lastSeen, nil)
	h.now = func() time.Time { return fixedNow }

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func register(t *testing.T, h *Hub, conns ...*mockConn) {
	t.Helper()
	for _, c := range conns {
		require.NoError(t, h.Register(c))
	}
}
