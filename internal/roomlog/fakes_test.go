package roomlog

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/internal/domain"
	"github.com/weiawesome/wes-chat-room/internal/events"
)

type storedRow struct {
	msg     domain.ChatMessage
	sortKey string
}

type memStore struct {
	mu       sync.Mutex
	rows     map[string]map[string]*storedRow
	loadErr  error
	writeErr error
	loads    int
	writes   int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]map[string]*storedRow)}
}

func (s *memStore) LoadRoom(ctx context.Context, roomKey string) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	rows := make([]*storedRow, 0, len(s.rows[roomKey]))
	for _, row := range s.rows[roomKey] {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sortKey < rows[j].sortKey })

	out := make([]domain.ChatMessage, len(rows))
	for i, row := range rows {
		out[i] = row.msg
	}
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, roomKey string, msg domain.ChatMessage, sortKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.rows[roomKey] == nil {
		s.rows[roomKey] = make(map[string]*storedRow)
	}
	if row, ok := s.rows[roomKey][msg.ID]; ok {
		row.msg = msg
		return nil
	}
	s.rows[roomKey][msg.ID] = &storedRow{msg: msg, sortKey: sortKey}
	return nil
}

func (s *memStore) count(roomKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[roomKey])
}

func (s *memStore) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

type fakeSub struct {
	id     string
	ch     chan []byte
	mu     sync.Mutex
	closed bool
}

func newFakeSub(id string, buf int) *fakeSub {
	return &fakeSub{id: id, ch: make(chan []byte, buf)}
}

func (s *fakeSub) ID() string { return s.id }

func (s *fakeSub) Send(data []byte) bool {
	select {
	case s.ch <- data:
		return true
	default:
		return false
	}
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSub) next(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-s.ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber %s: no message", s.id)
		return nil
	}
}

func (s *fakeSub) nextAll(t *testing.T) []domain.ChatMessage {
	t.Helper()
	var all domain.AllMessage
	require.NoError(t, json.Unmarshal(s.next(t), &all))
	require.Equal(t, domain.MsgTypeAll, all.Type)
	return all.Messages
}

func (s *fakeSub) empty() bool {
	return len(s.ch) == 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.MessageEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *events.MessageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type countingRegistry struct {
	mu           sync.Mutex
	registered   map[string]int
	deregistered map[string]int
}

func newCountingRegistry() *countingRegistry {
	return &countingRegistry{registered: map[string]int{}, deregistered: map[string]int{}}
}

func (r *countingRegistry) Register(ctx context.Context, roomKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered[roomKey]++
	return nil
}

func (r *countingRegistry) Deregister(ctx context.Context, roomKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deregistered[roomKey]++
	return nil
}

func (r *countingRegistry) StartHeartbeat(ctx context.Context) error { return nil }
func (r *countingRegistry) StopHeartbeat()                           {}
func (r *countingRegistry) Close() error                             { return nil }

func envelope(t *testing.T, typ, id, content string) []byte {
	t.Helper()
	b, err := json.Marshal(domain.Envelope{Type: typ, ID: id, User: "u", Role: "user", Content: content})
	require.NoError(t, err)
	return b
}

func testConfig() Config {
	return Config{
		IdleTimeout:   time.Minute,
		SweepInterval: time.Hour,
		LoadTimeout:   time.Second,
		WriteTimeout:  time.Second,
		QueueSize:     16,
	}
}
