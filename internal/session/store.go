package session

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Store holds the in-flight, per-session message log. Sessions are
// independent; a session that was never written to reads back empty.
type Store interface {
	Append(ctx context.Context, sessionID string, message *schema.Message) error
	History(ctx context.Context, sessionID string) ([]*schema.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps conversations for the lifetime of the process. This is
// the default backend; durability lives in the long-term store only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*conversation
}

type conversation struct {
	mu       sync.Mutex
	messages []*schema.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*conversation)}
}

func (s *MemoryStore) getOrCreate(sessionID string) *conversation {
	s.mu.RLock()
	conv, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok = s.sessions[sessionID]; ok {
		return conv
	}
	conv = &conversation{}
	s.sessions[sessionID] = conv
	return conv
}

// Append adds a message preserving arrival order within the session.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, message *schema.Message) error {
	conv := s.getOrCreate(sessionID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.messages = append(conv.messages, message)
	return nil
}

// History returns a snapshot of the session's messages in arrival order.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	conv := s.getOrCreate(sessionID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]*schema.Message, len(conv.messages))
	copy(out, conv.messages)
	return out, nil
}

// Clear drops the session's messages.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
