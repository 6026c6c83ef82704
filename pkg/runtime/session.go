package runtime

import (
	"context"
	"sync"
)

// Session is the persistence contract a Runner loads history from before the
// first turn and writes back to on successful finalization (spec §6 session
// contract). A nil Session on RunOptions disables persistence entirely; the
// core continues to run without it.
type Session interface {
	GetHistory(ctx context.Context) ([]Message, error)
	AddMessages(ctx context.Context, messages []Message) error
	Clear(ctx context.Context) error
	GetMetadata(ctx context.Context) (map[string]interface{}, error)
	UpdateMetadata(ctx context.Context, partial map[string]interface{}) error
}

// InMemorySession is a reference Session backed by an in-process slice and
// map, grounded on the teacher's mock-construction style (pkg/testutil) for
// deterministic tests; not intended for cross-process persistence.
type InMemorySession struct {
	mu       sync.Mutex
	messages []Message
	metadata map[string]interface{}
}

// NewInMemorySession constructs an empty session.
func NewInMemorySession() *InMemorySession {
	return &InMemorySession{metadata: make(map[string]interface{})}
}

func (s *InMemorySession) GetHistory(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *InMemorySession) AddMessages(ctx context.Context, messages []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
	return nil
}

func (s *InMemorySession) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.metadata = make(map[string]interface{})
	return nil
}

func (s *InMemorySession) GetMetadata(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out, nil
}

func (s *InMemorySession) UpdateMetadata(ctx context.Context, partial map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range partial {
		s.metadata[k] = v
	}
	return nil
}
