// Package messages keeps the in-memory message log that the HeroClient
// reports to. It is the "external logger" side-channel: fire-and-forget,
// bounded, and readable by the UI.
package messages

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const defaultLimit = 1000

// Message is a single log entry.
type Message struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Service is a bounded, concurrency-safe message log. The oldest entry is
// evicted once the limit is reached.
type Service struct {
	mu     sync.RWMutex
	items  []Message
	limit  int
	now    func() time.Time
	logger logger.Logger
}

// New creates a message log.
func New(opts ...Option) *Service {
	s := &Service{
		limit: defaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends message to the log. It never fails.
func (s *Service) Add(message string) {
	m := Message{ID: uuid.New(), Text: message, At: s.now()}

	s.mu.Lock()
	if s.limit > 0 && len(s.items) >= s.limit {
		drop := len(s.items) - s.limit + 1
		s.items = append(s.items[:0], s.items[drop:]...)
		for i := 0; i < drop; i++ {
			metrics.RecordMessageEvicted()
		}
	}
	s.items = append(s.items, m)
	s.mu.Unlock()

	metrics.RecordMessageLogged()
	if s.logger != nil {
		s.logger.Debug(context.Background(), message, logger.String("message_id", m.ID.String()))
	}
}

// Messages returns a copy of the log, oldest first.
func (s *Service) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.items))
	copy(out, s.items)
	return out
}

// Texts returns just the message texts, oldest first.
func (s *Service) Texts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	for i, m := range s.items {
		out[i] = m.Text
	}
	return out
}

// Len returns the number of stored messages.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties the log.
func (s *Service) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}
