package stream

import (
	"context"
	"sync"
	"time"
)

// DocumentEvent describes one generation outcome for dashboard consumers.
type DocumentEvent struct {
	PayrollID    string    `json:"payroll_id"`
	DocumentType string    `json:"document_type"`
	DocumentID   string    `json:"document_id,omitempty"`
	Status       string    `json:"status"` // "generated" or "failed"
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stream fan-outs document events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan DocumentEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan DocumentEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan DocumentEvent {
	ch := make(chan DocumentEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt DocumentEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking generation.
		}
	}
}
