// Package stream holds the message sequence of the conversation that is
// currently open.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/model"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by Load when the stream was rebound while the
// fetch was in flight. The result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer binding")

// Source fetches the history of a conversation.
type Source interface {
	QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

// Stream is the ordered, duplicate-free message list of one bound
// conversation. Every Bind starts a new generation; a load only lands in
// the generation that started it.
type Stream struct {
	src    Source
	bus    *bus.Bus
	logger *zap.Logger

	mu    sync.Mutex
	bound string
	gen   uint64
	msgs  []model.Message
	seen  map[string]struct{}
}

// New creates an unbound stream. b may be nil.
func New(src Source, b *bus.Bus, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{src: src, bus: b, logger: logger, seen: make(map[string]struct{})}
}

// Bind discards the current sequence and binds to conversationID.
func (s *Stream) Bind(conversationID string) {
	s.mu.Lock()
	s.bindLocked(conversationID)
	s.mu.Unlock()
	s.changed(conversationID)
}

func (s *Stream) bindLocked(conversationID string) {
	s.gen++
	s.bound = conversationID
	s.msgs = nil
	s.seen = make(map[string]struct{})
}

// Unbind clears the stream.
func (s *Stream) Unbind() {
	s.Bind("")
}

// Bound returns the bound conversation id, or "".
func (s *Stream) Bound() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Load fetches the history of conversationID, binding to it first if the
// stream is bound elsewhere. Messages appended while the fetch was in
// flight and missing from its result stay at the tail.
func (s *Stream) Load(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	rebound := s.bound != conversationID
	if rebound {
		s.bindLocked(conversationID)
	}
	gen := s.gen
	s.mu.Unlock()
	if rebound {
		s.changed(conversationID)
	}

	history, err := s.src.QueryMessages(ctx, conversationID)

	s.mu.Lock()
	if s.bound != conversationID || s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load", zap.String("conversation", conversationID))
		return ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load messages: %w", err)
	}

	merged := make([]model.Message, 0, len(history)+len(s.msgs))
	seen := make(map[string]struct{}, len(history)+len(s.msgs))
	for _, m := range history {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range s.msgs {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	s.msgs = merged
	s.seen = seen
	s.mu.Unlock()

	s.changed(conversationID)
	return nil
}

// Append adds msg at the tail if it belongs to the bound conversation and
// is not already present. It reports whether the message was added.
func (s *Stream) Append(msg model.Message) bool {
	s.mu.Lock()
	if s.bound == "" || msg.ConversationID != s.bound {
		s.mu.Unlock()
		return false
	}
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()

	s.changed(msg.ConversationID)
	return true
}

// Messages returns a copy of the current sequence.
func (s *Stream) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.msgs...)
}

// Len returns the number of messages in the sequence.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *Stream) changed(conversationID string) {
	if s.bus != nil {
		s.bus.Publish(bus.NewEvent(bus.KindStreamChanged, conversationID))
	}
}
