// Package resolver finds or creates the conversation between two profiles.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/chatwave/internal/model"
	"go.uber.org/zap"
)

// ErrInvalidPair is returned for an empty id or a conversation with oneself.
var ErrInvalidPair = errors.New("invalid conversation pair")

// Store is the part of the gateway the resolver needs.
type Store interface {
	QueryConversation(ctx context.Context, one, two string) (*model.Conversation, error)
	InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error)
}

// Resolver maps an unordered pair of profiles to one conversation. Calls for
// the same pair are serialized within the process; concurrent resolution
// from separate processes can still create two conversations.
type Resolver struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a resolver over store.
func New(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger, locks: make(map[string]*pairLock)}
}

// Resolve returns the conversation between selfID and otherID, creating it
// as (selfID, otherID) if neither ordering exists.
func (r *Resolver) Resolve(ctx context.Context, selfID, otherID string) (*model.Conversation, error) {
	if selfID == "" || otherID == "" || selfID == otherID {
		return nil, fmt.Errorf("%w: %q and %q", ErrInvalidPair, selfID, otherID)
	}

	unlock := r.lock(pairKey(selfID, otherID))
	defer unlock()

	for _, pair := range [2][2]string{{selfID, otherID}, {otherID, selfID}} {
		c, err := r.store.QueryConversation(ctx, pair[0], pair[1])
		if err != nil {
			return nil, fmt.Errorf("query conversation: %w", err)
		}
		if c != nil {
			return c, nil
		}
	}

	c, err := r.store.InsertConversation(ctx, selfID, otherID)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	r.logger.Info("conversation created",
		zap.String("conversation", c.ID),
		zap.String("one", selfID),
		zap.String("two", otherID),
	)
	return c, nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

func (r *Resolver) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &pairLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
