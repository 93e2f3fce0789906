package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrClosed is reported by a subscription whose source was shut down.
	ErrClosed = errors.New("gateway closed")

	// ErrOverflow ends a subscription whose reader fell a full buffer
	// behind. Messages are never skipped on a live feed.
	ErrOverflow = errors.New("insert feed overflow")
)

// insertBuffer is how many undelivered inserts a Local subscription holds.
const insertBuffer = 256

// Local implements Gateway in-process over the SQLite store. Inserts go to
// every insert subscription directly and are also published on the bus.
type Local struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	closed chan struct{}

	mu        sync.Mutex
	feeds     map[*feed]struct{}
	overflows atomic.Uint64
}

// NewLocal creates a gateway over db that publishes inserts on b.
func NewLocal(db *store.DB, b *bus.Bus, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		db:     db,
		bus:    b,
		logger: logger,
		closed: make(chan struct{}),
		feeds:  make(map[*feed]struct{}),
	}
}

// Shutdown ends every live subscription with ErrClosed.
func (l *Local) Shutdown() {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
}

func (l *Local) QueryConversations(ctx context.Context, participantID string) ([]model.Conversation, error) {
	return l.db.ListConversations(ctx, participantID)
}

func (l *Local) QueryConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	return l.db.FindConversation(ctx, one, two)
}

func (l *Local) QueryProfile(ctx context.Context, id string) (*model.Profile, error) {
	return l.db.GetProfile(ctx, id)
}

func (l *Local) QueryProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return l.db.GetProfileByUsername(ctx, username)
}

func (l *Local) SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]model.Profile, error) {
	return l.db.SearchProfiles(ctx, query, excludeID, limit)
}

func (l *Local) QueryLatestMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	return l.db.LatestMessage(ctx, conversationID)
}

func (l *Local) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return l.db.ListMessages(ctx, conversationID)
}

func (l *Local) InsertProfile(ctx context.Context, username string) (*model.Profile, error) {
	return l.db.InsertProfile(ctx, username)
}

func (l *Local) InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	return l.db.InsertConversation(ctx, one, two)
}

// InsertMessage stores the message and hands it to every insert
// subscription. A subscription that cannot take it ends with ErrOverflow.
func (l *Local) InsertMessage(ctx context.Context, msg *model.NewMessage) (*model.Message, error) {
	m, err := l.db.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for f := range l.feeds {
		if f.offer(*m) {
			continue
		}
		delete(l.feeds, f)
		l.overflows.Add(1)
		l.logger.Warn("insert subscriber fell behind, ending its feed", zap.Int("buffer", insertBuffer))
		f.finish(ErrOverflow)
		f.cancel()
	}
	l.mu.Unlock()

	l.bus.Publish(bus.NewEvent(bus.KindMessageInserted, *m))
	return m, nil
}

func (l *Local) UpdateConversationActivity(ctx context.Context, conversationID string, at time.Time) error {
	return l.db.TouchConversation(ctx, conversationID, at)
}

func (l *Local) UpdateProfileOnline(ctx context.Context, profileID string, online bool) error {
	if err := l.db.SetProfileOnline(ctx, profileID, online, time.Now()); err != nil {
		return err
	}
	l.bus.Publish(bus.NewEvent(bus.KindPresenceChanged, profileID))
	return nil
}

func (l *Local) UpdateProfileAvatar(ctx context.Context, profileID string, index int) error {
	if err := l.db.SetProfileAvatar(ctx, profileID, index); err != nil {
		return err
	}
	l.bus.Publish(bus.NewEvent(bus.KindProfileUpdated, profileID))
	return nil
}

// SubscribeMessageInserts registers a feed of inserted messages. The feed
// ends when ctx is cancelled, Close is called, the gateway shuts down, or
// the reader falls insertBuffer messages behind.
func (l *Local) SubscribeMessageInserts(ctx context.Context) (Subscription, error) {
	select {
	case <-l.closed:
		return nil, ErrClosed
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	f := newFeed(insertBuffer, cancel)
	l.mu.Lock()
	l.feeds[f] = struct{}{}
	l.mu.Unlock()

	go func() {
		select {
		case <-l.closed:
			f.finish(ErrClosed)
		case <-ctx.Done():
			f.finish(nil)
		}
		l.mu.Lock()
		delete(l.feeds, f)
		l.mu.Unlock()
	}()
	return f, nil
}

// Subscribers returns the number of live insert subscriptions.
func (l *Local) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.feeds)
}

// Overflows returns how many subscriptions were ended with ErrOverflow.
func (l *Local) Overflows() uint64 {
	return l.overflows.Load()
}
