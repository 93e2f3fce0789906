// Package sync merges the live insert feed into the client caches.
package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/status"
	"go.uber.org/zap"
)

// ErrRunning is returned by Start when the dispatcher already holds a feed.
var ErrRunning = errors.New("dispatcher already running")

const refreshTimeout = 10 * time.Second

// Subscriber opens the insert feed.
type Subscriber interface {
	SubscribeMessageInserts(ctx context.Context) (gateway.Subscription, error)
}

// Appender receives messages for the open conversation.
type Appender interface {
	Append(msg model.Message) bool
}

// Refresher recomputes the conversation list.
type Refresher interface {
	Refresh(ctx context.Context, selfID string) ([]model.Summary, error)
}

// Dispatcher owns the session's single insert subscription. Each
// notification is offered to the stream and then triggers a directory
// refresh, whichever conversation it belongs to. Notifications are handled
// one at a time in arrival order.
type Dispatcher struct {
	src     Subscriber
	stream  Appender
	dir     Refresher
	machine *status.Machine
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	handled  atomic.Uint64
	appended atomic.Uint64
}

// NewDispatcher creates a stopped dispatcher. machine may be nil.
func NewDispatcher(src Subscriber, stream Appender, dir Refresher, machine *status.Machine, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		src:     src,
		stream:  stream,
		dir:     dir,
		machine: machine,
		logger:  logger,
	}
}

// Start opens the subscription for selfID and begins dispatching.
func (d *Dispatcher) Start(ctx context.Context, selfID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	sub, err := d.src.SubscribeMessageInserts(ctx)
	if err != nil {
		cancel()
		return err
	}
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, sub, selfID, d.done)

	d.logger.Info("dispatcher started", zap.String("self", selfID))
	return nil
}

// Stop closes the subscription and waits for the dispatch loop to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	d.logger.Info("dispatcher stopped",
		zap.Uint64("handled", d.handled.Load()),
		zap.Uint64("appended", d.appended.Load()),
	)
}

// Running reports whether the dispatch loop holds a subscription. It turns
// false as soon as the feed is lost.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// Handled returns how many notifications were processed.
func (d *Dispatcher) Handled() uint64 {
	return d.handled.Load()
}

func (d *Dispatcher) run(ctx context.Context, sub gateway.Subscription, selfID string, done chan struct{}) {
	defer close(done)
	defer sub.Close()

	for {
		select {
		case m := <-sub.Messages():
			d.handle(ctx, selfID, m)
		case <-sub.Done():
			d.drain(ctx, sub, selfID)
			if ctx.Err() != nil {
				return
			}
			d.release(done)
			d.lost(sub.Err())
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context, sub gateway.Subscription, selfID string) {
	for {
		select {
		case m := <-sub.Messages():
			d.handle(ctx, selfID, m)
		default:
			return
		}
	}
}

// release clears the running state when the loop for done ends on its own,
// so a later Start can subscribe again.
func (d *Dispatcher) release(done chan struct{}) {
	d.mu.Lock()
	if d.done != done {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	cancel()
}

// lost marks the session stale. The subscription is not reopened.
func (d *Dispatcher) lost(err error) {
	d.logger.Warn("insert feed lost", zap.Error(err))
	if d.machine != nil {
		if terr := d.machine.Transition(status.Stale); terr != nil {
			d.logger.Debug("stale transition skipped", zap.Error(terr))
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, selfID string, m model.Message) {
	d.handled.Add(1)
	if d.stream.Append(m) {
		d.appended.Add(1)
	}

	rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	if _, err := d.dir.Refresh(rctx, selfID); err != nil {
		d.logger.Warn("directory refresh after insert failed",
			zap.String("conversation", m.ConversationID), zap.Error(err))
	}
}
