package gateway

import (
	"sync"

	"github.com/matheus3301/chatwave/internal/model"
)

// feed is the Subscription implementation shared by Local and Client. The
// producer goroutine calls finish exactly once when it stops.
type feed struct {
	msgs   chan model.Message
	done   chan struct{}
	cancel func()

	mu  sync.Mutex
	err error

	closeOnce  sync.Once
	finishOnce sync.Once
}

func newFeed(buf int, cancel func()) *feed {
	return &feed{
		msgs:   make(chan model.Message, buf),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

func (f *feed) Messages() <-chan model.Message { return f.msgs }

func (f *feed) Done() <-chan struct{} { return f.done }

func (f *feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops the feed. Err stays nil for a closed feed.
func (f *feed) Close() {
	f.closeOnce.Do(func() {
		f.cancel()
	})
	<-f.done
}

// deliver hands a message to the consumer, giving up when stop fires.
func (f *feed) deliver(m model.Message, stop <-chan struct{}) bool {
	select {
	case f.msgs <- m:
		return true
	case <-stop:
		return false
	}
}

// offer hands a message to the consumer without waiting. It reports false
// when the buffer is full.
func (f *feed) offer(m model.Message) bool {
	select {
	case f.msgs <- m:
		return true
	default:
		return false
	}
}

func (f *feed) finish(err error) {
	f.finishOnce.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}
