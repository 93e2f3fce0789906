package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/chatwave/internal/bus"
)

// State represents the client session state.
type State string

const (
	SignedOut State = "SIGNED_OUT"
	SigningIn State = "SIGNING_IN"
	Live      State = "LIVE"
	Stale     State = "STALE"
	Error     State = "ERROR"
)

// validTransitions defines allowed state transitions. STALE is only left by
// signing out: a reload refreshes data but does not restore the live feed.
var validTransitions = map[State][]State{
	SignedOut: {SigningIn},
	SigningIn: {Live, SignedOut, Error},
	Live:      {Stale, SignedOut, Error},
	Stale:     {SignedOut, Error},
	Error:     {SignedOut},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in SignedOut state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: SignedOut,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.NewEvent(bus.KindStatusChanged, StatusChange{From: from, To: to}))
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
