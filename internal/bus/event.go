package bus

import "time"

// Event kinds published by chatwave components.
const (
	KindMessageInserted  = "message.inserted"
	KindDirectoryRefresh = "directory.refreshed"
	KindStreamChanged    = "stream.changed"
	KindStatusChanged    = "session.status_changed"
	KindPresenceChanged  = "presence.changed"
	KindProfileUpdated   = "profile.updated"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
