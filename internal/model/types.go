package model

import (
	"fmt"
	"time"
)

// Kind is the payload kind of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVoice Kind = "voice"
)

// Valid reports whether k is one of the known payload kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVoice:
		return true
	}
	return false
}

// Profile is a user's public record.
type Profile struct {
	ID          string
	Username    string
	AvatarIndex int
	Online      bool
	LastSeen    time.Time
	CreatedAt   time.Time
}

// Conversation pairs exactly two participants. The pair is unordered:
// (A,B) and (B,A) denote the same conversation.
type Conversation struct {
	ID             string
	ParticipantOne string
	ParticipantTwo string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasParticipant reports whether id is one of the two participants.
func (c *Conversation) HasParticipant(id string) bool {
	return c.ParticipantOne == id || c.ParticipantTwo == id
}

// OtherParticipant returns the participant that is not self.
func (c *Conversation) OtherParticipant(self string) string {
	if c.ParticipantOne == self {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}

// Message is an immutable unit of content in a conversation.
type Message struct {
	ID             string
	Seq            int64 // store insertion order, breaks CreatedAt ties
	ConversationID string
	SenderID       string
	Kind           Kind
	Content        *string // text only
	MediaRef       *string // image and voice only
	CreatedAt      time.Time
	Read           bool
}

// Less orders messages by creation time, then by insertion order.
func (m *Message) Less(o *Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.Seq < o.Seq
}

// Text returns the text body, or "" for media messages.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// NewMessage is an insert request for a message.
type NewMessage struct {
	ConversationID string
	SenderID       string
	Kind           Kind
	Content        string
	MediaRef       string
}

// Validate checks the kind/content invariants: text carries content and no
// media reference, image and voice carry a media reference and no content.
func (n *NewMessage) Validate() error {
	if n.ConversationID == "" || n.SenderID == "" {
		return fmt.Errorf("%w: conversation and sender are required", ErrInvalidMessage)
	}
	switch n.Kind {
	case KindText:
		if n.Content == "" {
			return fmt.Errorf("%w: text message without content", ErrInvalidMessage)
		}
		if n.MediaRef != "" {
			return fmt.Errorf("%w: text message with media reference", ErrInvalidMessage)
		}
	case KindImage, KindVoice:
		if n.MediaRef == "" {
			return fmt.Errorf("%w: %s message without media reference", ErrInvalidMessage, n.Kind)
		}
		if n.Content != "" {
			return fmt.Errorf("%w: %s message with text content", ErrInvalidMessage, n.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, n.Kind)
	}
	return nil
}

// Summary is the derived directory entry for one conversation.
type Summary struct {
	Conversation Conversation
	Other        *Profile // nil if the profile could not be found
	Last         *Message // nil if the conversation has no messages yet
}

// Preview returns the one-line preview of the last message.
func (s *Summary) Preview() string {
	if s.Last == nil {
		return ""
	}
	switch s.Last.Kind {
	case KindImage:
		return "📷 Image"
	case KindVoice:
		return "🎤 Voice"
	}
	return s.Last.Text()
}
