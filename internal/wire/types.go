package wire

import (
	"time"

	"github.com/matheus3301/chatwave/internal/model"
)

type Profile struct {
	ID          string `cbor:"id"`
	Username    string `cbor:"username"`
	AvatarIndex int    `cbor:"avatar_index"`
	Online      bool   `cbor:"online"`
	LastSeenMs  int64  `cbor:"last_seen_ms"`
	CreatedAtMs int64  `cbor:"created_at_ms"`
}

type Conversation struct {
	ID             string `cbor:"id"`
	ParticipantOne string `cbor:"participant_one"`
	ParticipantTwo string `cbor:"participant_two"`
	CreatedAtMs    int64  `cbor:"created_at_ms"`
	UpdatedAtMs    int64  `cbor:"updated_at_ms"`
}

type Message struct {
	ID             string  `cbor:"id"`
	Seq            int64   `cbor:"seq"`
	ConversationID string  `cbor:"conversation_id"`
	SenderID       string  `cbor:"sender_id"`
	Kind           string  `cbor:"kind"`
	Content        *string `cbor:"content,omitempty"`
	MediaRef       *string `cbor:"media_ref,omitempty"`
	CreatedAtMs    int64   `cbor:"created_at_ms"`
	Read           bool    `cbor:"read"`
}

// Requests.

type Empty struct{}

type ParticipantRequest struct {
	ParticipantID string `cbor:"participant_id"`
}

type PairRequest struct {
	One string `cbor:"one"`
	Two string `cbor:"two"`
}

type IDRequest struct {
	ID string `cbor:"id"`
}

type UsernameRequest struct {
	Username string `cbor:"username"`
}

type SearchRequest struct {
	Query     string `cbor:"query"`
	ExcludeID string `cbor:"exclude_id"`
	Limit     int    `cbor:"limit"`
}

type NewMessage struct {
	ConversationID string `cbor:"conversation_id"`
	SenderID       string `cbor:"sender_id"`
	Kind           string `cbor:"kind"`
	Content        string `cbor:"content,omitempty"`
	MediaRef       string `cbor:"media_ref,omitempty"`
}

type ActivityRequest struct {
	ConversationID string `cbor:"conversation_id"`
	AtMs           int64  `cbor:"at_ms"`
}

type OnlineRequest struct {
	ProfileID string `cbor:"profile_id"`
	Online    bool   `cbor:"online"`
}

type AvatarRequest struct {
	ProfileID string `cbor:"profile_id"`
	Index     int    `cbor:"index"`
}

// Replies. A nil pointer field means "not found".

type ProfileReply struct {
	Profile *Profile `cbor:"profile"`
}

type ProfileList struct {
	Profiles []Profile `cbor:"profiles"`
}

type ConversationReply struct {
	Conversation *Conversation `cbor:"conversation"`
}

type ConversationList struct {
	Conversations []Conversation `cbor:"conversations"`
}

type MessageReply struct {
	Message *Message `cbor:"message"`
}

type MessageList struct {
	Messages []Message `cbor:"messages"`
}

type StatsReply struct {
	Instance      string `cbor:"instance"`
	Profiles      int64  `cbor:"profiles"`
	Conversations int64  `cbor:"conversations"`
	Messages      int64  `cbor:"messages"`
	Subscribers   int    `cbor:"subscribers"`
	Dropped       uint64 `cbor:"dropped"`
	Overflows     uint64 `cbor:"overflows"`
	UptimeMs      int64  `cbor:"uptime_ms"`
}

// Beacon is the presence datagram sent on the teardown path.
type Beacon struct {
	ProfileID string `cbor:"profile_id"`
	Online    bool   `cbor:"online"`
	SentAtMs  int64  `cbor:"sent_at_ms"`
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Time converts wire milliseconds back to a time.Time.
func Time(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func FromProfile(p *model.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:          p.ID,
		Username:    p.Username,
		AvatarIndex: p.AvatarIndex,
		Online:      p.Online,
		LastSeenMs:  millis(p.LastSeen),
		CreatedAtMs: millis(p.CreatedAt),
	}
}

func (p *Profile) Model() *model.Profile {
	if p == nil {
		return nil
	}
	return &model.Profile{
		ID:          p.ID,
		Username:    p.Username,
		AvatarIndex: p.AvatarIndex,
		Online:      p.Online,
		LastSeen:    Time(p.LastSeenMs),
		CreatedAt:   Time(p.CreatedAtMs),
	}
}

func FromConversation(c *model.Conversation) *Conversation {
	if c == nil {
		return nil
	}
	return &Conversation{
		ID:             c.ID,
		ParticipantOne: c.ParticipantOne,
		ParticipantTwo: c.ParticipantTwo,
		CreatedAtMs:    millis(c.CreatedAt),
		UpdatedAtMs:    millis(c.UpdatedAt),
	}
}

func (c *Conversation) Model() *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		ID:             c.ID,
		ParticipantOne: c.ParticipantOne,
		ParticipantTwo: c.ParticipantTwo,
		CreatedAt:      Time(c.CreatedAtMs),
		UpdatedAt:      Time(c.UpdatedAtMs),
	}
}

func FromMessage(m *model.Message) *Message {
	if m == nil {
		return nil
	}
	return &Message{
		ID:             m.ID,
		Seq:            m.Seq,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Kind:           string(m.Kind),
		Content:        m.Content,
		MediaRef:       m.MediaRef,
		CreatedAtMs:    millis(m.CreatedAt),
		Read:           m.Read,
	}
}

func (m *Message) Model() *model.Message {
	if m == nil {
		return nil
	}
	return &model.Message{
		ID:             m.ID,
		Seq:            m.Seq,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Kind:           model.Kind(m.Kind),
		Content:        m.Content,
		MediaRef:       m.MediaRef,
		CreatedAt:      Time(m.CreatedAtMs),
		Read:           m.Read,
	}
}

func FromNewMessage(n *model.NewMessage) *NewMessage {
	return &NewMessage{
		ConversationID: n.ConversationID,
		SenderID:       n.SenderID,
		Kind:           string(n.Kind),
		Content:        n.Content,
		MediaRef:       n.MediaRef,
	}
}

func (n *NewMessage) Model() *model.NewMessage {
	return &model.NewMessage{
		ConversationID: n.ConversationID,
		SenderID:       n.SenderID,
		Kind:           model.Kind(n.Kind),
		Content:        n.Content,
		MediaRef:       n.MediaRef,
	}
}
