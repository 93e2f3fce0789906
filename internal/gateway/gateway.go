// Package gateway defines the contract between the realtime core and the
// durable store, and its implementations: Local (in-process, over the SQLite
// store and event bus) and Client (gRPC, talking to wavestored).
package gateway

import (
	"context"
	"time"

	"github.com/matheus3301/chatwave/internal/model"
)

// Gateway is the remote store contract consumed by the core. Lookups report
// a miss as a nil result with a nil error.
type Gateway interface {
	QueryConversations(ctx context.Context, participantID string) ([]model.Conversation, error)
	QueryConversation(ctx context.Context, one, two string) (*model.Conversation, error)
	QueryProfile(ctx context.Context, id string) (*model.Profile, error)
	QueryProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]model.Profile, error)
	QueryLatestMessage(ctx context.Context, conversationID string) (*model.Message, error)
	QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	InsertProfile(ctx context.Context, username string) (*model.Profile, error)
	InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error)
	InsertMessage(ctx context.Context, msg *model.NewMessage) (*model.Message, error)

	UpdateConversationActivity(ctx context.Context, conversationID string, at time.Time) error
	UpdateProfileOnline(ctx context.Context, profileID string, online bool) error
	UpdateProfileAvatar(ctx context.Context, profileID string, index int) error

	SubscribeMessageInserts(ctx context.Context) (Subscription, error)
}

// Subscription is a live feed of newly inserted messages. Delivery is
// at-least-once while the subscription is live; ordering across
// conversations is not guaranteed. Done is closed when the feed ends, after
// which Err reports why (nil after Close).
type Subscription interface {
	Messages() <-chan model.Message
	Done() <-chan struct{}
	Err() error
	Close()
}
