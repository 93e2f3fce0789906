package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	grpcstatus "google.golang.org/grpc/status"
)

// Client implements Gateway over the daemon's gRPC socket.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
	logger *zap.Logger
}

var _ Gateway = (*Client)(nil)

// Target turns a socket path or host:port into a gRPC dial target.
func Target(address string) string {
	if address == "" {
		return ""
	}
	if address[0] == '/' {
		return "unix://" + address
	}
	return address
}

// Dial connects to the daemon at address (a Unix socket path or host:port).
func Dial(address string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := grpc.NewClient(
		Target(address),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(wire.CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn), logger: logger}, nil
}

// Close closes the connection. Live subscriptions end with an error.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Probe runs a gRPC health check against the daemon.
func (c *Client) Probe(ctx context.Context) error {
	// Health messages are protobuf; override the default cbor subtype.
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: wire.ServiceName}, grpc.CallContentSubtype("proto"))
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("daemon not serving: %s", resp.GetStatus())
	}
	return nil
}

// Stats returns the daemon's store counters.
func (c *Client) Stats(ctx context.Context) (*wire.StatsReply, error) {
	out := new(wire.StatsReply)
	if err := c.invoke(ctx, wire.MethodStats, &wire.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if err := c.conn.Invoke(ctx, wire.FullMethod(method), in, out); err != nil {
		return fromStatus(err)
	}
	return nil
}

// fromStatus maps gRPC status codes back to the sentinel errors.
func fromStatus(err error) error {
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), model.ErrNotFound)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), model.ErrInvalidMessage)
	}
	return err
}

func (c *Client) QueryConversations(ctx context.Context, participantID string) ([]model.Conversation, error) {
	out := new(wire.ConversationList)
	if err := c.invoke(ctx, wire.MethodQueryConversations, &wire.ParticipantRequest{ParticipantID: participantID}, out); err != nil {
		return nil, err
	}
	convs := make([]model.Conversation, 0, len(out.Conversations))
	for i := range out.Conversations {
		convs = append(convs, *out.Conversations[i].Model())
	}
	return convs, nil
}

func (c *Client) QueryConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	out := new(wire.ConversationReply)
	if err := c.invoke(ctx, wire.MethodQueryConversation, &wire.PairRequest{One: one, Two: two}, out); err != nil {
		return nil, err
	}
	return out.Conversation.Model(), nil
}

func (c *Client) QueryProfile(ctx context.Context, id string) (*model.Profile, error) {
	out := new(wire.ProfileReply)
	if err := c.invoke(ctx, wire.MethodQueryProfile, &wire.IDRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out.Profile.Model(), nil
}

func (c *Client) QueryProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	out := new(wire.ProfileReply)
	if err := c.invoke(ctx, wire.MethodQueryProfileByUsername, &wire.UsernameRequest{Username: username}, out); err != nil {
		return nil, err
	}
	return out.Profile.Model(), nil
}

func (c *Client) SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]model.Profile, error) {
	out := new(wire.ProfileList)
	req := &wire.SearchRequest{Query: query, ExcludeID: excludeID, Limit: limit}
	if err := c.invoke(ctx, wire.MethodSearchProfiles, req, out); err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(out.Profiles))
	for i := range out.Profiles {
		profiles = append(profiles, *out.Profiles[i].Model())
	}
	return profiles, nil
}

func (c *Client) QueryLatestMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	out := new(wire.MessageReply)
	if err := c.invoke(ctx, wire.MethodQueryLatestMessage, &wire.IDRequest{ID: conversationID}, out); err != nil {
		return nil, err
	}
	return out.Message.Model(), nil
}

func (c *Client) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	out := new(wire.MessageList)
	if err := c.invoke(ctx, wire.MethodQueryMessages, &wire.IDRequest{ID: conversationID}, out); err != nil {
		return nil, err
	}
	msgs := make([]model.Message, 0, len(out.Messages))
	for i := range out.Messages {
		msgs = append(msgs, *out.Messages[i].Model())
	}
	return msgs, nil
}

func (c *Client) InsertProfile(ctx context.Context, username string) (*model.Profile, error) {
	out := new(wire.ProfileReply)
	if err := c.invoke(ctx, wire.MethodInsertProfile, &wire.UsernameRequest{Username: username}, out); err != nil {
		return nil, err
	}
	if out.Profile == nil {
		return nil, errors.New("insert profile: empty reply")
	}
	return out.Profile.Model(), nil
}

func (c *Client) InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	out := new(wire.ConversationReply)
	if err := c.invoke(ctx, wire.MethodInsertConversation, &wire.PairRequest{One: one, Two: two}, out); err != nil {
		return nil, err
	}
	if out.Conversation == nil {
		return nil, errors.New("insert conversation: empty reply")
	}
	return out.Conversation.Model(), nil
}

func (c *Client) InsertMessage(ctx context.Context, msg *model.NewMessage) (*model.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	out := new(wire.MessageReply)
	if err := c.invoke(ctx, wire.MethodInsertMessage, wire.FromNewMessage(msg), out); err != nil {
		return nil, err
	}
	if out.Message == nil {
		return nil, errors.New("insert message: empty reply")
	}
	return out.Message.Model(), nil
}

func (c *Client) UpdateConversationActivity(ctx context.Context, conversationID string, at time.Time) error {
	req := &wire.ActivityRequest{ConversationID: conversationID, AtMs: at.UnixMilli()}
	return c.invoke(ctx, wire.MethodUpdateConversationActivity, req, new(wire.Empty))
}

func (c *Client) UpdateProfileOnline(ctx context.Context, profileID string, online bool) error {
	req := &wire.OnlineRequest{ProfileID: profileID, Online: online}
	return c.invoke(ctx, wire.MethodUpdateProfileOnline, req, new(wire.Empty))
}

func (c *Client) UpdateProfileAvatar(ctx context.Context, profileID string, index int) error {
	req := &wire.AvatarRequest{ProfileID: profileID, Index: index}
	return c.invoke(ctx, wire.MethodUpdateProfileAvatar, req, new(wire.Empty))
}

// SubscribeMessageInserts opens the server stream. It returns once the daemon
// has acknowledged the subscription, so inserts after that point are seen.
func (c *Client) SubscribeMessageInserts(ctx context.Context) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.conn.NewStream(ctx, &wire.SubscribeStreamDesc, wire.FullMethod(wire.MethodSubscribeMessageInserts))
	if err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	if err := stream.SendMsg(&wire.Empty{}); err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	if _, err := stream.Header(); err != nil {
		cancel()
		return nil, fromStatus(err)
	}

	f := newFeed(64, cancel)
	go func() {
		for {
			var m wire.Message
			if err := stream.RecvMsg(&m); err != nil {
				if ctx.Err() != nil {
					f.finish(nil)
					return
				}
				if errors.Is(err, io.EOF) {
					err = ErrClosed
				}
				c.logger.Warn("insert stream ended", zap.Error(err))
				f.finish(fromStatus(err))
				return
			}
			if !f.deliver(*m.Model(), ctx.Done()) {
				f.finish(nil)
				return
			}
		}
	}()
	return f, nil
}
