package api

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/store"
	"github.com/matheus3301/chatwave/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
)

// GatewayService implements the Gateway gRPC service on top of an
// in-process gateway.
type GatewayService struct {
	instance  string
	startedAt time.Time
	gw        gateway.Gateway
	db        *store.DB
	bus       *bus.Bus
	logger    *zap.Logger
}

var _ wire.GatewayServer = (*GatewayService)(nil)

// NewGatewayService creates the service. db and b feed Stats only.
func NewGatewayService(instance string, gw gateway.Gateway, db *store.DB, b *bus.Bus, logger *zap.Logger) *GatewayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayService{
		instance:  instance,
		startedAt: time.Now(),
		gw:        gw,
		db:        db,
		bus:       b,
		logger:    logger,
	}
}

// toStatus maps store errors to gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return grpcstatus.Errorf(codes.NotFound, "%s: %v", op, err)
	case errors.Is(err, model.ErrInvalidMessage):
		return grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, context.Canceled):
		return grpcstatus.Errorf(codes.Canceled, "%s: %v", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Errorf(codes.DeadlineExceeded, "%s: %v", op, err)
	}
	return grpcstatus.Errorf(codes.Internal, "%s: %v", op, err)
}

func (s *GatewayService) QueryConversations(ctx context.Context, req *wire.ParticipantRequest) (*wire.ConversationList, error) {
	convs, err := s.gw.QueryConversations(ctx, req.ParticipantID)
	if err != nil {
		return nil, toStatus("query conversations", err)
	}
	out := &wire.ConversationList{Conversations: make([]wire.Conversation, 0, len(convs))}
	for i := range convs {
		out.Conversations = append(out.Conversations, *wire.FromConversation(&convs[i]))
	}
	return out, nil
}

func (s *GatewayService) QueryConversation(ctx context.Context, req *wire.PairRequest) (*wire.ConversationReply, error) {
	c, err := s.gw.QueryConversation(ctx, req.One, req.Two)
	if err != nil {
		return nil, toStatus("query conversation", err)
	}
	return &wire.ConversationReply{Conversation: wire.FromConversation(c)}, nil
}

func (s *GatewayService) QueryProfile(ctx context.Context, req *wire.IDRequest) (*wire.ProfileReply, error) {
	p, err := s.gw.QueryProfile(ctx, req.ID)
	if err != nil {
		return nil, toStatus("query profile", err)
	}
	return &wire.ProfileReply{Profile: wire.FromProfile(p)}, nil
}

func (s *GatewayService) QueryProfileByUsername(ctx context.Context, req *wire.UsernameRequest) (*wire.ProfileReply, error) {
	p, err := s.gw.QueryProfileByUsername(ctx, req.Username)
	if err != nil {
		return nil, toStatus("query profile by username", err)
	}
	return &wire.ProfileReply{Profile: wire.FromProfile(p)}, nil
}

func (s *GatewayService) SearchProfiles(ctx context.Context, req *wire.SearchRequest) (*wire.ProfileList, error) {
	profiles, err := s.gw.SearchProfiles(ctx, req.Query, req.ExcludeID, req.Limit)
	if err != nil {
		return nil, toStatus("search profiles", err)
	}
	out := &wire.ProfileList{Profiles: make([]wire.Profile, 0, len(profiles))}
	for i := range profiles {
		out.Profiles = append(out.Profiles, *wire.FromProfile(&profiles[i]))
	}
	return out, nil
}

func (s *GatewayService) QueryLatestMessage(ctx context.Context, req *wire.IDRequest) (*wire.MessageReply, error) {
	m, err := s.gw.QueryLatestMessage(ctx, req.ID)
	if err != nil {
		return nil, toStatus("query latest message", err)
	}
	return &wire.MessageReply{Message: wire.FromMessage(m)}, nil
}

func (s *GatewayService) QueryMessages(ctx context.Context, req *wire.IDRequest) (*wire.MessageList, error) {
	msgs, err := s.gw.QueryMessages(ctx, req.ID)
	if err != nil {
		return nil, toStatus("query messages", err)
	}
	out := &wire.MessageList{Messages: make([]wire.Message, 0, len(msgs))}
	for i := range msgs {
		out.Messages = append(out.Messages, *wire.FromMessage(&msgs[i]))
	}
	return out, nil
}

func (s *GatewayService) InsertProfile(ctx context.Context, req *wire.UsernameRequest) (*wire.ProfileReply, error) {
	if req.Username == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "username is required")
	}
	p, err := s.gw.InsertProfile(ctx, req.Username)
	if err != nil {
		return nil, toStatus("insert profile", err)
	}
	s.logger.Info("profile registered", zap.String("id", p.ID), zap.String("username", p.Username))
	return &wire.ProfileReply{Profile: wire.FromProfile(p)}, nil
}

func (s *GatewayService) InsertConversation(ctx context.Context, req *wire.PairRequest) (*wire.ConversationReply, error) {
	c, err := s.gw.InsertConversation(ctx, req.One, req.Two)
	if err != nil {
		return nil, toStatus("insert conversation", err)
	}
	return &wire.ConversationReply{Conversation: wire.FromConversation(c)}, nil
}

func (s *GatewayService) InsertMessage(ctx context.Context, req *wire.NewMessage) (*wire.MessageReply, error) {
	m, err := s.gw.InsertMessage(ctx, req.Model())
	if err != nil {
		return nil, toStatus("insert message", err)
	}
	return &wire.MessageReply{Message: wire.FromMessage(m)}, nil
}

func (s *GatewayService) UpdateConversationActivity(ctx context.Context, req *wire.ActivityRequest) (*wire.Empty, error) {
	if err := s.gw.UpdateConversationActivity(ctx, req.ConversationID, wire.Time(req.AtMs)); err != nil {
		return nil, toStatus("update conversation activity", err)
	}
	return &wire.Empty{}, nil
}

func (s *GatewayService) UpdateProfileOnline(ctx context.Context, req *wire.OnlineRequest) (*wire.Empty, error) {
	if err := s.gw.UpdateProfileOnline(ctx, req.ProfileID, req.Online); err != nil {
		return nil, toStatus("update profile online", err)
	}
	return &wire.Empty{}, nil
}

func (s *GatewayService) UpdateProfileAvatar(ctx context.Context, req *wire.AvatarRequest) (*wire.Empty, error) {
	if err := s.gw.UpdateProfileAvatar(ctx, req.ProfileID, req.Index); err != nil {
		return nil, toStatus("update profile avatar", err)
	}
	return &wire.Empty{}, nil
}

// feedStats is implemented by gateways that own their insert feeds.
type feedStats interface {
	Subscribers() int
	Overflows() uint64
}

func (s *GatewayService) Stats(ctx context.Context, _ *wire.Empty) (*wire.StatsReply, error) {
	reply := &wire.StatsReply{
		Instance: s.instance,
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}
	if s.db != nil {
		st, err := s.db.Stats(ctx)
		if err != nil {
			return nil, toStatus("stats", err)
		}
		reply.Profiles = st.Profiles
		reply.Conversations = st.Conversations
		reply.Messages = st.Messages
	}
	if fs, ok := s.gw.(feedStats); ok {
		reply.Subscribers = fs.Subscribers()
		reply.Overflows = fs.Overflows()
	}
	if s.bus != nil {
		reply.Dropped = s.bus.Dropped()
	}
	return reply, nil
}

// SubscribeMessageInserts forwards inserted messages until the client goes
// away. Headers are sent once the subscription is live.
func (s *GatewayService) SubscribeMessageInserts(_ *wire.Empty, stream wire.InsertStream) error {
	ctx := stream.Context()
	sub, err := s.gw.SubscribeMessageInserts(ctx)
	if err != nil {
		return toStatus("subscribe", err)
	}
	defer sub.Close()

	if err := grpc.SendHeader(ctx, metadata.Pairs("instance", s.instance)); err != nil {
		return err
	}
	s.logger.Debug("insert stream opened")

	for {
		select {
		case m := <-sub.Messages():
			if err := stream.Send(wire.FromMessage(&m)); err != nil {
				return err
			}
		case <-sub.Done():
			if err := sub.Err(); err != nil {
				return grpcstatus.Errorf(codes.Unavailable, "insert stream: %v", err)
			}
			return nil
		case <-ctx.Done():
			s.logger.Debug("insert stream closed")
			return nil
		}
	}
}
