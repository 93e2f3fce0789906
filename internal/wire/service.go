package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chatwave.v1.Gateway"

// Method names.
const (
	MethodQueryConversations         = "QueryConversations"
	MethodQueryConversation          = "QueryConversation"
	MethodQueryProfile               = "QueryProfile"
	MethodQueryProfileByUsername     = "QueryProfileByUsername"
	MethodSearchProfiles             = "SearchProfiles"
	MethodQueryLatestMessage         = "QueryLatestMessage"
	MethodQueryMessages              = "QueryMessages"
	MethodInsertProfile              = "InsertProfile"
	MethodInsertConversation         = "InsertConversation"
	MethodInsertMessage              = "InsertMessage"
	MethodUpdateConversationActivity = "UpdateConversationActivity"
	MethodUpdateProfileOnline        = "UpdateProfileOnline"
	MethodUpdateProfileAvatar        = "UpdateProfileAvatar"
	MethodStats                      = "Stats"
	MethodSubscribeMessageInserts    = "SubscribeMessageInserts"
)

// FullMethod returns the path used by grpc.ClientConn.Invoke for name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// GatewayServer is the server side of the Gateway service.
type GatewayServer interface {
	QueryConversations(context.Context, *ParticipantRequest) (*ConversationList, error)
	QueryConversation(context.Context, *PairRequest) (*ConversationReply, error)
	QueryProfile(context.Context, *IDRequest) (*ProfileReply, error)
	QueryProfileByUsername(context.Context, *UsernameRequest) (*ProfileReply, error)
	SearchProfiles(context.Context, *SearchRequest) (*ProfileList, error)
	QueryLatestMessage(context.Context, *IDRequest) (*MessageReply, error)
	QueryMessages(context.Context, *IDRequest) (*MessageList, error)
	InsertProfile(context.Context, *UsernameRequest) (*ProfileReply, error)
	InsertConversation(context.Context, *PairRequest) (*ConversationReply, error)
	InsertMessage(context.Context, *NewMessage) (*MessageReply, error)
	UpdateConversationActivity(context.Context, *ActivityRequest) (*Empty, error)
	UpdateProfileOnline(context.Context, *OnlineRequest) (*Empty, error)
	UpdateProfileAvatar(context.Context, *AvatarRequest) (*Empty, error)
	Stats(context.Context, *Empty) (*StatsReply, error)
	SubscribeMessageInserts(*Empty, InsertStream) error
}

// InsertStream is the server side of the SubscribeMessageInserts stream.
type InsertStream interface {
	Send(*Message) error
	Context() context.Context
}

type insertStream struct {
	grpc.ServerStream
}

func (s *insertStream) Send(m *Message) error {
	return s.ServerStream.SendMsg(m)
}

// RegisterGatewayServer registers srv on s.
func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&GatewayServiceDesc, srv)
}

// GatewayServiceDesc describes the Gateway service for grpc.Server.
var GatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodQueryConversations, GatewayServer.QueryConversations),
		unary(MethodQueryConversation, GatewayServer.QueryConversation),
		unary(MethodQueryProfile, GatewayServer.QueryProfile),
		unary(MethodQueryProfileByUsername, GatewayServer.QueryProfileByUsername),
		unary(MethodSearchProfiles, GatewayServer.SearchProfiles),
		unary(MethodQueryLatestMessage, GatewayServer.QueryLatestMessage),
		unary(MethodQueryMessages, GatewayServer.QueryMessages),
		unary(MethodInsertProfile, GatewayServer.InsertProfile),
		unary(MethodInsertConversation, GatewayServer.InsertConversation),
		unary(MethodInsertMessage, GatewayServer.InsertMessage),
		unary(MethodUpdateConversationActivity, GatewayServer.UpdateConversationActivity),
		unary(MethodUpdateProfileOnline, GatewayServer.UpdateProfileOnline),
		unary(MethodUpdateProfileAvatar, GatewayServer.UpdateProfileAvatar),
		unary(MethodStats, GatewayServer.Stats),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodSubscribeMessageInserts,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "chatwave/v1/gateway",
}

func unary[Req, Resp any](name string, call func(GatewayServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GatewayServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GatewayServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GatewayServer).SubscribeMessageInserts(in, &insertStream{stream})
}

// SubscribeStreamDesc is the client-side descriptor for NewStream.
var SubscribeStreamDesc = grpc.StreamDesc{
	StreamName:    MethodSubscribeMessageInserts,
	ServerStreams: true,
}
