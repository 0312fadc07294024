package adaptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "summitpoker.v1.PokerService"

// Method names. Requests and responses are google.protobuf.Struct.
const (
	MethodListRooms            = "ListRooms"
	MethodListUserRooms        = "ListUserRooms"
	MethodGetRoom              = "GetRoom"
	MethodCreateRoom           = "CreateRoom"
	MethodDeleteRoom           = "DeleteRoom"
	MethodCreateUser           = "CreateUser"
	MethodJoinRoom             = "JoinRoom"
	MethodUpdateDeck           = "UpdateDeck"
	MethodRenameRoom           = "RenameRoom"
	MethodToggleCountdown      = "ToggleCountdownOption"
	MethodToggleConfirmNewGame = "ToggleConfirmNewGame"
	MethodSetRoomOwner         = "SetRoomOwner"
	MethodStartCountdown       = "StartRevealCountdown"
	MethodCancelCountdown      = "CancelRevealCountdown"
	MethodPickCard             = "PickCard"
	MethodShowCards            = "ShowCards"
	MethodResetGame            = "ResetGame"
	MethodKickUser             = "KickUser"
	MethodBanUser              = "BanUser"
	MethodUnbanUser            = "UnbanUser"
	MethodEditUser             = "EditUser"
	MethodLogout               = "Logout"
	MethodSendChatMessage      = "SendChatMessage"
	MethodMarkChatSeen         = "MarkChatSeen"
	MethodGetStats             = "GetStats"
	MethodListTelemetry        = "ListTelemetry"
	MethodSearchTelemetry      = "SearchTelemetry"

	StreamWatchRoom       = "WatchRoom"
	StreamWatchRoomEvents = "WatchRoomEvents"
	StreamWatchChat       = "WatchChat"
)

// FullMethod returns the "/service/method" path of name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type unaryFunc func(ctx context.Context, in fields) (map[string]any, error)

type streamFunc func(ctx context.Context, in fields, send func(map[string]any) error) error

// PokerServiceServer is the handler type registered with grpc.Server.
type PokerServiceServer interface {
	ServiceDesc() *grpc.ServiceDesc
}

func unaryHandler(name string, fn unaryFunc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			out, err := fn(ctx, fieldsOf(req.(*structpb.Struct)))
			if err != nil {
				return nil, toStatus(err)
			}
			return toStruct(out)
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
		return interceptor(ctx, in, info, handler)
	}
}

func streamHandler(fn streamFunc) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(structpb.Struct)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		send := func(m map[string]any) error {
			out, err := toStruct(m)
			if err != nil {
				return err
			}
			return stream.SendMsg(out)
		}
		return toStatus(fn(stream.Context(), fieldsOf(in), send))
	}
}

// ServiceDesc describes the poker service over the adaptor's handlers.
func (a *Adaptor) ServiceDesc() *grpc.ServiceDesc {
	unary := map[string]unaryFunc{
		MethodListRooms:            a.listRooms,
		MethodListUserRooms:        a.listUserRooms,
		MethodGetRoom:              a.getRoom,
		MethodCreateRoom:           a.createRoom,
		MethodDeleteRoom:           a.deleteRoom,
		MethodCreateUser:           a.createUser,
		MethodJoinRoom:             a.joinRoom,
		MethodUpdateDeck:           a.updateDeck,
		MethodRenameRoom:           a.renameRoom,
		MethodToggleCountdown:      a.toggleCountdown,
		MethodToggleConfirmNewGame: a.toggleConfirmNewGame,
		MethodSetRoomOwner:         a.setRoomOwner,
		MethodStartCountdown:       a.startCountdown,
		MethodCancelCountdown:      a.cancelCountdown,
		MethodPickCard:             a.pickCard,
		MethodShowCards:            a.showCards,
		MethodResetGame:            a.resetGame,
		MethodKickUser:             a.kickUser,
		MethodBanUser:              a.banUser,
		MethodUnbanUser:            a.unbanUser,
		MethodEditUser:             a.editUser,
		MethodLogout:               a.logout,
		MethodSendChatMessage:      a.sendChatMessage,
		MethodMarkChatSeen:         a.markChatSeen,
		MethodGetStats:             a.getStats,
		MethodListTelemetry:        a.listTelemetry,
		MethodSearchTelemetry:      a.searchTelemetry,
	}
	desc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*PokerServiceServer)(nil),
		Streams: []grpc.StreamDesc{
			{StreamName: StreamWatchRoom, Handler: streamHandler(a.watchRoom), ServerStreams: true},
			{StreamName: StreamWatchRoomEvents, Handler: streamHandler(a.watchRoomEvents), ServerStreams: true},
			{StreamName: StreamWatchChat, Handler: streamHandler(a.watchChat), ServerStreams: true},
		},
		Metadata: "summitpoker/v1/poker.proto",
	}
	for name, fn := range unary {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler(name, fn),
		})
	}
	return desc
}

// Register attaches the service to s.
func (a *Adaptor) Register(s *grpc.Server) {
	s.RegisterService(a.ServiceDesc(), a)
}
