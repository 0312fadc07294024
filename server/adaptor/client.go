package adaptor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the poker service over an established connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) call(ctx context.Context, method string, req map[string]any) (fields, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return fieldsOf(out), nil
}

func (c *Client) callRoom(ctx context.Context, method string, req map[string]any) (domain.Room, error) {
	out, err := c.call(ctx, method, req)
	if err != nil {
		return domain.Room{}, err
	}
	room, _ := out.object("room")
	return roomFrom(room), nil
}

func (c *Client) callRooms(ctx context.Context, method string, req map[string]any) ([]domain.Room, error) {
	out, err := c.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	list := out.list("rooms")
	rooms := make([]domain.Room, len(list))
	for i, f := range list {
		rooms[i] = roomFrom(f)
	}
	return rooms, nil
}

func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return c.callRooms(ctx, MethodListRooms, map[string]any{})
}

func (c *Client) ListUserRooms(ctx context.Context, userID uuid.UUID) ([]domain.Room, error) {
	return c.callRooms(ctx, MethodListUserRooms, map[string]any{"user_id": idString(userID)})
}

func (c *Client) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodGetRoom, map[string]any{"room_id": idString(roomID)})
}

// CreateRoom creates a room. A nil deck selects the server default.
func (c *Client) CreateRoom(ctx context.Context, roomID uuid.UUID, name string, deck []string) (domain.Room, error) {
	req := map[string]any{"room_id": idString(roomID), "name": name}
	if deck != nil {
		req["cards"] = stringsToAny(deck)
	}
	return c.callRoom(ctx, MethodCreateRoom, req)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodDeleteRoom, map[string]any{"room_id": idString(roomID), "user_id": idString(invoker)})
}

func (c *Client) CreateUser(ctx context.Context, displayName string) (domain.Participant, error) {
	out, err := c.call(ctx, MethodCreateUser, map[string]any{"username": displayName})
	if err != nil {
		return domain.Participant{}, err
	}
	user, _ := out.object("user")
	return participantFrom(user), nil
}

func (c *Client) JoinRoom(ctx context.Context, roomID uuid.UUID, in domain.UserInput, ownerID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodJoinRoom, map[string]any{
		"room_id": idString(roomID),
		"user": map[string]any{
			"id":               idString(in.ID),
			"username":         in.DisplayName,
			"room_name":        in.RoomName,
			"last_card_picked": in.LastPickedCard,
		},
		"room_owner_id": idString(ownerID),
	})
}

func (c *Client) UpdateDeck(ctx context.Context, roomID uuid.UUID, cards []string) (domain.Room, error) {
	return c.callRoom(ctx, MethodUpdateDeck, map[string]any{"room_id": idString(roomID), "cards": stringsToAny(cards)})
}

func (c *Client) RenameRoom(ctx context.Context, roomID uuid.UUID, name string) (domain.Room, error) {
	return c.callRoom(ctx, MethodRenameRoom, map[string]any{"room_id": idString(roomID), "name": name})
}

func (c *Client) ToggleCountdown(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error) {
	return c.callRoom(ctx, MethodToggleCountdown, map[string]any{"room_id": idString(roomID), "enabled": enabled})
}

func (c *Client) ToggleConfirmNewGame(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error) {
	return c.callRoom(ctx, MethodToggleConfirmNewGame, map[string]any{"room_id": idString(roomID), "enabled": enabled})
}

func (c *Client) SetOwner(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodSetRoomOwner, map[string]any{"room_id": idString(roomID), "user_id": idString(userID)})
}

func (c *Client) StartCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodStartCountdown, map[string]any{"room_id": idString(roomID), "user_id": idString(invoker)})
}

func (c *Client) CancelCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodCancelCountdown, map[string]any{"room_id": idString(roomID), "user_id": idString(invoker)})
}

func (c *Client) PickCard(ctx context.Context, roomID, userID uuid.UUID, card string) (domain.Room, error) {
	return c.callRoom(ctx, MethodPickCard, map[string]any{"room_id": idString(roomID), "user_id": idString(userID), "card": card})
}

func (c *Client) ShowCards(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodShowCards, map[string]any{"room_id": idString(roomID)})
}

func (c *Client) ResetGame(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodResetGame, map[string]any{"room_id": idString(roomID)})
}

func (c *Client) Kick(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodKickUser, map[string]any{"room_id": idString(roomID), "target_user_id": idString(target)})
}

func (c *Client) Ban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodBanUser, map[string]any{"room_id": idString(roomID), "target_user_id": idString(target)})
}

func (c *Client) Unban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodUnbanUser, map[string]any{"room_id": idString(roomID), "target_user_id": idString(target)})
}

func (c *Client) EditUser(ctx context.Context, userID uuid.UUID, displayName string) (domain.Participant, error) {
	out, err := c.call(ctx, MethodEditUser, map[string]any{"user_id": idString(userID), "username": displayName})
	if err != nil {
		return domain.Participant{}, err
	}
	user, _ := out.object("user")
	return participantFrom(user), nil
}

func (c *Client) Logout(ctx context.Context, userID uuid.UUID) (int, error) {
	out, err := c.call(ctx, MethodLogout, map[string]any{"user_id": idString(userID)})
	if err != nil {
		return 0, err
	}
	return int(out.number("rooms_left")), nil
}

func (c *Client) SendChat(ctx context.Context, in domain.ChatInput) (domain.ChatMessage, error) {
	req := map[string]any{
		"room_id":           idString(in.RoomID),
		"user_id":           idString(in.AuthorID),
		"username":          in.AuthorName,
		"content":           in.Content,
		"formatted_content": in.FormattedContent,
		"content_type":      in.ContentType,
	}
	if in.Position != nil {
		req["position"] = map[string]any{
			"x":      in.Position.X,
			"y":      in.Position.Y,
			"width":  in.Position.Width,
			"height": in.Position.Height,
		}
	}
	out, err := c.call(ctx, MethodSendChatMessage, req)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	msg, _ := out.object("message")
	return chatFrom(msg), nil
}

func (c *Client) MarkChatSeen(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error) {
	return c.callRoom(ctx, MethodMarkChatSeen, map[string]any{"room_id": idString(roomID), "user_id": idString(userID)})
}

func (c *Client) Stats(ctx context.Context) (domain.Sample, error) {
	out, err := c.call(ctx, MethodGetStats, map[string]any{})
	if err != nil {
		return domain.Sample{}, err
	}
	stats, _ := out.object("stats")
	return sampleFrom(stats), nil
}

func (c *Client) telemetry(ctx context.Context, method string, req map[string]any) ([]domain.TelemetryEvent, error) {
	out, err := c.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	list := out.list("events")
	events := make([]domain.TelemetryEvent, len(list))
	for i, f := range list {
		events[i] = telemetryFrom(f)
	}
	return events, nil
}

func (c *Client) ListTelemetry(ctx context.Context, limit int) ([]domain.TelemetryEvent, error) {
	return c.telemetry(ctx, MethodListTelemetry, map[string]any{"limit": limit})
}

func (c *Client) SearchTelemetry(ctx context.Context, pattern string) ([]domain.TelemetryEvent, error) {
	return c.telemetry(ctx, MethodSearchTelemetry, map[string]any{"pattern": pattern})
}

var streamDescs = map[string]*grpc.StreamDesc{
	StreamWatchRoom:       {StreamName: StreamWatchRoom, ServerStreams: true},
	StreamWatchRoomEvents: {StreamName: StreamWatchRoomEvents, ServerStreams: true},
	StreamWatchChat:       {StreamName: StreamWatchChat, ServerStreams: true},
}

// watch opens a server stream and calls fn for every message until the
// stream ends or ctx is done.
func (c *Client) watch(ctx context.Context, name string, roomID uuid.UUID, fn func(fields) error) error {
	stream, err := c.conn.NewStream(ctx, streamDescs[name], FullMethod(name))
	if err != nil {
		return err
	}
	req, err := structpb.NewStruct(map[string]any{"room_id": idString(roomID)})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(fieldsOf(out)); err != nil {
			return err
		}
	}
}

func (c *Client) WatchRoom(ctx context.Context, roomID uuid.UUID, fn func(domain.Room) error) error {
	return c.watch(ctx, StreamWatchRoom, roomID, func(f fields) error { return fn(roomFrom(f)) })
}

// RoomEventMessage is a decoded lifecycle event.
type RoomEventMessage struct {
	Type     string
	RoomID   uuid.UUID
	TargetID uuid.UUID
	Room     domain.Room
}

func (c *Client) WatchRoomEvents(ctx context.Context, roomID uuid.UUID, fn func(RoomEventMessage) error) error {
	return c.watch(ctx, StreamWatchRoomEvents, roomID, func(f fields) error {
		rid, _ := f.id("room_id")
		tid, _ := f.id("target_user_id")
		room, _ := f.object("room")
		return fn(RoomEventMessage{Type: f.str("event_type"), RoomID: rid, TargetID: tid, Room: roomFrom(room)})
	})
}

func (c *Client) WatchChat(ctx context.Context, roomID uuid.UUID, fn func(domain.ChatMessage) error) error {
	return c.watch(ctx, StreamWatchChat, roomID, func(f fields) error { return fn(chatFrom(f)) })
}
