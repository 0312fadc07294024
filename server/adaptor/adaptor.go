package adaptor

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Adaptor struct {
	uc Usecase
}

func NewAdaptor(uc Usecase) *Adaptor {
	return &Adaptor{uc: uc}
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	var code codes.Code
	switch domain.CodeOf(err) {
	case domain.CodeNotFound:
		code = codes.NotFound
	case domain.CodeForbidden:
		code = codes.PermissionDenied
	case domain.CodeInvalidState:
		code = codes.FailedPrecondition
	case domain.CodeConflict:
		code = codes.AlreadyExists
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func roomReply(method string, r domain.Room, err error) (map[string]any, error) {
	if err != nil {
		log.Printf("Error in %s: %v", method, err)
		return nil, err
	}
	return map[string]any{"room": roomFields(r)}, nil
}

func (a *Adaptor) listRooms(ctx context.Context, in fields) (map[string]any, error) {
	return roomList(a.uc.Rooms(ctx)), nil
}

func (a *Adaptor) listUserRooms(ctx context.Context, in fields) (map[string]any, error) {
	userID, err := in.requiredID("user_id")
	if err != nil {
		return nil, err
	}
	return roomList(a.uc.UserRooms(ctx, userID)), nil
}

func (a *Adaptor) getRoom(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.RoomByID(ctx, roomID)
	return roomReply(MethodGetRoom, r, err)
}

func (a *Adaptor) createRoom(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.id("room_id")
	if err != nil {
		return nil, err
	}
	var deck []string
	if _, ok := in["cards"]; ok {
		deck = in.strings("cards")
	}
	r, err := a.uc.CreateRoom(ctx, roomID, in.str("name"), deck)
	if err == nil {
		log.Printf("room created: %s", describe(r))
	}
	return roomReply(MethodCreateRoom, r, err)
}

func (a *Adaptor) deleteRoom(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	invoker, err := in.id("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.DeleteRoom(ctx, roomID, invoker)
	if err == nil {
		log.Printf("room deleted: %s", describe(r))
	}
	return roomReply(MethodDeleteRoom, r, err)
}

func (a *Adaptor) createUser(ctx context.Context, in fields) (map[string]any, error) {
	p := a.uc.CreateUser(ctx, in.str("username"))
	return map[string]any{"user": participantFields(p)}, nil
}

func (a *Adaptor) joinRoom(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	user, _ := in.object("user")
	userID, err := user.id("id")
	if err != nil {
		return nil, err
	}
	ownerID, err := in.id("room_owner_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.JoinRoom(ctx, roomID, domain.UserInput{
		ID:             userID,
		DisplayName:    user.str("username"),
		RoomName:       user.str("room_name"),
		LastPickedCard: user.str("last_card_picked"),
	}, ownerID)
	return roomReply(MethodJoinRoom, r, err)
}

func (a *Adaptor) updateDeck(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.UpdateDeck(ctx, roomID, in.strings("cards"))
	return roomReply(MethodUpdateDeck, r, err)
}

func (a *Adaptor) renameRoom(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.RenameRoom(ctx, roomID, in.str("name"))
	return roomReply(MethodRenameRoom, r, err)
}

func (a *Adaptor) toggleCountdown(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.ToggleCountdown(ctx, roomID, in.boolean("enabled"))
	return roomReply(MethodToggleCountdown, r, err)
}

func (a *Adaptor) toggleConfirmNewGame(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.ToggleConfirmNewGame(ctx, roomID, in.boolean("enabled"))
	return roomReply(MethodToggleConfirmNewGame, r, err)
}

func (a *Adaptor) setRoomOwner(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	userID, err := in.id("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.SetOwner(ctx, roomID, userID)
	return roomReply(MethodSetRoomOwner, r, err)
}

func (a *Adaptor) startCountdown(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	invoker, err := in.id("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.StartCountdown(ctx, roomID, invoker)
	return roomReply(MethodStartCountdown, r, err)
}

func (a *Adaptor) cancelCountdown(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	invoker, err := in.id("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.CancelCountdown(ctx, roomID, invoker)
	return roomReply(MethodCancelCountdown, r, err)
}

func (a *Adaptor) pickCard(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	userID, err := in.requiredID("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.PickCard(ctx, roomID, userID, in.str("card"))
	return roomReply(MethodPickCard, r, err)
}

func (a *Adaptor) showCards(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.ShowCards(ctx, roomID)
	return roomReply(MethodShowCards, r, err)
}

func (a *Adaptor) resetGame(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.ResetGame(ctx, roomID)
	return roomReply(MethodResetGame, r, err)
}

func (a *Adaptor) targeted(ctx context.Context, in fields, method string, op func(context.Context, uuid.UUID, uuid.UUID) (domain.Room, error)) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	target, err := in.requiredID("target_user_id")
	if err != nil {
		return nil, err
	}
	r, err := op(ctx, roomID, target)
	return roomReply(method, r, err)
}

func (a *Adaptor) kickUser(ctx context.Context, in fields) (map[string]any, error) {
	return a.targeted(ctx, in, MethodKickUser, a.uc.Kick)
}

func (a *Adaptor) banUser(ctx context.Context, in fields) (map[string]any, error) {
	return a.targeted(ctx, in, MethodBanUser, a.uc.Ban)
}

func (a *Adaptor) unbanUser(ctx context.Context, in fields) (map[string]any, error) {
	return a.targeted(ctx, in, MethodUnbanUser, a.uc.Unban)
}

func (a *Adaptor) editUser(ctx context.Context, in fields) (map[string]any, error) {
	userID, err := in.requiredID("user_id")
	if err != nil {
		return nil, err
	}
	p, err := a.uc.EditUser(ctx, userID, in.str("username"))
	if err != nil {
		log.Printf("Error in %s: %v", MethodEditUser, err)
		return nil, err
	}
	return map[string]any{"user": participantFields(p)}, nil
}

func (a *Adaptor) logout(ctx context.Context, in fields) (map[string]any, error) {
	userID, err := in.id("user_id")
	if err != nil {
		return nil, err
	}
	left := a.uc.Logout(ctx, userID)
	return map[string]any{"ok": true, "rooms_left": left}, nil
}

func (a *Adaptor) sendChatMessage(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	userID, err := in.requiredID("user_id")
	if err != nil {
		return nil, err
	}
	msg, err := a.uc.SendChat(ctx, domain.ChatInput{
		RoomID:           roomID,
		AuthorID:         userID,
		AuthorName:       in.str("username"),
		Content:          in.str("content"),
		FormattedContent: in.str("formatted_content"),
		ContentType:      in.str("content_type"),
		Position:         positionFrom(in),
	})
	if err != nil {
		log.Printf("Error in %s: %v", MethodSendChatMessage, err)
		return nil, err
	}
	return map[string]any{"message": chatFields(msg)}, nil
}

func (a *Adaptor) markChatSeen(ctx context.Context, in fields) (map[string]any, error) {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return nil, err
	}
	userID, err := in.requiredID("user_id")
	if err != nil {
		return nil, err
	}
	r, err := a.uc.MarkChatSeen(ctx, roomID, userID)
	return roomReply(MethodMarkChatSeen, r, err)
}

func (a *Adaptor) getStats(ctx context.Context, in fields) (map[string]any, error) {
	return map[string]any{"stats": sampleFields(a.uc.Stats(ctx))}, nil
}

func telemetryReply(events []domain.TelemetryEvent) map[string]any {
	out := make([]any, len(events))
	for i, e := range events {
		out[i] = telemetryFields(e)
	}
	return map[string]any{"events": out}
}

func (a *Adaptor) listTelemetry(ctx context.Context, in fields) (map[string]any, error) {
	events, err := a.uc.ListTelemetry(ctx, int(in.number("limit")))
	if err != nil {
		log.Printf("Error in %s: %v", MethodListTelemetry, err)
		return nil, err
	}
	return telemetryReply(events), nil
}

func (a *Adaptor) searchTelemetry(ctx context.Context, in fields) (map[string]any, error) {
	pattern := in.str("pattern")
	if pattern == "" {
		return nil, status.Error(codes.InvalidArgument, "pattern is required")
	}
	events, err := a.uc.SearchTelemetry(ctx, pattern)
	if err != nil {
		log.Printf("Error in %s: %v", MethodSearchTelemetry, err)
		return nil, err
	}
	return telemetryReply(events), nil
}

// forward relays a subscription until it closes or ctx ends.
func forward[T any](ctx context.Context, ch <-chan T, encode func(T) map[string]any, send func(map[string]any) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return status.Error(codes.ResourceExhausted, "subscriber fell behind and was dropped")
			}
			if err := send(encode(ev)); err != nil {
				return err
			}
		}
	}
}

func (a *Adaptor) watchRoom(ctx context.Context, in fields, send func(map[string]any) error) error {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return err
	}
	ch, err := a.uc.WatchRoom(ctx, roomID)
	if err != nil {
		return err
	}
	log.Printf("%s: subscribed room=%s", StreamWatchRoom, roomID)
	return forward(ctx, ch, roomFields, send)
}

func (a *Adaptor) watchRoomEvents(ctx context.Context, in fields, send func(map[string]any) error) error {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return err
	}
	ch, err := a.uc.WatchRoomEvents(ctx, roomID)
	if err != nil {
		return err
	}
	log.Printf("%s: subscribed room=%s", StreamWatchRoomEvents, roomID)
	return forward(ctx, ch, eventFields, send)
}

func (a *Adaptor) watchChat(ctx context.Context, in fields, send func(map[string]any) error) error {
	roomID, err := in.requiredID("room_id")
	if err != nil {
		return err
	}
	ch, err := a.uc.WatchChat(ctx, roomID)
	if err != nil {
		return err
	}
	log.Printf("%s: subscribed room=%s", StreamWatchChat, roomID)
	return forward(ctx, ch, chatFields, send)
}
