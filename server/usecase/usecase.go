package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/adaptor"
	"github.com/ponyo877/summitpoker/server/domain"
)

var (
	telemetryLimit int = 100
)

var _ adaptor.Usecase = (*Usecase)(nil)

// Usecase implements the room operations. Every mutation is one Store.Update
// call ending in a touch and a publish of the room view.
type Usecase struct {
	store     *domain.Store
	countdown *Countdown
	heartbeat *Heartbeat
	telemetry *Emitter
	normalize domain.CardNormalizer
}

type Option func(*Usecase)

// WithNormalizer replaces the card-label normalizer.
func WithNormalizer(fn domain.CardNormalizer) Option {
	return func(u *Usecase) {
		if fn != nil {
			u.normalize = fn
		}
	}
}

func NewUsecase(store *domain.Store, countdown *Countdown, heartbeat *Heartbeat, telemetry *Emitter, opts ...Option) *Usecase {
	u := &Usecase{
		store:     store,
		countdown: countdown,
		heartbeat: heartbeat,
		telemetry: telemetry,
		normalize: domain.ParseCardValue,
	}
	if u.countdown == nil {
		u.countdown = NewCountdown(store)
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u Usecase) update(ctx context.Context, name string, roomID uuid.UUID, fn func(r *domain.Room) error) (domain.Room, error) {
	_, span := startSpan(ctx, name, roomID)
	room, err := u.store.Update(roomID, fn)
	endSpan(span, err)
	return room, err
}

func views(rooms []domain.Room) []domain.Room {
	for i := range rooms {
		rooms[i] = rooms[i].View()
	}
	return rooms
}

func (u Usecase) Rooms(ctx context.Context) []domain.Room {
	return views(u.store.ReadAll())
}

func (u Usecase) UserRooms(ctx context.Context, userID uuid.UUID) []domain.Room {
	rooms := []domain.Room{}
	for _, r := range u.store.ReadAll() {
		if r.IsMember(userID) {
			rooms = append(rooms, r.View())
		}
	}
	return rooms
}

func (u Usecase) RoomByID(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	r, ok := u.store.Read(roomID)
	if !ok {
		return domain.Room{}, domain.NewError(domain.CodeNotFound, fmt.Sprintf("room %s not found", roomID))
	}
	return r.View(), nil
}

func (u Usecase) CreateRoom(ctx context.Context, roomID uuid.UUID, name string, deck []string) (domain.Room, error) {
	_, span := startSpan(ctx, "usecase.CreateRoom", roomID)
	room, err := u.store.Create(roomID, strings.TrimSpace(name), deck)
	endSpan(span, err)
	if err != nil {
		return domain.Room{}, fmt.Errorf("error creating room: %w", err)
	}
	return room, nil
}

// DeleteRoom destroys a room explicitly. When an owner is set only the
// owner may do so.
func (u Usecase) DeleteRoom(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	_, span := startSpan(ctx, "usecase.DeleteRoom", roomID)
	var denied error
	room, outcome := u.store.RemoveIf(roomID, func(r *domain.Room) bool {
		denied = r.CheckOwner(invoker, "delete the room")
		return denied == nil
	})
	var err error
	switch outcome {
	case domain.Absent:
		err = domain.NewError(domain.CodeNotFound, fmt.Sprintf("room %s not found", roomID))
	case domain.Kept:
		err = denied
	case domain.Removed:
		domain.Publish(u.store.Hub(), domain.NewClosedEvent(room.View()))
	}
	endSpan(span, err)
	if err != nil {
		return domain.Room{}, err
	}
	return room.View(), nil
}

// CreateUser returns a fresh participant attached to no room.
func (u Usecase) CreateUser(ctx context.Context, displayName string) domain.Participant {
	return domain.NewParticipant(strings.TrimSpace(displayName))
}

// JoinRoom attaches a participant. Rejoining as an existing member is a
// read. ownerID, when set, claims ownership of a room that has none.
func (u Usecase) JoinRoom(ctx context.Context, roomID uuid.UUID, in domain.UserInput, ownerID uuid.UUID) (domain.Room, error) {
	p := in.Participant()
	return u.update(ctx, "usecase.JoinRoom", roomID, func(r *domain.Room) error {
		if r.IsBanned(p.ID) {
			return domain.NewError(domain.CodeForbidden, "user is banned from this room")
		}
		if r.IsMember(p.ID) {
			return domain.ErrUnchanged
		}
		claim := ownerID != uuid.Nil && !r.HasOwner()
		if claim && ownerID != p.ID && !r.IsMember(ownerID) {
			return domain.NewError(domain.CodeInvalidState, fmt.Sprintf("user %s does not exist in the room", ownerID))
		}

		if _, err := r.Join(p); err != nil {
			return err
		}
		if name := strings.TrimSpace(in.RoomName); name != "" {
			r.Rename(name)
		}
		if claim {
			if err := r.SetOwner(ownerID); err != nil {
				return err
			}
		}
		if in.LastPickedCard != "" {
			return r.Pick(p.ID, in.LastPickedCard, u.normalize)
		}
		return nil
	})
}

func (u Usecase) UpdateDeck(ctx context.Context, roomID uuid.UUID, cards []string) (domain.Room, error) {
	return u.update(ctx, "usecase.UpdateDeck", roomID, func(r *domain.Room) error {
		r.SetDeck(cards)
		return nil
	})
}

func (u Usecase) RenameRoom(ctx context.Context, roomID uuid.UUID, name string) (domain.Room, error) {
	return u.update(ctx, "usecase.RenameRoom", roomID, func(r *domain.Room) error {
		r.Rename(strings.TrimSpace(name))
		return nil
	})
}

func (u Usecase) ToggleCountdown(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error) {
	return u.update(ctx, "usecase.ToggleCountdown", roomID, func(r *domain.Room) error {
		r.EnableCountdown(enabled)
		return nil
	})
}

func (u Usecase) ToggleConfirmNewGame(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error) {
	return u.update(ctx, "usecase.ToggleConfirmNewGame", roomID, func(r *domain.Room) error {
		r.ToggleConfirmNewGame(enabled)
		return nil
	})
}

// SetOwner assigns the room owner; uuid.Nil clears it.
func (u Usecase) SetOwner(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error) {
	return u.update(ctx, "usecase.SetOwner", roomID, func(r *domain.Room) error {
		return r.SetOwner(userID)
	})
}

func (u Usecase) StartCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	ctx, span := startSpan(ctx, "usecase.StartCountdown", roomID)
	room, err := u.countdown.Start(ctx, roomID, invoker)
	endSpan(span, err)
	return room, err
}

func (u Usecase) CancelCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	ctx, span := startSpan(ctx, "usecase.CancelCountdown", roomID)
	room, err := u.countdown.Cancel(ctx, roomID, invoker)
	endSpan(span, err)
	return room, err
}

func (u Usecase) PickCard(ctx context.Context, roomID, userID uuid.UUID, card string) (domain.Room, error) {
	return u.update(ctx, "usecase.PickCard", roomID, func(r *domain.Room) error {
		return r.Pick(userID, strings.TrimSpace(card), u.normalize)
	})
}

func (u Usecase) ShowCards(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return u.update(ctx, "usecase.ShowCards", roomID, func(r *domain.Room) error {
		r.ShowCards()
		return nil
	})
}

func (u Usecase) ResetGame(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return u.update(ctx, "usecase.ResetGame", roomID, func(r *domain.Room) error {
		r.ResetGame()
		return nil
	})
}

// Kick removes target from the room. Kicking a non-member changes nothing
// and publishes no event.
func (u Usecase) Kick(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	kicked := false
	room, err := u.update(ctx, "usecase.Kick", roomID, func(r *domain.Room) error {
		if !r.IsMember(target) {
			return domain.ErrUnchanged
		}
		kicked = r.Kick(target)
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	if kicked {
		domain.Publish(u.store.Hub(), domain.NewKickedEvent(room, target))
	}
	return room, nil
}

// Ban removes target from the room, if present, and records the ban.
func (u Usecase) Ban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	room, err := u.update(ctx, "usecase.Ban", roomID, func(r *domain.Room) error {
		r.Ban(target)
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	domain.Publish(u.store.Hub(), domain.NewBannedEvent(room, target))
	return room, nil
}

// Unban succeeds whether or not target was banned.
func (u Usecase) Unban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) {
	return u.update(ctx, "usecase.Unban", roomID, func(r *domain.Room) error {
		r.Unban(target)
		return nil
	})
}

// EditUser renames the participant in every room it belongs to. A
// participant in no room is valid; its bare record is returned.
func (u Usecase) EditUser(ctx context.Context, userID uuid.UUID, displayName string) (domain.Participant, error) {
	_, span := startSpan(ctx, "usecase.EditUser", uuid.Nil)
	name := strings.TrimSpace(displayName)
	if name == "" {
		err := domain.NewError(domain.CodeInvalidState, "display name must not be empty")
		endSpan(span, err)
		return domain.Participant{}, err
	}
	updated := u.store.UpdateWhere(
		func(r *domain.Room) bool { return r.IsMember(userID) },
		func(r *domain.Room) { r.RenameUser(userID, name) },
	)
	endSpan(span, nil)

	for _, r := range updated {
		if p, ok := r.Member(userID); ok {
			return p, nil
		}
	}
	return domain.Participant{ID: userID, DisplayName: name}, nil
}

// Logout detaches the participant from every room and reports how many
// rooms it left.
func (u Usecase) Logout(ctx context.Context, userID uuid.UUID) int {
	_, span := startSpan(ctx, "usecase.Logout", uuid.Nil)
	defer endSpan(span, nil)
	if userID == uuid.Nil {
		return 0
	}
	updated := u.store.UpdateWhere(
		func(r *domain.Room) bool { return r.IsMember(userID) },
		func(r *domain.Room) { r.RemoveMember(userID) },
	)
	return len(updated)
}

func (u Usecase) SendChat(ctx context.Context, in domain.ChatInput) (domain.ChatMessage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return domain.ChatMessage{}, domain.NewError(domain.CodeInvalidState, "message must not be empty")
	}
	var msg domain.ChatMessage
	_, err := u.update(ctx, "usecase.SendChat", in.RoomID, func(r *domain.Room) error {
		if r.IsBanned(in.AuthorID) {
			return domain.NewError(domain.CodeForbidden, "user is banned from this room")
		}
		if !r.IsMember(in.AuthorID) {
			return domain.NewError(domain.CodeInvalidState, fmt.Sprintf("user %s is not a member of the room", in.AuthorID))
		}
		author := in.AuthorName
		if p, ok := r.Member(in.AuthorID); ok && author == "" {
			author = p.DisplayName
		}
		msg = domain.NewChatMessage(r.ID, in.AuthorID, author, content, in.FormattedContent, in.ContentType, in.Position, u.store.Now())
		r.PushChat(msg)
		domain.Publish(u.store.Hub(), msg)
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

// MarkChatSeen moves the read cursor. Non-members are a no-op.
func (u Usecase) MarkChatSeen(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error) {
	return u.update(ctx, "usecase.MarkChatSeen", roomID, func(r *domain.Room) error {
		if !r.MarkChatSeen(userID) {
			return domain.ErrUnchanged
		}
		return nil
	})
}

func (u Usecase) ensureRoom(roomID uuid.UUID) error {
	return u.store.WithRoom(roomID, func(*domain.Room) error { return nil })
}

// WatchRoom streams views of one room until ctx is done or the subscriber
// falls behind.
func (u Usecase) WatchRoom(ctx context.Context, roomID uuid.UUID) (<-chan domain.Room, error) {
	sub := domain.Subscribe[domain.Room](u.store.Hub())
	if err := u.ensureRoom(roomID); err != nil {
		sub.Close()
		return nil, err
	}
	return sub.Filter(ctx, func(r domain.Room) bool { return r.ID == roomID }), nil
}

func (u Usecase) WatchRoomEvents(ctx context.Context, roomID uuid.UUID) (<-chan domain.RoomEvent, error) {
	sub := domain.Subscribe[domain.RoomEvent](u.store.Hub())
	if err := u.ensureRoom(roomID); err != nil {
		sub.Close()
		return nil, err
	}
	return sub.Filter(ctx, func(e domain.RoomEvent) bool { return e.RoomID == roomID }), nil
}

func (u Usecase) WatchChat(ctx context.Context, roomID uuid.UUID) (<-chan domain.ChatMessage, error) {
	sub := domain.Subscribe[domain.ChatMessage](u.store.Hub())
	if err := u.ensureRoom(roomID); err != nil {
		sub.Close()
		return nil, err
	}
	return sub.Filter(ctx, func(m domain.ChatMessage) bool { return m.RoomID == roomID }), nil
}

func (u Usecase) Stats(ctx context.Context) domain.Sample {
	if u.heartbeat == nil {
		return domain.NewSample(u.store.Stats(), u.store.Now())
	}
	return u.heartbeat.Latest(ctx)
}

func (u Usecase) ListTelemetry(ctx context.Context, limit int) ([]domain.TelemetryEvent, error) {
	if limit <= 0 || limit > telemetryLimit {
		limit = telemetryLimit
	}
	events, err := u.telemetry.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing telemetry: %w", err)
	}
	return events, nil
}

func (u Usecase) SearchTelemetry(ctx context.Context, pattern string) ([]domain.TelemetryEvent, error) {
	events, err := u.telemetry.Search(ctx, pattern, telemetryLimit)
	if err != nil {
		return nil, fmt.Errorf("error searching telemetry: %w", err)
	}
	return events, nil
}
