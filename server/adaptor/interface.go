package adaptor

import (
	"context"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

type Usecase interface {
	Rooms(ctx context.Context) []domain.Room
	UserRooms(ctx context.Context, userID uuid.UUID) []domain.Room
	RoomByID(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	CreateRoom(ctx context.Context, roomID uuid.UUID, name string, deck []string) (domain.Room, error)
	DeleteRoom(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error)
	CreateUser(ctx context.Context, displayName string) domain.Participant
	JoinRoom(ctx context.Context, roomID uuid.UUID, in domain.UserInput, ownerID uuid.UUID) (domain.Room, error)
	UpdateDeck(ctx context.Context, roomID uuid.UUID, cards []string) (domain.Room, error)
	RenameRoom(ctx context.Context, roomID uuid.UUID, name string) (domain.Room, error)
	ToggleCountdown(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error)
	ToggleConfirmNewGame(ctx context.Context, roomID uuid.UUID, enabled bool) (domain.Room, error)
	SetOwner(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error)
	StartCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error)
	CancelCountdown(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error)
	PickCard(ctx context.Context, roomID, userID uuid.UUID, card string) (domain.Room, error)
	ShowCards(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	ResetGame(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	Kick(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error)
	Ban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error)
	Unban(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error)
	EditUser(ctx context.Context, userID uuid.UUID, displayName string) (domain.Participant, error)
	Logout(ctx context.Context, userID uuid.UUID) int
	SendChat(ctx context.Context, in domain.ChatInput) (domain.ChatMessage, error)
	MarkChatSeen(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error)
	WatchRoom(ctx context.Context, roomID uuid.UUID) (<-chan domain.Room, error)
	WatchRoomEvents(ctx context.Context, roomID uuid.UUID) (<-chan domain.RoomEvent, error)
	WatchChat(ctx context.Context, roomID uuid.UUID) (<-chan domain.ChatMessage, error)
	Stats(ctx context.Context) domain.Sample
	ListTelemetry(ctx context.Context, limit int) ([]domain.TelemetryEvent, error)
	SearchTelemetry(ctx context.Context, pattern string) ([]domain.TelemetryEvent, error)
}
