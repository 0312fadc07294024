package domain

import "github.com/google/uuid"

type RoomEventKind int

const (
	EventKicked RoomEventKind = iota
	EventBanned
	EventExpired
	EventClosed
)

func (k RoomEventKind) String() string {
	switch k {
	case EventKicked:
		return "USER_KICKED"
	case EventBanned:
		return "USER_BANNED"
	case EventExpired:
		return "ROOM_EXPIRED"
	case EventClosed:
		return "ROOM_CLOSED"
	default:
		return "UNKNOWN"
	}
}

// RoomEvent is a lifecycle notification. TargetID is uuid.Nil for events
// that concern the whole room.
type RoomEvent struct {
	Kind     RoomEventKind
	RoomID   uuid.UUID
	TargetID uuid.UUID
	Room     Room
}

func NewKickedEvent(room Room, target uuid.UUID) RoomEvent {
	return RoomEvent{Kind: EventKicked, RoomID: room.ID, TargetID: target, Room: room}
}

func NewBannedEvent(room Room, target uuid.UUID) RoomEvent {
	return RoomEvent{Kind: EventBanned, RoomID: room.ID, TargetID: target, Room: room}
}

func NewExpiredEvent(room Room) RoomEvent {
	return RoomEvent{Kind: EventExpired, RoomID: room.ID, Room: room}
}

// NewClosedEvent reports a room destroyed explicitly rather than by expiry.
func NewClosedEvent(room Room) RoomEvent {
	return RoomEvent{Kind: EventClosed, RoomID: room.ID, Room: room}
}

func (e RoomEvent) DeepCopy() RoomEvent {
	e.Room = e.Room.Clone()
	return e
}

func (e RoomEvent) HasTarget() bool {
	return e.TargetID != uuid.Nil
}

func (e RoomEvent) String() string {
	if e.HasTarget() {
		return e.Kind.String() + ": " + e.RoomID.String() + " -> " + e.TargetID.String()
	}
	return e.Kind.String() + ": " + e.RoomID.String()
}
