package domain

import "github.com/google/uuid"

// UserInput describes a participant joining a room. A nil ID is replaced by
// a generated one; RoomName, when set, renames the room on first join.
type UserInput struct {
	ID             uuid.UUID
	DisplayName    string
	RoomName       string
	LastPickedCard string
}

func (in UserInput) Participant() Participant {
	p := Participant{ID: in.ID, DisplayName: in.DisplayName}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return p
}

type ChatInput struct {
	RoomID           uuid.UUID
	AuthorID         uuid.UUID
	AuthorName       string
	Content          string
	FormattedContent string
	ContentType      string
	Position         *ChatPosition
}
