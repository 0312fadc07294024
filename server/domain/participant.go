package domain

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Participant is a user attached to a room. It is created independently of
// any room and joins through Room.Join.
type Participant struct {
	ID                    uuid.UUID
	DisplayName           string
	LastPickedCard        string
	LastPickedValue       *float64
	LastSeenChatMessageID ulid.ULID
}

func NewParticipant(displayName string) Participant {
	return Participant{
		ID:          uuid.New(),
		DisplayName: displayName,
	}
}

func (p Participant) HasPicked() bool {
	return p.LastPickedCard != ""
}

func (p Participant) clone() Participant {
	c := p
	if p.LastPickedValue != nil {
		v := *p.LastPickedValue
		c.LastPickedValue = &v
	}
	return c
}

func (p Participant) String() string {
	return p.DisplayName + "(" + p.ID.String() + ")"
}
