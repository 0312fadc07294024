package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const ContentTypeText = "text"

// ChatPosition is optional on-screen placement metadata for a message.
type ChatPosition struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type ChatMessage struct {
	ID               ulid.ULID
	RoomID           uuid.UUID
	AuthorID         uuid.UUID
	AuthorName       string
	Content          string
	FormattedContent string
	ContentType      string
	Position         *ChatPosition
	Timestamp        time.Time
}

func NewChatMessage(roomID, authorID uuid.UUID, authorName, content, formatted, contentType string, position *ChatPosition, now time.Time) ChatMessage {
	if contentType == "" {
		contentType = ContentTypeText
	}
	return ChatMessage{
		ID:               ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		RoomID:           roomID,
		AuthorID:         authorID,
		AuthorName:       authorName,
		Content:          content,
		FormattedContent: formatted,
		ContentType:      contentType,
		Position:         position,
		Timestamp:        now,
	}
}

// Size is the approximate payload size of the message in bytes.
func (m ChatMessage) Size() int {
	return len(m.Content) + len(m.FormattedContent) + len(m.AuthorName) + len(m.ContentType)
}

func (m ChatMessage) DeepCopy() ChatMessage {
	return m.clone()
}

func (m ChatMessage) clone() ChatMessage {
	c := m
	if m.Position != nil {
		p := *m.Position
		c.Position = &p
	}
	return c
}
