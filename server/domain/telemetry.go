package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type TelemetryKind string

const (
	TelemetryHeartbeat   TelemetryKind = "heartbeat"
	TelemetryRoomExpired TelemetryKind = "room_expired"
	TelemetrySweep       TelemetryKind = "sweep"
)

// TelemetryEvent is one line of operational history. It never carries room
// state beyond an id.
type TelemetryEvent struct {
	ID        ulid.ULID
	Kind      TelemetryKind
	RoomID    uuid.UUID
	Message   string
	CreatedAt time.Time
}

func NewTelemetryEvent(kind TelemetryKind, roomID uuid.UUID, message string, now time.Time) TelemetryEvent {
	return TelemetryEvent{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Kind:      kind,
		RoomID:    roomID,
		Message:   message,
		CreatedAt: now,
	}
}

func (e TelemetryEvent) String() string {
	if e.RoomID == uuid.Nil {
		return fmt.Sprintf("%s %s %s", e.CreatedAt.Format(time.RFC3339), e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s room=%s %s", e.CreatedAt.Format(time.RFC3339), e.Kind, e.RoomID, e.Message)
}

// Sample is one heartbeat reading.
type Sample struct {
	Rooms              int
	Users              int
	AvgUsersPerRoom    float64
	ChatMessages       int
	ActiveCountdowns   int
	EstimatedBytes     int
	MemoryMiB          float64
	CPUPercent         float64
	Subscribers        int
	PublishedEvents    int64
	DroppedSubscribers int64
	TakenAt            time.Time
}

// NewSample derives the averages from raw store counts.
func NewSample(stats StoreStats, now time.Time) Sample {
	s := Sample{
		Rooms:            stats.Rooms,
		Users:            stats.Members,
		ChatMessages:     stats.ChatMessages,
		ActiveCountdowns: stats.ActiveCountdowns,
		EstimatedBytes:   stats.EstimatedBytes,
		TakenAt:          now,
	}
	if stats.Rooms > 0 {
		s.AvgUsersPerRoom = float64(stats.Members) / float64(stats.Rooms)
	}
	return s
}

func (s Sample) String() string {
	return fmt.Sprintf("rooms=%d users=%d avg_users=%.2f chat=%d countdowns=%d est_bytes=%d mem_mib=%.2f cpu=%.2f%% subscribers=%d",
		s.Rooms, s.Users, s.AvgUsersPerRoom, s.ChatMessages, s.ActiveCountdowns, s.EstimatedBytes, s.MemoryMiB, s.CPUPercent, s.Subscribers)
}
