package adaptor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/summitpoker/server/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// fields is the decoded form of a structpb.Struct. Every message on the
// wire, gRPC or WebSocket, is a flat JSON-compatible object.
type fields map[string]any

func fieldsOf(s *structpb.Struct) fields {
	if s == nil {
		return fields{}
	}
	return s.AsMap()
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func (f fields) str(key string) string {
	v, _ := f[key].(string)
	return v
}

func (f fields) boolean(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f fields) number(key string) float64 {
	v, _ := f[key].(float64)
	return v
}

func (f fields) strings(key string) []string {
	raw, _ := f[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f fields) object(key string) (fields, bool) {
	v, ok := f[key].(map[string]any)
	return v, ok
}

func (f fields) list(key string) []fields {
	raw, _ := f[key].([]any)
	out := make([]fields, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// id parses an optional uuid field; absent or empty is uuid.Nil.
func (f fields) id(key string) (uuid.UUID, error) {
	s := f.str(key)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return id, nil
}

func (f fields) requiredID(key string) (uuid.UUID, error) {
	id, err := f.id(key)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return id, nil
}

func (f fields) time(key string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, f.str(key))
	return t
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func ulidString(id ulid.ULID) string {
	if id == (ulid.ULID{}) {
		return ""
	}
	return id.String()
}

func parseULID(s string) ulid.ULID {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}
	}
	return id
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func participantFields(p domain.Participant) map[string]any {
	m := map[string]any{
		"id":                        idString(p.ID),
		"display_name":              p.DisplayName,
		"last_picked_card":          p.LastPickedCard,
		"last_seen_chat_message_id": ulidString(p.LastSeenChatMessageID),
		"last_picked_value":         nil,
	}
	if p.LastPickedValue != nil {
		m["last_picked_value"] = *p.LastPickedValue
	}
	return m
}

func participantFrom(f fields) domain.Participant {
	id, _ := f.id("id")
	p := domain.Participant{
		ID:                    id,
		DisplayName:           f.str("display_name"),
		LastPickedCard:        f.str("last_picked_card"),
		LastSeenChatMessageID: parseULID(f.str("last_seen_chat_message_id")),
	}
	if v, ok := f["last_picked_value"].(float64); ok {
		p.LastPickedValue = &v
	}
	return p
}

func chatFields(m domain.ChatMessage) map[string]any {
	out := map[string]any{
		"id":                ulidString(m.ID),
		"room_id":           idString(m.RoomID),
		"user_id":           idString(m.AuthorID),
		"username":          m.AuthorName,
		"content":           m.Content,
		"formatted_content": m.FormattedContent,
		"content_type":      m.ContentType,
		"timestamp":         timeString(m.Timestamp),
		"position":          nil,
	}
	if m.Position != nil {
		out["position"] = map[string]any{
			"x":      m.Position.X,
			"y":      m.Position.Y,
			"width":  m.Position.Width,
			"height": m.Position.Height,
		}
	}
	return out
}

func positionFrom(f fields) *domain.ChatPosition {
	pos, ok := f.object("position")
	if !ok {
		return nil
	}
	return &domain.ChatPosition{
		X:      pos.number("x"),
		Y:      pos.number("y"),
		Width:  pos.number("width"),
		Height: pos.number("height"),
	}
}

func chatFrom(f fields) domain.ChatMessage {
	roomID, _ := f.id("room_id")
	authorID, _ := f.id("user_id")
	return domain.ChatMessage{
		ID:               parseULID(f.str("id")),
		RoomID:           roomID,
		AuthorID:         authorID,
		AuthorName:       f.str("username"),
		Content:          f.str("content"),
		FormattedContent: f.str("formatted_content"),
		ContentType:      f.str("content_type"),
		Position:         positionFrom(f),
		Timestamp:        f.time("timestamp"),
	}
}

func roomFields(r domain.Room) map[string]any {
	members := make([]any, len(r.Members))
	for i, p := range r.Members {
		members[i] = participantFields(p)
	}
	banned := make([]any, len(r.Banned))
	for i, id := range r.Banned {
		banned[i] = id.String()
	}
	table := make([]any, len(r.Table))
	for i, s := range r.Table {
		table[i] = map[string]any{
			"user_id": idString(s.ParticipantID),
			"card":    s.Card,
		}
	}
	chat := make([]any, len(r.ChatLog))
	for i, m := range r.ChatLog {
		chat[i] = chatFields(m)
	}

	var countdown any
	if n, ok := r.Stage.CountdownValue(); ok {
		countdown = float64(n)
	}
	return map[string]any{
		"id":                idString(r.ID),
		"name":              r.Name,
		"users":             members,
		"banned_user_ids":   banned,
		"deck":              stringsToAny(r.Deck),
		"table":             table,
		"is_game_over":      r.Revealed,
		"room_owner_id":     idString(r.OwnerID),
		"countdown_enabled": r.CountdownEnabled,
		"reveal_stage":      r.Stage.Kind().String(),
		"countdown_value":   countdown,
		"confirm_new_game":  r.ConfirmNewGame,
		"last_active":       timeString(r.LastActive),
		"chat_history":      chat,
	}
}

func stageFrom(f fields) domain.RevealStage {
	kind, _ := domain.ParseStageKind(f.str("reveal_stage"))
	switch kind {
	case domain.StageCountdown:
		return domain.Countdown(int(f.number("countdown_value")))
	case domain.StageRevealed:
		return domain.Revealed()
	case domain.StageCancelled:
		return domain.Cancelled()
	default:
		return domain.Idle()
	}
}

func roomFrom(f fields) domain.Room {
	id, _ := f.id("id")
	owner, _ := f.id("room_owner_id")
	r := domain.Room{
		ID:               id,
		Name:             f.str("name"),
		Members:          []domain.Participant{},
		Banned:           []uuid.UUID{},
		Deck:             f.strings("deck"),
		Table:            []domain.Selection{},
		Revealed:         f.boolean("is_game_over"),
		OwnerID:          owner,
		CountdownEnabled: f.boolean("countdown_enabled"),
		Stage:            stageFrom(f),
		ConfirmNewGame:   f.boolean("confirm_new_game"),
		LastActive:       f.time("last_active"),
		ChatLog:          []domain.ChatMessage{},
	}
	for _, m := range f.list("users") {
		r.Members = append(r.Members, participantFrom(m))
	}
	for _, s := range f.strings("banned_user_ids") {
		if id, err := uuid.Parse(s); err == nil {
			r.Banned = append(r.Banned, id)
		}
	}
	for _, s := range f.list("table") {
		uid, _ := s.id("user_id")
		r.Table = append(r.Table, domain.Selection{ParticipantID: uid, Card: s.str("card")})
	}
	for _, m := range f.list("chat_history") {
		r.ChatLog = append(r.ChatLog, chatFrom(m))
	}
	return r
}

func eventFields(e domain.RoomEvent) map[string]any {
	return map[string]any{
		"room_id":        idString(e.RoomID),
		"event_type":     e.Kind.String(),
		"target_user_id": idString(e.TargetID),
		"room":           roomFields(e.Room),
	}
}

func sampleFields(s domain.Sample) map[string]any {
	return map[string]any{
		"rooms":               s.Rooms,
		"users":               s.Users,
		"avg_users_per_room":  s.AvgUsersPerRoom,
		"chat_messages":       s.ChatMessages,
		"active_countdowns":   s.ActiveCountdowns,
		"estimated_bytes":     s.EstimatedBytes,
		"memory_mib":          s.MemoryMiB,
		"cpu_percent":         s.CPUPercent,
		"subscribers":         s.Subscribers,
		"published_events":    s.PublishedEvents,
		"dropped_subscribers": s.DroppedSubscribers,
		"taken_at":            timeString(s.TakenAt),
	}
}

func sampleFrom(f fields) domain.Sample {
	return domain.Sample{
		Rooms:              int(f.number("rooms")),
		Users:              int(f.number("users")),
		AvgUsersPerRoom:    f.number("avg_users_per_room"),
		ChatMessages:       int(f.number("chat_messages")),
		ActiveCountdowns:   int(f.number("active_countdowns")),
		EstimatedBytes:     int(f.number("estimated_bytes")),
		MemoryMiB:          f.number("memory_mib"),
		CPUPercent:         f.number("cpu_percent"),
		Subscribers:        int(f.number("subscribers")),
		PublishedEvents:    int64(f.number("published_events")),
		DroppedSubscribers: int64(f.number("dropped_subscribers")),
		TakenAt:            f.time("taken_at"),
	}
}

func telemetryFields(e domain.TelemetryEvent) map[string]any {
	return map[string]any{
		"id":         ulidString(e.ID),
		"kind":       string(e.Kind),
		"room_id":    idString(e.RoomID),
		"message":    e.Message,
		"created_at": timeString(e.CreatedAt),
	}
}

func telemetryFrom(f fields) domain.TelemetryEvent {
	roomID, _ := f.id("room_id")
	return domain.TelemetryEvent{
		ID:        parseULID(f.str("id")),
		Kind:      domain.TelemetryKind(f.str("kind")),
		RoomID:    roomID,
		Message:   f.str("message"),
		CreatedAt: f.time("created_at"),
	}
}

func roomList(rooms []domain.Room) map[string]any {
	out := make([]any, len(rooms))
	for i, r := range rooms {
		out[i] = roomFields(r)
	}
	return map[string]any{"rooms": out}
}

func describe(r domain.Room) string {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s %s members=%d stage=%s", r.ID, name, len(r.Members), r.Stage)
}
