package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

func TestRevealShowsPickedCards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, []string{"1", "2", "3", "5", "8"})
	p1 := env.join(t, room.ID, "p1", false)
	p2 := env.join(t, room.ID, "p2", false)

	if _, err := env.uc.PickCard(ctx, room.ID, p1.ID, "3"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	hidden, err := env.uc.PickCard(ctx, room.ID, p2.ID, "5")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	for _, s := range hidden.Table {
		if s.Card != "" {
			t.Fatalf("expected hidden card before reveal, got %q", s.Card)
		}
	}

	shown, err := env.uc.ShowCards(ctx, room.ID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	want := map[uuid.UUID]string{p1.ID: "3", p2.ID: "5"}
	if len(shown.Table) != 2 {
		t.Fatalf("expected two selections, got %d", len(shown.Table))
	}
	for _, s := range shown.Table {
		if s.Card != want[s.ParticipantID] {
			t.Fatalf("expected %q for %s, got %q", want[s.ParticipantID], s.ParticipantID, s.Card)
		}
	}

	reset, err := env.uc.ResetGame(ctx, room.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Revealed || len(reset.Table) != 0 {
		t.Fatal("expected a fresh round after reset")
	}
}

func TestCreateRoomConflict(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	_, err := env.uc.CreateRoom(context.Background(), room.ID, "again", nil)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRoomByIDNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.uc.RoomByID(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.uc.PickCard(context.Background(), uuid.New(), uuid.New(), "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)

	owner := env.join(t, room.ID, "owner", true)
	got, _ := env.uc.RoomByID(ctx, room.ID)
	if got.OwnerID != owner.ID {
		t.Fatalf("expected owner %s, got %s", owner.ID, got.OwnerID)
	}

	// A later claim does not steal an owned room.
	other := env.join(t, room.ID, "other", true)
	got, _ = env.uc.RoomByID(ctx, room.ID)
	if got.OwnerID != owner.ID {
		t.Fatalf("expected owner to stay %s, got %s", owner.ID, got.OwnerID)
	}

	env.clock.Advance(time.Minute)
	again, err := env.uc.JoinRoom(ctx, room.ID, domain.UserInput{ID: other.ID, DisplayName: "other"}, uuid.Nil)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(again.Members) != 2 || !again.LastActive.Equal(testNow) {
		t.Fatalf("expected rejoin to be a read, got %d members at %s", len(again.Members), again.LastActive)
	}
}

func TestJoinRoomRestoresPickAndRenames(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	in := domain.UserInput{DisplayName: "p", RoomName: "Sprint 42", LastPickedCard: "8"}

	got, err := env.uc.JoinRoom(context.Background(), room.ID, in, uuid.Nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if got.Name != "Sprint 42" {
		t.Fatalf("expected renamed room, got %q", got.Name)
	}
	if len(got.Members) != 1 || got.Members[0].ID == uuid.Nil {
		t.Fatalf("expected a member with a generated id, got %+v", got.Members)
	}
	if _, picked := got.SelectionOf(got.Members[0].ID); !picked {
		t.Fatal("expected restored pick on the table")
	}
}

func TestJoinRoomRejectsBannedAndUnknownOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)

	if _, err := env.uc.Ban(ctx, room.ID, p.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}
	_, err := env.uc.JoinRoom(ctx, room.ID, domain.UserInput{ID: p.ID, DisplayName: "p"}, uuid.Nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	newcomer := domain.UserInput{ID: uuid.New(), DisplayName: "n"}
	_, err = env.uc.JoinRoom(ctx, room.ID, newcomer, uuid.New())
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state for an unknown owner, got %v", err)
	}
	got, _ := env.uc.RoomByID(ctx, room.ID)
	if got.IsMember(newcomer.ID) {
		t.Fatal("expected failed join to leave the room unchanged")
	}
}

func TestKickAndBanPublishEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	room := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)
	q := env.join(t, room.ID, "q", false)

	events, err := env.uc.WatchRoomEvents(ctx, room.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if _, err := env.uc.Kick(ctx, room.ID, uuid.New()); err != nil {
		t.Fatalf("kick stranger: %v", err)
	}
	kicked, err := env.uc.Kick(ctx, room.ID, p.ID)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if kicked.IsMember(p.ID) {
		t.Fatal("expected kicked user gone")
	}
	if _, err := env.uc.Ban(ctx, room.ID, q.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	if e := receive(t, events); e.Kind != domain.EventKicked || e.TargetID != p.ID {
		t.Fatalf("expected kick of %s, got %s", p.ID, e)
	}
	if e := receive(t, events); e.Kind != domain.EventBanned || e.TargetID != q.ID {
		t.Fatalf("expected ban of %s, got %s", q.ID, e)
	}

	if _, err := env.uc.Unban(ctx, room.ID, q.ID); err != nil {
		t.Fatalf("unban: %v", err)
	}
	got, _ := env.uc.RoomByID(ctx, room.ID)
	if got.IsBanned(q.ID) {
		t.Fatal("expected unban to lift the ban")
	}
}

func TestBanAfterLogoutStillRecordsBan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)

	if n := env.uc.Logout(ctx, p.ID); n != 1 {
		t.Fatalf("expected to leave 1 room, got %d", n)
	}
	got, err := env.uc.Ban(ctx, room.ID, p.ID)
	if err != nil {
		t.Fatalf("ban after logout: %v", err)
	}
	if !got.IsBanned(p.ID) || got.IsMember(p.ID) {
		t.Fatalf("expected banned non-member, got banned=%t member=%t", got.IsBanned(p.ID), got.IsMember(p.ID))
	}
	if len(got.Members) != 0 || len(got.Table) != 0 {
		t.Fatalf("expected empty room, got %d members and %d picks", len(got.Members), len(got.Table))
	}
}

func TestUnbanUnknownUserSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	room := env.createRoom(t, nil)
	banned := env.join(t, room.ID, "banned", false)
	if _, err := env.uc.Ban(ctx, room.ID, banned.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	views, err := env.uc.WatchRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	got, err := env.uc.Unban(ctx, room.ID, uuid.New())
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if len(got.Banned) != 1 || got.Banned[0] != banned.ID {
		t.Fatalf("expected ban list unchanged, got %v", got.Banned)
	}
	if v := receive(t, views); v.ID != room.ID || len(v.Banned) != 1 {
		t.Fatalf("expected a published view with the ban intact, got %v", v.Banned)
	}
}

func TestDeleteRoomRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	room := env.createRoom(t, nil)
	owner := env.join(t, room.ID, "owner", true)

	events, _ := env.uc.WatchRoomEvents(ctx, room.ID)

	if _, err := env.uc.DeleteRoom(ctx, room.ID, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := env.uc.DeleteRoom(ctx, room.ID, owner.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e := receive(t, events); e.Kind != domain.EventClosed {
		t.Fatalf("expected closed event, got %s", e)
	}
	if _, err := env.uc.DeleteRoom(ctx, room.ID, owner.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)

	if _, err := env.uc.SetOwner(ctx, room.ID, uuid.New()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	got, err := env.uc.SetOwner(ctx, room.ID, p.ID)
	if err != nil || got.OwnerID != p.ID {
		t.Fatalf("expected owner %s, got %s (%v)", p.ID, got.OwnerID, err)
	}
}

func TestRoomSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)

	got, _ := env.uc.UpdateDeck(ctx, room.ID, []string{"S", "M", "L"})
	if len(got.Deck) != 3 || got.Deck[2] != "L" {
		t.Fatalf("expected new deck, got %v", got.Deck)
	}
	got, _ = env.uc.RenameRoom(ctx, room.ID, "  Retro  ")
	if got.Name != "Retro" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	got, _ = env.uc.ToggleConfirmNewGame(ctx, room.ID, false)
	if got.ConfirmNewGame {
		t.Fatal("expected confirm_new_game off")
	}
	got, _ = env.uc.ToggleCountdown(ctx, room.ID, true)
	if !got.CountdownEnabled {
		t.Fatal("expected countdown on")
	}
}

func TestEditUserAndLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createRoom(t, nil)
	b := env.createRoom(t, nil)
	p := env.join(t, a.ID, "p", false)
	if _, err := env.uc.JoinRoom(ctx, b.ID, domain.UserInput{ID: p.ID, DisplayName: "p"}, uuid.Nil); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := env.uc.EditUser(ctx, p.ID, "  "); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	edited, err := env.uc.EditUser(ctx, p.ID, "renamed")
	if err != nil || edited.DisplayName != "renamed" || edited.ID != p.ID {
		t.Fatalf("unexpected edit result %+v (%v)", edited, err)
	}
	for _, r := range env.uc.UserRooms(ctx, p.ID) {
		if m, _ := r.Member(p.ID); m.DisplayName != "renamed" {
			t.Fatalf("expected renamed in %s, got %q", r.ID, m.DisplayName)
		}
	}

	if n := env.uc.Logout(ctx, p.ID); n != 2 {
		t.Fatalf("expected to leave 2 rooms, got %d", n)
	}
	if rooms := env.uc.UserRooms(ctx, p.ID); len(rooms) != 0 {
		t.Fatalf("expected no rooms after logout, got %d", len(rooms))
	}

	loner, err := env.uc.EditUser(ctx, uuid.New(), "loner")
	if err != nil || loner.DisplayName != "loner" {
		t.Fatalf("expected bare participant, got %+v (%v)", loner, err)
	}
	if n := env.uc.Logout(ctx, uuid.New()); n != 0 {
		t.Fatalf("expected 0 rooms, got %d", n)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	room := env.createRoom(t, nil)
	other := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)

	chat, err := env.uc.WatchChat(ctx, room.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: room.ID, AuthorID: p.ID, Content: "  "}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state for empty message, got %v", err)
	}
	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: other.ID, AuthorID: p.ID, AuthorName: "p", Content: "not joined"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state for a non-member, got %v", err)
	}
	if _, err := env.uc.JoinRoom(ctx, other.ID, domain.UserInput{ID: p.ID, DisplayName: "p"}, uuid.Nil); err != nil {
		t.Fatalf("join other: %v", err)
	}
	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: other.ID, AuthorID: p.ID, Content: "elsewhere"}); err != nil {
		t.Fatalf("send elsewhere: %v", err)
	}
	sent, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: room.ID, AuthorID: p.ID, Content: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.AuthorName != "p" {
		t.Fatalf("expected author name from membership, got %q", sent.AuthorName)
	}
	if got := receive(t, chat); got.ID != sent.ID || got.Content != "hello" {
		t.Fatalf("expected only this room's message, got %+v", got)
	}

	got, err := env.uc.MarkChatSeen(ctx, room.ID, p.ID)
	if err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if n := got.UnreadChat(p.ID); n != 0 {
		t.Fatalf("expected no unread messages, got %d", n)
	}

	if _, err := env.uc.Ban(ctx, room.ID, p.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: room.ID, AuthorID: p.ID, Content: "let me in"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for banned author, got %v", err)
	}
}

func TestWatchUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.uc.WatchRoom(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := domain.SubscriberCount[domain.Room](env.store.Hub()); n != 0 {
		t.Fatalf("expected failed watch to release its subscription, got %d", n)
	}
}

func TestWatchRoomFiltersOtherRooms(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := env.createRoom(t, nil)
	b := env.createRoom(t, nil)

	views, err := env.uc.WatchRoom(ctx, a.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	_, _ = env.uc.RenameRoom(ctx, b.ID, "b")
	_, _ = env.uc.RenameRoom(ctx, a.ID, "a")
	if got := receive(t, views); got.ID != a.ID || got.Name != "a" {
		t.Fatalf("expected room a, got %s %q", got.ID, got.Name)
	}
}

func TestRoomsListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createRoom(t, nil)
	env.createRoom(t, nil)
	p := env.join(t, a.ID, "p", false)
	_, _ = env.uc.PickCard(ctx, a.ID, p.ID, "5")

	if rooms := env.uc.Rooms(ctx); len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	mine := env.uc.UserRooms(ctx, p.ID)
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("expected only room a, got %d rooms", len(mine))
	}
	if card, _ := mine[0].SelectionOf(p.ID); card != "" {
		t.Fatalf("expected listed rooms to hide cards, got %q", card)
	}
}

func TestStatsAndTelemetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)
	env.join(t, room.ID, "p", false)

	s := env.uc.Stats(ctx)
	if s.Rooms != 1 || s.Users != 1 {
		t.Fatalf("unexpected sample %+v", s)
	}

	_ = env.emitter.Emit(ctx, domain.TelemetryHeartbeat, uuid.Nil, "rooms=1")
	_ = env.emitter.Emit(ctx, domain.TelemetryRoomExpired, room.ID, "idle since yesterday")

	events, err := env.uc.ListTelemetry(ctx, 0)
	if err != nil || len(events) != 2 {
		t.Fatalf("expected 2 events, got %d (%v)", len(events), err)
	}
	for _, e := range events {
		if !e.CreatedAt.Equal(testNow) {
			t.Fatalf("expected events stamped by the store clock %s, got %s", testNow, e.CreatedAt)
		}
	}
	if events[0].Kind != domain.TelemetryRoomExpired {
		t.Fatalf("expected newest first, got %s", events[0].Kind)
	}
	found, err := env.uc.SearchTelemetry(ctx, "idle")
	if err != nil || len(found) != 1 || found[0].RoomID != room.ID {
		t.Fatalf("expected one match, got %+v (%v)", found, err)
	}
	if _, err := env.uc.SearchTelemetry(ctx, "("); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid pattern error, got %v", err)
	}
}

func TestTelemetryWithoutRepository(t *testing.T) {
	store := domain.NewStore(domain.NewHub(4))
	uc := NewUsecase(store, nil, nil, NewEmitter(nil))
	events, err := uc.ListTelemetry(context.Background(), 10)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty telemetry, got %d (%v)", len(events), err)
	}
	if s := uc.Stats(context.Background()); s.Rooms != 0 {
		t.Fatalf("expected empty sample, got %+v", s)
	}
}
