package usecase

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

func newTestSweeper(env *testEnv) *Sweeper {
	return NewSweeper(env.store, env.emitter,
		WithRoomTTL(8*24*time.Hour),
		WithChatRetention(24*time.Hour),
	)
}

func TestSweepEvictsIdleRoomsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idle := env.createRoom(t, nil)
	counting := env.createRoom(t, nil)
	enableCountdown(t, env, counting.ID)
	started := startAsync(ctx, env.countdown, counting.ID, uuid.New())
	env.sleeper.awaitSleep(t)

	events := domain.Subscribe[domain.RoomEvent](env.store.Hub())
	defer events.Close()

	env.clock.Advance(9 * 24 * time.Hour)
	res := newTestSweeper(env).Sweep(ctx)

	if len(res.Removed) != 1 || res.Removed[0] != idle.ID {
		t.Fatalf("expected only %s removed, got %v", idle.ID, res.Removed)
	}
	if res.Scanned != 2 {
		t.Fatalf("expected 2 rooms scanned, got %d", res.Scanned)
	}
	if _, ok := env.store.Read(counting.ID); !ok {
		t.Fatal("expected counting room to survive")
	}
	if _, ok := env.store.Read(idle.ID); ok {
		t.Fatal("expected idle room gone")
	}

	e := receive(t, events.C())
	if e.Kind != domain.EventExpired || e.RoomID != idle.ID {
		t.Fatalf("expected expiry of %s, got %s", idle.ID, e)
	}
	select {
	case extra := <-events.C():
		t.Fatalf("expected exactly one event, got %s", extra)
	default:
	}

	kinds := env.repo.kinds()
	if !slices.Contains(kinds, domain.TelemetryRoomExpired) || !slices.Contains(kinds, domain.TelemetrySweep) {
		t.Fatalf("expected expiry and sweep telemetry, got %v", kinds)
	}

	if _, err := env.countdown.Cancel(ctx, counting.ID, uuid.New()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	env.sleeper.step(t)
	<-started
	env.countdown.Wait()
}

func TestSweepKeepsRecentlyActiveRooms(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)

	env.clock.Advance(7 * 24 * time.Hour)
	if _, err := env.uc.RenameRoom(context.Background(), room.ID, "still here"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	env.clock.Advance(2 * 24 * time.Hour)

	res := newTestSweeper(env).Sweep(context.Background())
	if len(res.Removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", res.Removed)
	}
}

func TestSweepPrunesOldChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.createRoom(t, nil)
	p := env.join(t, room.ID, "p", false)

	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: room.ID, AuthorID: p.ID, Content: "old"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	env.clock.Advance(25 * time.Hour)
	if _, err := env.uc.SendChat(ctx, domain.ChatInput{RoomID: room.ID, AuthorID: p.ID, Content: "new"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	res := newTestSweeper(env).Sweep(ctx)
	if res.PrunedChat != 1 {
		t.Fatalf("expected 1 pruned message, got %d", res.PrunedChat)
	}
	got, _ := env.store.Read(room.ID)
	if len(got.ChatLog) != 1 || got.ChatLog[0].Content != "new" {
		t.Fatalf("expected only the new message, got %d", len(got.ChatLog))
	}
	if res.EstimatedBytes != got.EstimateBytes() {
		t.Fatalf("expected estimate %d, got %d", got.EstimateBytes(), res.EstimatedBytes)
	}
}

func TestSweepEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	res := newTestSweeper(env).Sweep(context.Background())
	if res.Scanned != 0 || len(res.Removed) != 0 || res.AvgBytes != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}
