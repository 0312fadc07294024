package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

type startResult struct {
	room domain.Room
	err  error
}

func startAsync(ctx context.Context, c *Countdown, roomID, invoker uuid.UUID) <-chan startResult {
	out := make(chan startResult, 1)
	go func() {
		room, err := c.Start(ctx, roomID, invoker)
		out <- startResult{room: room, err: err}
	}()
	return out
}

func enableCountdown(t *testing.T, env *testEnv, roomID uuid.UUID) {
	t.Helper()
	if _, err := env.uc.ToggleCountdown(context.Background(), roomID, true); err != nil {
		t.Fatalf("enable countdown: %v", err)
	}
}

func TestCountdownRejectsDisabledRoom(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)

	_, err := env.uc.StartCountdown(context.Background(), room.ID, uuid.New())
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	got, _ := env.uc.RoomByID(context.Background(), room.ID)
	if got.Stage.Kind() != domain.StageIdle {
		t.Fatalf("expected idle, got %s", got.Stage)
	}
}

func TestCountdownRevealsAfterThreeTicks(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	enableCountdown(t, env, room.ID)
	p := env.join(t, room.ID, "p", false)
	if _, err := env.uc.PickCard(context.Background(), room.ID, p.ID, "5"); err != nil {
		t.Fatalf("pick: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	views, err := env.uc.WatchRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	done := startAsync(context.Background(), env.countdown, room.ID, p.ID)
	for i := 0; i < 3; i++ {
		env.sleeper.awaitSleep(t)
		env.sleeper.step(t)
	}
	res := <-done
	if res.err != nil {
		t.Fatalf("start: %v", res.err)
	}
	if res.room.Stage.Kind() != domain.StageRevealed || !res.room.Revealed {
		t.Fatalf("expected revealed, got %s revealed=%t", res.room.Stage, res.room.Revealed)
	}
	if card, _ := res.room.SelectionOf(p.ID); card != "5" {
		t.Fatalf("expected revealed card 5, got %q", card)
	}

	want := []string{"countdown(3)", "countdown(2)", "countdown(1)", "revealed"}
	for _, w := range want {
		if got := receive(t, views).Stage.String(); got != w {
			t.Fatalf("expected published stage %s, got %s", w, got)
		}
	}
}

func TestCountdownCancelledAfterFirstTick(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	enableCountdown(t, env, room.ID)
	owner := env.join(t, room.ID, "owner", true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	views, err := env.uc.WatchRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	done := startAsync(context.Background(), env.countdown, room.ID, owner.ID)
	env.sleeper.awaitSleep(t)
	env.sleeper.step(t)
	env.sleeper.awaitSleep(t)

	if got := receive(t, views).Stage.String(); got != "countdown(3)" {
		t.Fatalf("expected countdown(3), got %s", got)
	}
	if got := receive(t, views).Stage.String(); got != "countdown(2)" {
		t.Fatalf("expected countdown(2), got %s", got)
	}

	if _, err := env.uc.CancelCountdown(context.Background(), room.ID, owner.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	env.sleeper.step(t)

	res := <-done
	if res.err != nil {
		t.Fatalf("start: %v", res.err)
	}
	if res.room.Stage.Kind() != domain.StageCancelled || res.room.Revealed {
		t.Fatalf("expected cancelled and hidden, got %s revealed=%t", res.room.Stage, res.room.Revealed)
	}
	if _, ok := res.room.Stage.CountdownValue(); ok {
		t.Fatal("expected no countdown value after cancel")
	}

	var last domain.Room
	for i := 0; i < 2; i++ {
		last = receive(t, views)
	}
	if last.Stage.Kind() != domain.StageCancelled {
		t.Fatalf("expected final published stage cancelled, got %s", last.Stage)
	}
}

func TestCountdownChecksOwner(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	enableCountdown(t, env, room.ID)
	owner := env.join(t, room.ID, "owner", true)
	other := env.join(t, room.ID, "other", false)

	if _, err := env.uc.StartCountdown(context.Background(), room.ID, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden start, got %v", err)
	}

	done := startAsync(context.Background(), env.countdown, room.ID, owner.ID)
	env.sleeper.awaitSleep(t)
	if _, err := env.uc.CancelCountdown(context.Background(), room.ID, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden cancel, got %v", err)
	}
	if _, err := env.uc.StartCountdown(context.Background(), room.ID, owner.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for a second countdown, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			env.sleeper.awaitSleep(t)
		}
		env.sleeper.step(t)
	}
	if res := <-done; res.err != nil || !res.room.Revealed {
		t.Fatalf("expected completed reveal, got %+v", res)
	}
}

func TestCountdownSurvivesCallerDisconnect(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	enableCountdown(t, env, room.ID)

	ctx, cancel := context.WithCancel(context.Background())
	done := startAsync(ctx, env.countdown, room.ID, uuid.New())
	env.sleeper.awaitSleep(t)
	cancel()

	res := <-done
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected caller cancellation, got %v", res.err)
	}
	if n, ok := res.room.Stage.CountdownValue(); !ok || n != 3 {
		t.Fatalf("expected the initial countdown view, got %s", res.room.Stage)
	}

	env.sleeper.step(t)
	env.sleeper.awaitSleep(t)
	env.sleeper.step(t)
	env.sleeper.awaitSleep(t)
	env.sleeper.step(t)
	env.countdown.Wait()

	got, _ := env.uc.RoomByID(context.Background(), room.ID)
	if !got.Revealed {
		t.Fatalf("expected the run to finish in the background, got %s", got.Stage)
	}
}

func TestCountdownAbortsOnShutdown(t *testing.T) {
	clock := &fakeClock{now: testNow}
	store := domain.NewStore(domain.NewHub(16), domain.WithClock(clock.Now))
	base, stop := context.WithCancel(context.Background())
	sleeper := newStepSleeper()
	c := NewCountdown(store, WithSleeper(sleeper.Sleep), WithBaseContext(base))

	room, _ := store.Create(uuid.Nil, "", nil)
	_, _ = store.Update(room.ID, func(r *domain.Room) error {
		r.EnableCountdown(true)
		return nil
	})

	done := startAsync(context.Background(), c, room.ID, uuid.New())
	sleeper.awaitSleep(t)
	stop()

	res := <-done
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected shutdown error, got %v", res.err)
	}
	c.Wait()
	got, _ := store.Read(room.ID)
	if got.Stage.Kind() != domain.StageCancelled {
		t.Fatalf("expected cancelled on shutdown, got %s", got.Stage)
	}
	if !got.IsSafeToRemove() {
		t.Fatal("expected an aborted room to be removable")
	}
}

func TestCountdownStopsWhenRoomRemoved(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, nil)
	enableCountdown(t, env, room.ID)

	done := startAsync(context.Background(), env.countdown, room.ID, uuid.New())
	env.sleeper.awaitSleep(t)
	if _, err := env.uc.DeleteRoom(context.Background(), room.ID, uuid.New()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	env.sleeper.step(t)

	if res := <-done; !errors.Is(res.err, domain.ErrNotFound) {
		t.Fatalf("expected not found once the room is gone, got %v", res.err)
	}
}
