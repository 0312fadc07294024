package usecase

import (
	"context"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryRepo is an in-memory Repository.
type memoryRepo struct {
	mu     sync.Mutex
	events []domain.TelemetryEvent
}

func (m *memoryRepo) AppendEvent(ctx context.Context, e domain.TelemetryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryRepo) ListEvents(ctx context.Context, limit int) ([]domain.TelemetryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.events)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) SearchEvents(ctx context.Context, pattern string, limit int) ([]domain.TelemetryEvent, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInvalidState, "invalid search pattern", err)
	}
	all, _ := m.ListEvents(ctx, 1<<30)
	out := []domain.TelemetryEvent{}
	for _, e := range all {
		if re.MatchString(e.Message) || re.MatchString(string(e.Kind)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepo) kinds() []domain.TelemetryKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.TelemetryKind, len(m.events))
	for i, e := range m.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// stepSleeper hands control of every countdown pause to the test: it
// signals on slept and blocks until wake or ctx is done.
type stepSleeper struct {
	slept chan struct{}
	wake  chan struct{}
}

func newStepSleeper() *stepSleeper {
	return &stepSleeper{slept: make(chan struct{}, 8), wake: make(chan struct{})}
}

func (s *stepSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept <- struct{}{}
	select {
	case <-s.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stepSleeper) awaitSleep(t *testing.T) {
	t.Helper()
	select {
	case <-s.slept:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the countdown to sleep")
	}
}

func (s *stepSleeper) step(t *testing.T) {
	t.Helper()
	select {
	case s.wake <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waking the countdown")
	}
}

type testEnv struct {
	store     *domain.Store
	clock     *fakeClock
	repo      *memoryRepo
	emitter   *Emitter
	sleeper   *stepSleeper
	countdown *Countdown
	uc        *Usecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{now: testNow}
	store := domain.NewStore(domain.NewHub(64), domain.WithClock(clock.Now))
	repo := &memoryRepo{}
	emitter := NewEmitter(repo, WithEmitterClock(clock.Now))
	sleeper := newStepSleeper()
	countdown := NewCountdown(store, WithSleeper(sleeper.Sleep))
	heartbeat := NewHeartbeat(store, emitter, time.Minute)
	return &testEnv{
		store:     store,
		clock:     clock,
		repo:      repo,
		emitter:   emitter,
		sleeper:   sleeper,
		countdown: countdown,
		uc:        NewUsecase(store, countdown, heartbeat, emitter),
	}
}

func (e *testEnv) createRoom(t *testing.T, deck []string) domain.Room {
	t.Helper()
	room, err := e.uc.CreateRoom(context.Background(), uuid.New(), "sprint", deck)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func (e *testEnv) join(t *testing.T, roomID uuid.UUID, name string, owner bool) domain.Participant {
	t.Helper()
	p := e.uc.CreateUser(context.Background(), name)
	ownerID := uuid.Nil
	if owner {
		ownerID = p.ID
	}
	if _, err := e.uc.JoinRoom(context.Background(), roomID, domain.UserInput{ID: p.ID, DisplayName: name}, ownerID); err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}
