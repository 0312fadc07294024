package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnchanged may be returned by an Update function to report that nothing
// changed; the room is then neither touched nor published.
var ErrUnchanged = errors.New("unchanged")

// Store is the single owner of every Room. All access goes through its
// methods, which hold one exclusive lock over the whole collection; no
// *Room escapes a critical section.
type Store struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
	hub   *Hub
	clock func() time.Time
}

type StoreOption func(*Store)

// WithClock injects the time source used to stamp activity.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewStore(hub *Hub, opts ...StoreOption) *Store {
	s := &Store{
		rooms: make(map[uuid.UUID]*Room),
		hub:   hub,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time {
	return s.clock()
}

func (s *Store) Hub() *Hub {
	return s.hub
}

// publishLocked must be called with s.mu held so that snapshots of one room
// are published in mutation order.
func (s *Store) publishLocked(r *Room) {
	Publish(s.hub, r.View())
}

// Create inserts a new room. A nil id is replaced by a generated one.
func (s *Store) Create(id uuid.UUID, name string, deck []string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != uuid.Nil {
		if _, exists := s.rooms[id]; exists {
			return Room{}, NewError(CodeConflict, fmt.Sprintf("room %s already exists", id))
		}
	}
	room := NewRoom(id, name, deck, s.clock())
	s.rooms[room.ID] = room
	s.publishLocked(room)
	return room.View(), nil
}

func notFound(id uuid.UUID) error {
	return NewError(CodeNotFound, fmt.Sprintf("room %s not found", id))
}

// WithRoom runs fn with exclusive access to the room.
func (s *Store) WithRoom(id uuid.UUID, fn func(r *Room) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return notFound(id)
	}
	return fn(room)
}

// Mutate is WithRoom for functions that produce a value.
func Mutate[T any](s *Store, id uuid.UUID, fn func(r *Room) (T, error)) (T, error) {
	var out T
	err := s.WithRoom(id, func(r *Room) error {
		v, err := fn(r)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Update is the shape of every public room operation: apply fn, touch,
// publish the view, and return it. fn must validate before it mutates.
func (s *Store) Update(id uuid.UUID, fn func(r *Room) error) (Room, error) {
	return Mutate(s, id, func(r *Room) (Room, error) {
		if err := fn(r); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return r.View(), nil
			}
			return Room{}, err
		}
		r.Touch(s.clock())
		s.publishLocked(r)
		return r.View(), nil
	})
}

// UpdateWhere applies fn to every room accepted by match in one critical
// section, touching and publishing each. It returns the updated views.
func (s *Store) UpdateWhere(match func(r *Room) bool, fn func(r *Room)) []Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	var updated []Room
	for _, room := range s.sortedLocked() {
		if !match(room) {
			continue
		}
		fn(room)
		room.Touch(now)
		s.publishLocked(room)
		updated = append(updated, room.View())
	}
	return updated
}

// Read returns a deep copy of the stored room.
func (s *Store) Read(id uuid.UUID) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return Room{}, false
	}
	return room.Clone(), true
}

// ReadAll returns deep copies of every room ordered by id.
func (s *Store) ReadAll() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]Room, 0, len(s.rooms))
	for _, room := range s.sortedLocked() {
		rooms = append(rooms, room.Clone())
	}
	return rooms
}

func (s *Store) sortedLocked() []*Room {
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b *Room) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return rooms
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Remove deletes the room and returns it, or false when it was already gone.
func (s *Store) Remove(id uuid.UUID) (Room, bool) {
	r, res := s.RemoveIf(id, nil)
	return r, res == Removed
}

type RemoveResult int

const (
	Removed RemoveResult = iota
	Absent
	Kept
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case Absent:
		return "absent"
	case Kept:
		return "kept"
	default:
		return "unknown"
	}
}

// RemoveIf deletes the room only if cond, evaluated under the lock, holds.
func (s *Store) RemoveIf(id uuid.UUID, cond func(r *Room) bool) (Room, RemoveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return Room{}, Absent
	}
	if cond != nil && !cond(room) {
		return Room{}, Kept
	}
	delete(s.rooms, id)
	return room.Clone(), Removed
}

// Each runs fn over every room in one exclusive pass. fn may mutate the
// room in place but must not retain it.
func (s *Store) Each(fn func(r *Room)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.sortedLocked() {
		fn(room)
	}
}

// StoreStats are aggregate counts taken in one short critical section.
type StoreStats struct {
	Rooms            int
	Members          int
	ChatMessages     int
	ChatBytes        int
	DeckCards        int
	EstimatedBytes   int
	ActiveCountdowns int
}

func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreStats{Rooms: len(s.rooms)}
	for _, room := range s.rooms {
		stats.Members += len(room.Members)
		stats.DeckCards += len(room.Deck)
		stats.ChatMessages += len(room.ChatLog)
		for _, msg := range room.ChatLog {
			stats.ChatBytes += msg.Size()
		}
		stats.EstimatedBytes += room.EstimateBytes()
		if room.Stage.IsCountdown() {
			stats.ActiveCountdowns++
		}
	}
	return stats
}
