package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

// DefaultCountdownTick is the pause between countdown steps.
const DefaultCountdownTick = time.Second

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Countdown drives reveal countdowns. Each Start is one independent run;
// the store lock is released while a run sleeps, so every wake-up re-reads
// the room before touching it.
type Countdown struct {
	store *domain.Store
	tick  time.Duration
	sleep Sleeper
	base  context.Context
	wg    sync.WaitGroup
}

type CountdownOption func(*Countdown)

func WithTick(d time.Duration) CountdownOption {
	return func(c *Countdown) {
		if d > 0 {
			c.tick = d
		}
	}
}

func WithSleeper(s Sleeper) CountdownOption {
	return func(c *Countdown) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithBaseContext bounds every run by ctx instead of the caller's context.
// When ctx ends mid-run the room's countdown is cancelled.
func WithBaseContext(ctx context.Context) CountdownOption {
	return func(c *Countdown) {
		if ctx != nil {
			c.base = ctx
		}
	}
}

func NewCountdown(store *domain.Store, opts ...CountdownOption) *Countdown {
	c := &Countdown{
		store: store,
		tick:  DefaultCountdownTick,
		sleep: SleepContext,
		base:  context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type countdownResult struct {
	room domain.Room
	err  error
}

// Start enters Countdown(3) and waits for the run to finish. If ctx ends
// first, Start returns early while the run continues in the background.
func (c *Countdown) Start(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	var run uint64
	room, err := c.store.Update(roomID, func(r *domain.Room) error {
		n, err := r.StartCountdown(invoker)
		if err != nil {
			return err
		}
		run = n
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}

	done := make(chan countdownResult, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		r, err := c.run(roomID, run)
		done <- countdownResult{room: r, err: err}
	}()

	select {
	case res := <-done:
		return res.room, res.err
	case <-ctx.Done():
		return room, ctx.Err()
	}
}

func (c *Countdown) run(roomID uuid.UUID, run uint64) (domain.Room, error) {
	for {
		if err := c.sleep(c.base, c.tick); err != nil {
			return c.abort(roomID, run)
		}

		var step domain.CountdownStep
		room, err := c.store.Update(roomID, func(r *domain.Room) error {
			step = r.AdvanceCountdown(run)
			if step == domain.StepSuperseded {
				return domain.ErrUnchanged
			}
			return nil
		})
		if err != nil {
			log.Printf("countdown: room %s vanished mid-run: %v", roomID, err)
			return domain.Room{}, err
		}

		switch step {
		case domain.StepTicked:
			continue
		case domain.StepCompleted:
			log.Printf("countdown: room %s revealed", roomID)
		case domain.StepCancelled:
			log.Printf("countdown: room %s cancelled", roomID)
		case domain.StepSuperseded:
			log.Printf("countdown: room %s superseded at %s", roomID, room.Stage)
		}
		return room, nil
	}
}

func (c *Countdown) abort(roomID uuid.UUID, run uint64) (domain.Room, error) {
	room, err := c.store.Update(roomID, func(r *domain.Room) error {
		if !r.AbortCountdown(run) {
			return domain.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	log.Printf("countdown: room %s aborted on shutdown", roomID)
	return room, c.base.Err()
}

// Cancel moves a running countdown to Cancelled. The run notices on its
// next wake-up.
func (c *Countdown) Cancel(ctx context.Context, roomID, invoker uuid.UUID) (domain.Room, error) {
	return c.store.Update(roomID, func(r *domain.Room) error {
		return r.CancelCountdown(invoker)
	})
}

// Wait blocks until every in-flight run has returned.
func (c *Countdown) Wait() {
	c.wg.Wait()
}
