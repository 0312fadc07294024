package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultSweepInterval = 30 * time.Minute
	DefaultRoomTTL       = 8 * 24 * time.Hour
	DefaultChatRetention = 24 * time.Hour
)

// SweepResult summarises one sweep tick.
type SweepResult struct {
	Scanned        int
	PrunedChat     int
	EstimatedBytes int
	AvgBytes       float64
	Removed        []uuid.UUID
	Absent         int
	Kept           int
	Failed         int
}

// Sweeper periodically prunes chat history and evicts idle rooms.
type Sweeper struct {
	store     *domain.Store
	emitter   *Emitter
	interval  time.Duration
	ttl       time.Duration
	retention time.Duration

	evicted   metric.Int64Counter
	pruned    metric.Int64Counter
	estimated metric.Int64Gauge
}

type SweeperOption func(*Sweeper)

func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithRoomTTL(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithChatRetention(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewSweeper(store *domain.Store, emitter *Emitter, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:     store,
		emitter:   emitter,
		interval:  DefaultSweepInterval,
		ttl:       DefaultRoomTTL,
		retention: DefaultChatRetention,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if s.evicted, err = meter.Int64Counter("summitpoker.rooms.evicted",
		metric.WithDescription("Rooms removed by the sweeper")); err != nil {
		log.Printf("sweeper: evicted counter: %v", err)
	}
	if s.pruned, err = meter.Int64Counter("summitpoker.chat.pruned",
		metric.WithDescription("Chat messages dropped past retention")); err != nil {
		log.Printf("sweeper: pruned counter: %v", err)
	}
	if s.estimated, err = meter.Int64Gauge("summitpoker.rooms.estimated_bytes",
		metric.WithDescription("Estimated metadata bytes across all rooms"),
		metric.WithUnit("By")); err != nil {
		log.Printf("sweeper: estimate gauge: %v", err)
	}
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("sweeper: started interval=%s ttl=%s retention=%s", s.interval, s.ttl, s.retention)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sweeper: recovered from panic: %v", r)
		}
	}()
	res := s.Sweep(ctx)
	log.Printf("sweeper: scanned=%d removed=%d absent=%d kept=%d pruned_chat=%d est_bytes=%d avg_bytes=%.1f",
		res.Scanned, len(res.Removed), res.Absent, res.Kept, res.PrunedChat, res.EstimatedBytes, res.AvgBytes)
}

func (s *Sweeper) eligible(r *domain.Room, now time.Time) bool {
	return r.IsSafeToRemove() && now.Sub(r.LastActive) > s.ttl
}

// Sweep runs one scan-then-remove pass. The scan holds the store lock once;
// each removal re-acquires it and re-checks eligibility.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	ctx, span := startSpan(ctx, "usecase.Sweep", uuid.Nil)
	defer endSpan(span, nil)

	now := s.store.Now()
	cutoff := now.Add(-s.retention)

	var res SweepResult
	var candidates []uuid.UUID
	s.store.Each(func(r *domain.Room) {
		if err := s.scanRoom(r, now, cutoff, &res, &candidates); err != nil {
			res.Failed++
			log.Printf("sweeper: scan room %s: %v", r.ID, err)
		}
	})
	if res.Scanned > 0 {
		res.AvgBytes = float64(res.EstimatedBytes) / float64(res.Scanned)
	}

	for _, id := range candidates {
		room, outcome := s.store.RemoveIf(id, func(r *domain.Room) bool {
			return s.eligible(r, now)
		})
		switch outcome {
		case domain.Removed:
			res.Removed = append(res.Removed, id)
			domain.Publish(s.store.Hub(), domain.NewExpiredEvent(room.View()))
			s.emitter.emit(ctx, domain.TelemetryRoomExpired, id,
				fmt.Sprintf("idle since %s", room.LastActive.UTC().Format(time.RFC3339)))
		case domain.Absent:
			res.Absent++
			log.Printf("sweeper: room %s already removed", id)
		case domain.Kept:
			res.Kept++
			log.Printf("sweeper: room %s became active, kept", id)
		}
	}

	s.record(ctx, res)
	return res
}

func (s *Sweeper) scanRoom(r *domain.Room, now, cutoff time.Time, res *SweepResult, candidates *[]uuid.UUID) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	res.Scanned++
	res.PrunedChat += r.PruneChat(cutoff)
	res.EstimatedBytes += r.EstimateBytes()
	if s.eligible(r, now) {
		*candidates = append(*candidates, r.ID)
	}
	return nil
}

func (s *Sweeper) record(ctx context.Context, res SweepResult) {
	if s.evicted != nil {
		s.evicted.Add(ctx, int64(len(res.Removed)))
	}
	if s.pruned != nil {
		s.pruned.Add(ctx, int64(res.PrunedChat))
	}
	if s.estimated != nil {
		s.estimated.Record(ctx, int64(res.EstimatedBytes))
	}
	if len(res.Removed) > 0 || res.PrunedChat > 0 {
		s.emitter.emit(ctx, domain.TelemetrySweep, uuid.Nil,
			fmt.Sprintf("removed=%d pruned_chat=%d est_bytes=%d", len(res.Removed), res.PrunedChat, res.EstimatedBytes))
	}
}
