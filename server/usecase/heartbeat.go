package usecase

import (
	"context"
	"log"
	"os"
	"runtime/metrics"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const DefaultHeartbeatInterval = 60 * time.Second

const metricTotalMemory = "/memory/classes/total:bytes"

// Heartbeat samples store and process statistics. It never mutates the
// store.
type Heartbeat struct {
	store    *domain.Store
	emitter  *Emitter
	interval time.Duration
	proc     *process.Process

	mu       sync.RWMutex
	latest   domain.Sample
	lastCPU  float64
	lastWall time.Time

	rooms  metric.Int64Gauge
	users  metric.Int64Gauge
	memory metric.Float64Gauge
}

func NewHeartbeat(store *domain.Store, emitter *Emitter, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	h := &Heartbeat{
		store:    store,
		emitter:  emitter,
		interval: interval,
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("heartbeat: process handle: %v", err)
	} else {
		h.proc = proc
	}

	meter := otel.Meter(instrumentationName)
	if h.rooms, err = meter.Int64Gauge("summitpoker.rooms.active"); err != nil {
		log.Printf("heartbeat: rooms gauge: %v", err)
	}
	if h.users, err = meter.Int64Gauge("summitpoker.users.active"); err != nil {
		log.Printf("heartbeat: users gauge: %v", err)
	}
	if h.memory, err = meter.Float64Gauge("summitpoker.process.memory", metric.WithUnit("MiBy")); err != nil {
		log.Printf("heartbeat: memory gauge: %v", err)
	}
	return h
}

// Run samples every interval until ctx is done.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log.Printf("heartbeat: started interval=%s", h.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("heartbeat: stopped")
			return nil
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *Heartbeat) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("heartbeat: recovered from panic: %v", r)
		}
	}()
	sample := h.Sample(ctx)
	log.Printf("heartbeat: %s", sample)
	h.emitter.emit(ctx, domain.TelemetryHeartbeat, uuid.Nil, sample.String())
}

// Sample takes one reading and keeps it as the latest.
func (h *Heartbeat) Sample(ctx context.Context) domain.Sample {
	stats := h.store.Stats()
	now := h.store.Now()

	sample := domain.NewSample(stats, now)
	if hub := h.store.Hub(); hub != nil {
		sample.Subscribers = domain.SubscriberCount[domain.Room](hub) +
			domain.SubscriberCount[domain.RoomEvent](hub) +
			domain.SubscriberCount[domain.ChatMessage](hub)
		hs := hub.Stats()
		sample.PublishedEvents = hs.Published
		sample.DroppedSubscribers = hs.Dropped
	}

	memBytes, cpuSeconds := h.readProcessMetrics(ctx)
	sample.MemoryMiB = float64(memBytes) / (1 << 20)

	wall := time.Now()
	h.mu.Lock()
	if !h.lastWall.IsZero() {
		if elapsed := wall.Sub(h.lastWall).Seconds(); elapsed > 0 && cpuSeconds >= h.lastCPU {
			sample.CPUPercent = (cpuSeconds - h.lastCPU) / elapsed * 100
		}
	}
	h.lastCPU = cpuSeconds
	h.lastWall = wall
	h.latest = sample
	h.mu.Unlock()

	if h.rooms != nil {
		h.rooms.Record(ctx, int64(sample.Rooms))
	}
	if h.users != nil {
		h.users.Record(ctx, int64(sample.Users))
	}
	if h.memory != nil {
		h.memory.Record(ctx, sample.MemoryMiB)
	}
	return sample
}

// Latest returns the most recent sample, taking one if none exists yet.
func (h *Heartbeat) Latest(ctx context.Context) domain.Sample {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	if latest.TakenAt.IsZero() {
		return h.Sample(ctx)
	}
	return latest
}

// readProcessMetrics returns the resident set size and the CPU seconds
// consumed by this process so far. Memory falls back to the Go runtime's
// own accounting when the OS cannot be queried.
func (h *Heartbeat) readProcessMetrics(ctx context.Context) (uint64, float64) {
	var mem uint64
	var cpu float64
	if h.proc != nil {
		if info, err := h.proc.MemoryInfoWithContext(ctx); err == nil {
			mem = info.RSS
		}
		if times, err := h.proc.TimesWithContext(ctx); err == nil {
			cpu = times.User + times.System
		}
	}
	if mem == 0 {
		samples := []metrics.Sample{{Name: metricTotalMemory}}
		metrics.Read(samples)
		if samples[0].Value.Kind() == metrics.KindUint64 {
			mem = samples[0].Value.Uint64()
		}
	}
	return mem, cpu
}
