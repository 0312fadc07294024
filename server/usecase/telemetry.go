package usecase

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ponyo877/summitpoker/server/usecase"

var tracer = otel.Tracer(instrumentationName)

func startSpan(ctx context.Context, name string, roomID uuid.UUID) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if roomID != uuid.Nil {
		span.SetAttributes(attribute.String("room.id", roomID.String()))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.code", string(domain.CodeOf(err))))
	}
	span.End()
}

// Emitter records operational telemetry events.
type Emitter struct {
	repo  Repository
	clock func() time.Time
}

type EmitterOption func(*Emitter)

// WithEmitterClock stamps events with clock instead of wall time.
func WithEmitterClock(clock func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func NewEmitter(repo Repository, opts ...EmitterOption) *Emitter {
	e := &Emitter{repo: repo, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit records an event. It is a no-op when no repository is configured.
func (e *Emitter) Emit(ctx context.Context, kind domain.TelemetryKind, roomID uuid.UUID, message string) error {
	if e == nil || e.repo == nil {
		return nil
	}
	now := time.Now().UTC()
	if e.clock != nil {
		now = e.clock().UTC()
	}
	return e.repo.AppendEvent(ctx, domain.NewTelemetryEvent(kind, roomID, message, now))
}

// emit logs instead of returning, for background tasks.
func (e *Emitter) emit(ctx context.Context, kind domain.TelemetryKind, roomID uuid.UUID, message string) {
	if err := e.Emit(ctx, kind, roomID, message); err != nil {
		log.Printf("telemetry: emit %s: %v", kind, err)
	}
}

func (e *Emitter) List(ctx context.Context, limit int) ([]domain.TelemetryEvent, error) {
	if e == nil || e.repo == nil {
		return []domain.TelemetryEvent{}, nil
	}
	return e.repo.ListEvents(ctx, limit)
}

func (e *Emitter) Search(ctx context.Context, pattern string, limit int) ([]domain.TelemetryEvent, error) {
	if e == nil || e.repo == nil {
		return []domain.TelemetryEvent{}, nil
	}
	return e.repo.SearchEvents(ctx, pattern, limit)
}
