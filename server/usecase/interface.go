package usecase

import (
	"context"

	"github.com/ponyo877/summitpoker/server/domain"
)

// Repository is the operational history sink. Session state never passes
// through it.
type Repository interface {
	AppendEvent(ctx context.Context, event domain.TelemetryEvent) error
	ListEvents(ctx context.Context, limit int) ([]domain.TelemetryEvent, error)
	SearchEvents(ctx context.Context, pattern string, limit int) ([]domain.TelemetryEvent, error)
}
