package adaptor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "not found", err: domain.NewError(domain.CodeNotFound, "gone"), want: codes.NotFound},
		{name: "forbidden", err: domain.NewError(domain.CodeForbidden, "no"), want: codes.PermissionDenied},
		{name: "invalid state", err: domain.NewError(domain.CodeInvalidState, "bad"), want: codes.FailedPrecondition},
		{name: "conflict", err: fmt.Errorf("create: %w", domain.NewError(domain.CodeConflict, "dup")), want: codes.AlreadyExists},
		{name: "canceled", err: context.Canceled, want: codes.Canceled},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "status passthrough", err: status.Error(codes.InvalidArgument, "x"), want: codes.InvalidArgument},
		{name: "unknown", err: errors.New("boom"), want: codes.Internal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(toStatus(tc.err)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
	if toStatus(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}

func TestClassifyMethodKind(t *testing.T) {
	if got := classifyMethodKind(FullMethod(MethodGetRoom)); got != "read" {
		t.Fatalf("expected read, got %s", got)
	}
	if got := classifyMethodKind(FullMethod(MethodPickCard)); got != "write" {
		t.Fatalf("expected write, got %s", got)
	}
}

func TestRoomFieldsCarryCountdown(t *testing.T) {
	r := domain.NewRoom(uuid.New(), "r", []string{"1", "2"}, time.Now())
	r.Stage = domain.Countdown(2)

	got := roomFrom(fields(roomFields(r.View())))
	if n, ok := got.Stage.CountdownValue(); !ok || n != 2 {
		t.Fatalf("expected countdown(2), got %s", got.Stage)
	}
	if got.ID != r.ID || len(got.Deck) != 2 {
		t.Fatalf("unexpected room %+v", got)
	}
}

func TestRequiredID(t *testing.T) {
	in := fields{"room_id": "not-a-uuid"}
	if _, err := in.requiredID("room_id"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := (fields{}).requiredID("room_id"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for a missing id, got %v", err)
	}
	id, err := (fields{}).id("room_id")
	if err != nil || id != uuid.Nil {
		t.Fatalf("expected nil id for an optional field, got %s (%v)", id, err)
	}
}
