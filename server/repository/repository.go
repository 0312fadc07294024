package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/summitpoker/server/domain"
)

// DriverName is go-sqlite3 with a REGEXP function backed by Go's regexp.
const DriverName = "sqlite3_with_go_func"

var registerOnce sync.Once

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

// Open registers the driver on first use and opens the database at dsn.
func Open(dsn string) (*sql.DB, error) {
	registerOnce.Do(func() {
		sql.Register(DriverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry db: %w", err)
	}
	return db, nil
}

// Repository stores operational telemetry. Room state is never written.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS telemetry_events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	room_id    TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS telemetry_events_kind ON telemetry_events (kind);
`

func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create telemetry schema: %w", err)
	}
	return nil
}

func (r *Repository) AppendEvent(ctx context.Context, e domain.TelemetryEvent) error {
	query := "INSERT INTO telemetry_events (id, kind, room_id, message, created_at) VALUES (?, ?, ?, ?, ?)"
	var roomID string
	if e.RoomID != uuid.Nil {
		roomID = e.RoomID.String()
	}
	if _, err := r.db.ExecContext(ctx, query, e.ID.String(), string(e.Kind), roomID, e.Message, e.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert telemetry event %s: %w", e.ID, err)
	}
	return nil
}

// ListEvents returns the newest events first.
func (r *Repository) ListEvents(ctx context.Context, limit int) ([]domain.TelemetryEvent, error) {
	query := "SELECT id, kind, room_id, message, created_at FROM telemetry_events ORDER BY id DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// SearchEvents matches pattern as a regular expression against the message
// and kind, newest first.
func (r *Repository) SearchEvents(ctx context.Context, pattern string, limit int) ([]domain.TelemetryEvent, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, domain.WrapError(domain.CodeInvalidState, "invalid search pattern", err)
	}
	query := "SELECT id, kind, room_id, message, created_at FROM telemetry_events WHERE message REGEXP ? OR kind REGEXP ? ORDER BY id DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute telemetry search for query '%s': %w", pattern, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]domain.TelemetryEvent, error) {
	events := []domain.TelemetryEvent{}
	for rows.Next() {
		var id, kind, roomID, message string
		var createdAt time.Time
		if err := rows.Scan(&id, &kind, &roomID, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry event: %w", err)
		}
		e := domain.TelemetryEvent{
			Kind:      domain.TelemetryKind(kind),
			Message:   message,
			CreatedAt: createdAt,
		}
		if parsed, err := ulid.Parse(id); err == nil {
			e.ID = parsed
		}
		if roomID != "" {
			if parsed, err := uuid.Parse(roomID); err == nil {
				e.RoomID = parsed
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over telemetry events: %w", err)
	}
	return events, nil
}
