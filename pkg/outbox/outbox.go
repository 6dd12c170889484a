package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malladmin/pkg/db"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// ErrEventNotFound is returned when an event id does not exist.
var ErrEventNotFound = errors.New("outbox event not found")

// Event is a row of outbox_events waiting to be published.
type Event struct {
	ID            int64           `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   *int64          `json:"aggregate_id,omitempty"`
	RoutingKey    string          `json:"routing_key"`
	Payload       json.RawMessage `json:"payload"`
	TraceID       string          `json:"trace_id,omitempty"`
	Status        string          `json:"status"`
	RetryCount    int             `json:"retry_count"`
	LastError     *string         `json:"last_error,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, aggregate_type, aggregate_id, routing_key, payload, trace_id, status,
		       retry_count, last_error, next_retry_at, created_at, updated_at`

// InsertEvent writes event using the transaction bound to ctx, if any, so
// the event commits or rolls back together with the business row.
func (r *Repository) InsertEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, routing_key, payload, trace_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := db.Conn(ctx, r.db).QueryRow(ctx, query,
		event.AggregateType,
		event.AggregateID,
		event.RoutingKey,
		event.Payload,
		event.TraceID,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// GetPendingEvents returns pending events whose retry time has come, oldest first.
func (r *Repository) GetPendingEvents(ctx context.Context, limit int) ([]*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM outbox_events
		WHERE status = 'pending'
		AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.queryEvents(ctx, query, limit)
}

// GetFailedEvents returns events that exhausted their retries, newest first.
func (r *Repository) GetFailedEvents(ctx context.Context, limit int) ([]*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM outbox_events
		WHERE status = 'failed'
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryEvents(ctx, query, limit)
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID,
		&e.AggregateType,
		&e.AggregateID,
		&e.RoutingKey,
		&e.Payload,
		&e.TraceID,
		&e.Status,
		&e.RetryCount,
		&e.LastError,
		&e.NextRetryAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}

// MarkAsSent marks an event as published.
func (r *Repository) MarkAsSent(ctx context.Context, eventID int64) error {
	query := `
		UPDATE outbox_events
		SET status = 'sent', last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	return nil
}

// retryBackoffStep is the linear backoff unit: 5s, 10s, 15s...
const retryBackoffStep = 5 * time.Second

// NextAttempt decides the fate of an event after its attempts-th failed
// publish. Below maxRetries it stays pending and waits attempts*5s; at
// maxRetries it becomes failed and waits for a manual replay.
func NextAttempt(attempts, maxRetries int) (string, time.Duration) {
	if attempts >= maxRetries {
		return StatusFailed, 0
	}
	return StatusPending, time.Duration(attempts) * retryBackoffStep
}

// MarkAsFailed records a failed publish of event and returns the resulting
// status. event's RetryCount and Status are updated to match the row.
func (r *Repository) MarkAsFailed(ctx context.Context, event *Event, maxRetries int, cause error) (string, error) {
	attempts := event.RetryCount + 1
	status, delay := NextAttempt(attempts, maxRetries)

	query := `
		UPDATE outbox_events
		SET retry_count = $2,
		    status = $3,
		    next_retry_at = CASE WHEN $4::float8 > 0 THEN NOW() + make_interval(secs => $4::float8) ELSE NULL END,
		    last_error = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	tag, err := r.db.Exec(ctx, query, event.ID, attempts, status, delay.Seconds(), msg)
	if err != nil {
		return "", fmt.Errorf("failed to mark event as failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("%w: %d", ErrEventNotFound, event.ID)
	}

	event.RetryCount = attempts
	event.Status = status
	return status, nil
}

// GetEventByID loads one event.
func (r *Repository) GetEventByID(ctx context.Context, eventID int64) (*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM outbox_events
		WHERE id = $1
	`

	e, err := scanEvent(r.db.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return e, nil
}

// ReplayEvent resets an event to pending so the dispatcher sends it again.
func (r *Repository) ReplayEvent(ctx context.Context, eventID int64) error {
	query := `
		UPDATE outbox_events
		SET status = 'pending', retry_count = 0, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to replay event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	return nil
}

// ReplayFailedEvents resets up to limit failed events to pending.
func (r *Repository) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	query := `
		UPDATE outbox_events
		SET status = 'pending', retry_count = 0, next_retry_at = NULL, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events WHERE status = 'failed' ORDER BY created_at ASC LIMIT $1
		)
	`

	tag, err := r.db.Exec(ctx, query, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to replay failed events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
