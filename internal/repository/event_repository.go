package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-service/internal/domain"
)

// EventRepository defines persistence access for listed events.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListVisible(ctx context.Context, viewerID string) ([]domain.Event, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]domain.Event, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed implementation.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `id, organizer_id, title, description, event_date, location, base_price, status, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (organizer_id, title, description, event_date, location, base_price, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.EventDate,
		event.Location,
		event.BasePrice,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET title=$1, description=$2, event_date=$3, location=$4, base_price=$5, status=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		event.Title,
		event.Description,
		event.EventDate,
		event.Location,
		event.BasePrice,
		event.Status,
		event.ID,
	).Scan(&event.UpdatedAt)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	var event domain.Event
	if err := scanEvent(r.pool.QueryRow(ctx, query, id), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) ListVisible(ctx context.Context, viewerID string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
        WHERE status=$1 OR ($2 <> '' AND organizer_id::text=$2)
        ORDER BY event_date`
	return r.list(ctx, query, domain.EventStatusPublished, viewerID)
}

func (r *eventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
        WHERE event_date >= $1 AND event_date < $2 AND status=$3
        ORDER BY event_date`
	return r.list(ctx, query, from, to, domain.EventStatusPublished)
}

func (r *eventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
        WHERE event_date > $1 AND status=$2
        ORDER BY event_date`
	return r.list(ctx, query, now, domain.EventStatusPublished)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row, event *domain.Event) error {
	return row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.EventDate,
		&event.Location,
		&event.BasePrice,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}
