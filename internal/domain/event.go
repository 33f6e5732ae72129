package domain

import "time"

// EventStatus represents the lifecycle of a listed event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusSoldOut   EventStatus = "SOLD_OUT"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// Event is a scheduled happening owned by an organizer.
type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	EventDate   time.Time
	Location    string
	BasePrice   float64
	Status      EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
