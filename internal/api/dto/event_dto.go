package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EventRequest is the create and update payload.
type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	BasePrice   float64   `json:"base_price"`
}

// Validate checks field shapes; scheduling rules are enforced by the service.
func (r EventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
		validation.Field(&r.EventDate, validation.Required),
		validation.Field(&r.Location, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.BasePrice, validation.Min(0.0)),
	)
}

// EventResponse describes an event.
type EventResponse struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	BasePrice   float64   `json:"base_price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
