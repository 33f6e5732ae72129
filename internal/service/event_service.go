package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// MinPublishLead is how far ahead an event must be scheduled to be published.
const MinPublishLead = 3

// EventInput carries the mutable fields of an event.
type EventInput struct {
	Title       string
	Description string
	EventDate   time.Time
	Location    string
	BasePrice   float64
}

// EventService manages organizer events.
type EventService struct {
	events repository.EventRepository
	now    func() time.Time
}

// NewEventService constructs the service. clock may be nil.
func NewEventService(events repository.EventRepository, clock func() time.Time) *EventService {
	if clock == nil {
		clock = time.Now
	}
	return &EventService{events: events, now: clock}
}

// Create stores a new draft owned by the caller.
func (s *EventService) Create(ctx context.Context, caller *auth.IdentityContext, input EventInput) (*domain.Event, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	event := &domain.Event{
		OrganizerID: caller.SubjectID,
		Status:      domain.EventStatusDraft,
	}
	applyInput(event, input)
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns an event. Non-published events are visible to their owner and admins only.
func (s *EventService) Get(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusPublished && !canManage(caller, event) {
		return nil, apperrors.NewNotFound("event", nil)
	}
	return event, nil
}

// List returns published events plus the caller's own.
func (s *EventService) List(ctx context.Context, caller *auth.IdentityContext) ([]domain.Event, error) {
	viewer := ""
	if caller != nil {
		viewer = caller.SubjectID
	}
	return s.events.ListVisible(ctx, viewer)
}

// ListByDate returns published events taking place on the given calendar day (UTC).
func (s *EventService) ListByDate(ctx context.Context, day time.Time) ([]domain.Event, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.events.ListBetween(ctx, from, from.AddDate(0, 0, 1))
}

// Upcoming returns published events that have not started yet.
func (s *EventService) Upcoming(ctx context.Context) ([]domain.Event, error) {
	return s.events.ListUpcoming(ctx, s.now())
}

// Update changes an unpublished event that has not taken place yet.
func (s *EventService) Update(ctx context.Context, caller *auth.IdentityContext, id string, input EventInput) (*domain.Event, error) {
	event, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusPublished {
		return nil, apperrors.NewConflict("published events cannot be updated", nil)
	}
	if !event.EventDate.After(s.now()) {
		return nil, apperrors.NewConflict("past events cannot be updated", nil)
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	applyInput(event, input)
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an unpublished event.
func (s *EventService) Delete(ctx context.Context, caller *auth.IdentityContext, id string) error {
	event, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return err
	}
	if event.Status == domain.EventStatusPublished {
		return apperrors.NewConflict("published events cannot be deleted", nil)
	}
	return s.events.Delete(ctx, event.ID)
}

// Publish moves a draft to PUBLISHED when it is at least MinPublishLead months away.
func (s *EventService) Publish(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error) {
	event, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusDraft {
		return nil, apperrors.NewConflict("only draft events can be published", map[string]any{"status": event.Status})
	}
	if event.EventDate.Before(s.now().AddDate(0, MinPublishLead, 0)) {
		return nil, apperrors.NewUnprocessable("event date must be at least 3 months ahead")
	}
	return s.transition(ctx, event, domain.EventStatusPublished)
}

// Cancel cancels any event that has not completed.
func (s *EventService) Cancel(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error) {
	event, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	switch event.Status {
	case domain.EventStatusCompleted:
		return nil, apperrors.NewConflict("completed events cannot be cancelled", nil)
	case domain.EventStatusCancelled:
		return event, nil
	}
	return s.transition(ctx, event, domain.EventStatusCancelled)
}

// Complete marks a published or sold out event as completed.
func (s *EventService) Complete(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error) {
	event, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventStatusPublished && event.Status != domain.EventStatusSoldOut {
		return nil, apperrors.NewConflict("only published or sold out events can be completed", map[string]any{"status": event.Status})
	}
	return s.transition(ctx, event, domain.EventStatusCompleted)
}

func (s *EventService) transition(ctx context.Context, event *domain.Event, status domain.EventStatus) (*domain.Event, error) {
	event.Status = status
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) load(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("event", nil)
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, err
	}
	return event, nil
}

// loadManaged hides events the caller may not manage behind a 404.
func (s *EventService) loadManaged(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(caller, event) {
		return nil, apperrors.NewNotFound("event", nil)
	}
	return event, nil
}

func (s *EventService) validateInput(input EventInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(input.Location) == "" {
		details["location"] = "required"
	}
	if input.BasePrice < 0 {
		details["base_price"] = "must not be negative"
	}
	if !input.EventDate.After(s.now()) {
		details["event_date"] = "must be in the future"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid event", details)
	}
	return nil
}

func canManage(caller *auth.IdentityContext, event *domain.Event) bool {
	if caller == nil {
		return false
	}
	return caller.SubjectID == event.OrganizerID || caller.HasAnyRole(domain.RoleAdmin)
}

func applyInput(event *domain.Event, input EventInput) {
	event.Title = strings.TrimSpace(input.Title)
	event.Description = strings.TrimSpace(input.Description)
	event.EventDate = input.EventDate.UTC()
	event.Location = strings.TrimSpace(input.Location)
	event.BasePrice = input.BasePrice
}
