package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

const dateLayout = "2006-01-02"

// EventsHandler manages event endpoints. Read routes accept anonymous callers.
type EventsHandler struct {
	service *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService) *EventsHandler {
	return &EventsHandler{service: eventService}
}

// Create POST /api/events.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	input, err := parseEventInput(c)
	if err != nil {
		return err
	}
	event, err := h.service.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": eventResponse(event)})
}

// List GET /api/events.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	caller, _ := auth.IdentityFromContext(c)
	events, err := h.service.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(events)})
}

// Upcoming GET /api/events/upcoming.
func (h *EventsHandler) Upcoming(c *fiber.Ctx) error {
	events, err := h.service.Upcoming(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(events)})
}

// ByDate GET /api/events/date/:date with date formatted as YYYY-MM-DD.
func (h *EventsHandler) ByDate(c *fiber.Ctx) error {
	day, err := time.Parse(dateLayout, c.Params("date"))
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": c.Params("date")})
	}
	events, err := h.service.ListByDate(c.UserContext(), day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(events)})
}

// Get GET /api/events/:id.
func (h *EventsHandler) Get(c *fiber.Ctx) error {
	caller, _ := auth.IdentityFromContext(c)
	event, err := h.service.Get(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// Update PUT /api/events/:id.
func (h *EventsHandler) Update(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	input, err := parseEventInput(c)
	if err != nil {
		return err
	}
	event, err := h.service.Update(c.UserContext(), caller, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// Delete DELETE /api/events/:id.
func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	if err := h.service.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Publish PATCH /api/events/:id/publish.
func (h *EventsHandler) Publish(c *fiber.Ctx) error {
	return h.transition(c, h.service.Publish)
}

// Cancel PATCH /api/events/:id/cancel.
func (h *EventsHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.service.Cancel)
}

// Complete PATCH /api/events/:id/complete.
func (h *EventsHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.service.Complete)
}

type transitionFunc func(ctx context.Context, caller *auth.IdentityContext, id string) (*domain.Event, error)

func (h *EventsHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	event, err := fn(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

func parseEventInput(c *fiber.Ctx) (service.EventInput, error) {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return service.EventInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return service.EventInput{}, dto.ValidationError(err)
	}
	return service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
		BasePrice:   req.BasePrice,
	}, nil
}

func eventResponse(event *domain.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          event.ID,
		OrganizerID: event.OrganizerID,
		Title:       event.Title,
		Description: event.Description,
		EventDate:   event.EventDate,
		Location:    event.Location,
		BasePrice:   event.BasePrice,
		Status:      string(event.Status),
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func eventResponses(events []domain.Event) []dto.EventResponse {
	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, eventResponse(&events[i]))
	}
	return items
}
