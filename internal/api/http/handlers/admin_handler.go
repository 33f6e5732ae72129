package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// AdminHandler manages identities. Routes are guarded for Admin.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// UpdateRoles handles PUT /admin/identities/:subject/roles.
func (h *AdminHandler) UpdateRoles(c *fiber.Ctx) error {
	actor, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	identity, err := h.auth.UpdateRoles(c.UserContext(), actor, c.Params("subject"), domain.RolesFromStrings(req.Roles))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": identityResponse(identity)})
}

// Deactivate handles POST /admin/identities/:subject/deactivate.
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	actor, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	if err := h.auth.Deactivate(c.UserContext(), actor, c.Params("subject")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
