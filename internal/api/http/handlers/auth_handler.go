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

// AuthHandler exposes login, refresh and logout endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	session, err := h.auth.Register(c.UserContext(), req.Subject, req.Password, domain.RolesFromStrings(req.Roles), requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	session, err := h.auth.Login(c.UserContext(), req.Subject, req.Secret, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	access, err := h.auth.Refresh(c.UserContext(), req.RefreshToken, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		TokenType:            "Bearer",
		AccessToken:          access.Value,
		AccessTokenExpiresAt: access.ExpiresAt,
	}})
}

// Logout handles POST /auth/logout. The body is optional when a bearer token is sent.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	caller, _ := auth.IdentityFromContext(c)

	if err := h.auth.Logout(c.UserContext(), req.RefreshToken, caller, requestMeta(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	identity, err := h.auth.Me(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		Identity:       identityResponse(identity),
		TokenRoles:     roleStrings(caller.Roles),
		TokenID:        caller.TokenID,
		TokenExpiresAt: caller.ExpiresAt,
	}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.NewError(auth.KindUnauthenticated, nil)
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	if err := h.auth.ChangePassword(c.UserContext(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_updated"}})
}

func requestMeta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{RemoteIP: c.IP(), Path: c.Path()}
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Identity: identityResponse(session.Identity),
		Tokens: dto.TokenResponse{
			TokenType:             "Bearer",
			AccessToken:           session.Access.Value,
			AccessTokenExpiresAt:  session.Access.ExpiresAt,
			RefreshToken:          session.Refresh.Value,
			RefreshTokenExpiresAt: session.Refresh.ExpiresAt,
		},
	}
}

func identityResponse(identity *domain.Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID:        identity.ID,
		Subject:   identity.Subject,
		Roles:     identity.RoleStrings(),
		Active:    identity.Active,
		CreatedAt: identity.CreatedAt,
	}
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
