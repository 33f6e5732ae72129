package dto

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/event-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Subject  string   `json:"subject"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// Validate checks the payload. Role values are checked by the service.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Roles, validation.Length(0, 3), validation.By(knownRoles)),
	)
}

// LoginRequest payload.
type LoginRequest struct {
	Subject string `json:"subject"`
	Secret  string `json:"secret"`
}

// Validate only checks presence; credential details must not leak through validation.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Required),
		validation.Field(&r.Secret, validation.Required),
	)
}

// RefreshRequest payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks the payload.
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// LogoutRequest payload. The refresh token is optional when a bearer token is sent.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate checks the payload.
func (r PasswordChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

// RoleUpdateRequest payload.
type RoleUpdateRequest struct {
	Roles []string `json:"roles"`
}

// Validate checks the payload.
func (r RoleUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Roles, validation.Required, validation.By(knownRoles)),
	)
}

func knownRoles(value interface{}) error {
	roles, _ := value.([]string)
	for _, role := range roles {
		if !domain.Role(role).Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	return nil
}

// TokenResponse describes an issued token pair.
type TokenResponse struct {
	TokenType             string    `json:"token_type"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

// IdentityResponse describes a stored identity.
type IdentityResponse struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Roles     []string  `json:"roles"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is returned by login and register.
type SessionResponse struct {
	Identity IdentityResponse `json:"identity"`
	Tokens   TokenResponse    `json:"tokens"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Identity       IdentityResponse `json:"identity"`
	TokenRoles     []string         `json:"token_roles"`
	TokenID        string           `json:"token_id"`
	TokenExpiresAt time.Time        `json:"token_expires_at"`
}
