package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/domain"
)

const identityKey = "auth_identity"

// IdentityContext is the per-request result of a successful authentication. It lives
// only in the request's fiber locals.
type IdentityContext struct {
	SubjectID string
	Roles     []domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i *IdentityContext) HasAnyRole(roles ...domain.Role) bool {
	if i == nil {
		return false
	}
	for _, have := range i.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*IdentityContext, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*IdentityContext)
	return identity, ok && identity != nil
}
