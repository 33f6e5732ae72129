package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/domain"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// Authorize allows the request iff required is empty (public) or the identity holds at
// least one required role. Denials are KindUnauthenticated or KindInsufficientRole.
func Authorize(identity *IdentityContext, required ...domain.Role) error {
	if len(required) == 0 {
		return nil
	}
	if identity == nil {
		return NewError(KindUnauthenticated, nil)
	}
	if !identity.HasAnyRole(required...) {
		return NewError(KindInsufficientRole, nil)
	}
	return nil
}

// Guard builds role-checking middlewares that run after the Authenticator.
type Guard struct {
	audit audit.Dispatcher
}

// NewGuard constructs a guard. dispatcher may be nil.
func NewGuard(dispatcher audit.Dispatcher) *Guard {
	if dispatcher == nil {
		dispatcher = audit.Nop{}
	}
	return &Guard{audit: dispatcher}
}

// RequireAuthenticated rejects anonymous requests.
func (g *Guard) RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return g.deny(c, NewError(KindUnauthenticated, nil), false)
		}
		return c.Next()
	}
}

// Require allows callers holding any of roles; others get 401 or 403.
func (g *Guard) Require(roles ...domain.Role) fiber.Handler {
	return g.require(false, roles)
}

// RequireConcealed is Require, but an insufficient role is reported as 404 so the
// route's existence is not revealed.
func (g *Guard) RequireConcealed(roles ...domain.Role) fiber.Handler {
	return g.require(true, roles)
}

func (g *Guard) require(conceal bool, roles []domain.Role) fiber.Handler {
	required := append([]domain.Role(nil), roles...)
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if len(required) > 0 && identity == nil {
			return g.deny(c, NewError(KindUnauthenticated, nil), conceal)
		}
		if err := Authorize(identity, required...); err != nil {
			return g.deny(c, err, conceal)
		}
		return c.Next()
	}
}

func (g *Guard) deny(c *fiber.Ctx, err error, conceal bool) error {
	record := audit.Record{
		Action:   audit.ActionAuthorize,
		Outcome:  audit.OutcomeFailure,
		Reason:   string(ReasonOf(err)),
		RemoteIP: c.IP(),
		Path:     c.Path(),
	}
	if identity, ok := IdentityFromContext(c); ok {
		record.SubjectID = identity.SubjectID
		record.TokenID = identity.TokenID
	}
	_ = g.audit.Publish(c.UserContext(), record)

	if conceal && KindOf(err) == KindInsufficientRole {
		return apperrors.NewNotFound("resource", nil)
	}
	return ToDomainError(err)
}
