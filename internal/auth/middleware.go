package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/domain"
)

const authenticatedMarker = "auth_pass_done"

// Authenticator validates bearer tokens and attaches an IdentityContext to the request.
type Authenticator struct {
	tokens      *TokenManager
	revocations RevocationStore
	timeout     time.Duration
	audit       audit.Dispatcher
}

// NewAuthenticator constructs the request authenticator. dispatcher may be nil.
func NewAuthenticator(tokens *TokenManager, revocations RevocationStore, storeTimeout time.Duration, dispatcher audit.Dispatcher) *Authenticator {
	if storeTimeout <= 0 {
		storeTimeout = 500 * time.Millisecond
	}
	if dispatcher == nil {
		dispatcher = audit.Nop{}
	}
	return &Authenticator{tokens: tokens, revocations: revocations, timeout: storeTimeout, audit: dispatcher}
}

// Handle runs once per request. Requests without an Authorization header continue
// anonymously; a presented but invalid token short-circuits with 401.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	if c.Locals(authenticatedMarker) != nil {
		return c.Next()
	}
	c.Locals(authenticatedMarker, true)

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Next()
	}

	identity, err := a.Authenticate(c.UserContext(), header)
	if err != nil {
		_ = a.audit.Publish(c.UserContext(), audit.Record{
			Action:   audit.ActionAuthenticate,
			Outcome:  audit.OutcomeFailure,
			Reason:   string(ReasonOf(err)),
			RemoteIP: c.IP(),
			Path:     c.Path(),
		})
		return ToDomainError(err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// Authenticate validates an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*IdentityContext, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindAccess {
		return nil, NewError(KindMalformed, errors.New("not an access token"))
	}

	if err := CheckNotRevoked(ctx, a.revocations, a.timeout, claims.ID); err != nil {
		return nil, err
	}

	return &IdentityContext{
		SubjectID: claims.Subject,
		Roles:     append([]domain.Role(nil), claims.Roles...),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// CheckNotRevoked looks tokenID up with a bounded timeout. Lookup failures fail closed
// as KindStoreUnavailable.
func CheckNotRevoked(ctx context.Context, store RevocationStore, timeout time.Duration, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	revoked, err := store.IsRevoked(ctx, tokenID)
	if err != nil {
		return NewError(KindStoreUnavailable, err)
	}
	if revoked {
		return NewError(KindRevoked, nil)
	}
	return nil
}

func bearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", NewError(KindMalformed, errors.New("invalid authorization header"))
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", NewError(KindMalformed, errors.New("empty bearer token"))
	}
	return token, nil
}
