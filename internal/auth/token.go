package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/event-service/internal/domain"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// TokenManager handles issuing and validating JWT tokens. The signing key is copied at
// construction and never changes afterwards.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        Clock
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(clock Clock) TokenOption {
	return func(tm *TokenManager) {
		tm.now = clock
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(tm *TokenManager) {
		tm.issuer = issuer
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	tm := &TokenManager{
		secret:     append([]byte(nil), secret...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	Roles []domain.Role    `json:"roles"`
	Kind  domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token plus the metadata callers need without re-parsing it.
type IssuedToken struct {
	Value     string
	ID        string
	Kind      domain.TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue signs a token for subject whose expiry is issuance time plus ttl.
func (tm *TokenManager) Issue(subject string, roles []domain.Role, kind domain.TokenKind, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("subject required")
	}
	if ttl <= 0 {
		return IssuedToken{}, errors.New("ttl must be positive")
	}

	// JWT NumericDate has second precision; truncate so ExpiresAt matches the claim.
	issuedAt := tm.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	tokenID := uuid.NewString()

	claims := &Claims{
		Roles: append([]domain.Role(nil), roles...),
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    tm.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Value:     tokenString,
		ID:        tokenID,
		Kind:      kind,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueAccess issues an access token with the configured access TTL.
func (tm *TokenManager) IssueAccess(subject string, roles []domain.Role) (IssuedToken, error) {
	return tm.Issue(subject, roles, domain.TokenKindAccess, tm.accessTTL)
}

// IssueRefresh issues a refresh token with the configured refresh TTL.
func (tm *TokenManager) IssueRefresh(subject string, roles []domain.Role) (IssuedToken, error) {
	return tm.Issue(subject, roles, domain.TokenKindRefresh, tm.refreshTTL)
}

// Parse validates the signature and expiry and returns the claims. Failures are
// *Error values of kind KindMalformed, KindSignatureInvalid or KindExpired.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, NewError(KindMalformed, errors.New("empty token"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, NewError(KindMalformed, errors.New("invalid token claims"))
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, NewError(KindMalformed, errors.New("missing sub or jti"))
	}
	if tm.issuer != "" && claims.Issuer != tm.issuer {
		return nil, NewError(KindMalformed, errors.New("unexpected issuer"))
	}
	return claims, nil
}

// jwt/v5 verifies the signature before validating claims, so an expired token with a
// bad signature is reported as a signature failure.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return NewError(KindSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return NewError(KindExpired, err)
	default:
		return NewError(KindMalformed, err)
	}
}

// ExpiresAtTime returns the expiry of the claims, or the zero time when unset.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
