package domain

import "time"

// TokenKind differentiates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// RevocationReason records why a token was invalidated early.
type RevocationReason string

const (
	RevocationLogout     RevocationReason = "logout"
	RevocationCompromise RevocationReason = "compromise"
)

// RevocationRecord marks a token id as no longer acceptable.
type RevocationRecord struct {
	TokenID   string
	SubjectID string
	Reason    RevocationReason
	RevokedAt time.Time
	// ExpiresAt is the token's natural expiry; the record may be pruned after it.
	ExpiresAt time.Time
}
