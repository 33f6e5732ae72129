package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication or authorization failure.
type Kind string

const (
	KindMalformed        Kind = "MALFORMED"
	KindSignatureInvalid Kind = "SIGNATURE_INVALID"
	KindExpired          Kind = "EXPIRED"
	KindRevoked          Kind = "REVOKED"
	KindNotFound         Kind = "NOT_FOUND"
	KindBadCredential    Kind = "BAD_CREDENTIAL"
	KindLocked           Kind = "LOCKED"
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindInsufficientRole Kind = "INSUFFICIENT_ROLE"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
)

// Sentinels for errors.Is checks; every *Error matches the sentinel of its Kind.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrRevoked          = errors.New("token revoked")
	ErrNotFound         = errors.New("identity not found")
	ErrBadCredential    = errors.New("bad credential")
	ErrLocked           = errors.New("identity locked")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrStoreUnavailable = errors.New("verifier unavailable")
)

var sentinels = map[Kind]error{
	KindMalformed:        ErrMalformed,
	KindSignatureInvalid: ErrSignatureInvalid,
	KindExpired:          ErrExpired,
	KindRevoked:          ErrRevoked,
	KindNotFound:         ErrNotFound,
	KindBadCredential:    ErrBadCredential,
	KindLocked:           ErrLocked,
	KindUnauthenticated:  ErrUnauthenticated,
	KindInsufficientRole: ErrInsufficientRole,
	KindStoreUnavailable: ErrStoreUnavailable,
}

// Error carries the caller-facing Kind plus the finer Reason kept for audit logs.
// Reason differs from Kind only when the fine-grained cause must not leak, e.g. an
// unknown subject is reported as KindBadCredential with Reason KindNotFound.
type Error struct {
	Kind   Kind
	Reason Kind
	Err    error
}

// NewError builds an *Error whose Reason equals its Kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Reason: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", sentinels[e.Kind], e.Err)
	}
	return sentinels[e.Kind].Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the caller-facing kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf extracts the caller-facing kind, or "" when err is not an auth error.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// ReasonOf extracts the audit reason, falling back to the kind.
func ReasonOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		if authErr.Reason != "" {
			return authErr.Reason
		}
		return authErr.Kind
	}
	return ""
}
