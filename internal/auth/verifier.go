package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
)

// IdentityLookup is the credential store contract the verifier consumes.
// A missing identity is reported as pgx.ErrNoRows.
type IdentityLookup interface {
	GetBySubject(ctx context.Context, subject string) (*domain.Identity, error)
}

// AttemptLimiter counts failed logins per subject within a sliding window.
type AttemptLimiter interface {
	Failures(ctx context.Context, subject string) (int64, error)
	RecordFailure(ctx context.Context, subject string) (int64, error)
	Reset(ctx context.Context, subject string) error
}

// CredentialVerifier validates submitted secrets against stored bcrypt hashes.
type CredentialVerifier struct {
	identities IdentityLookup
	limiter    AttemptLimiter
	threshold  int64
	timeout    time.Duration
	bcryptCost int
}

// VerifierConfig tunes a CredentialVerifier.
type VerifierConfig struct {
	// LockoutThreshold of zero disables lockout even when a limiter is set.
	LockoutThreshold int
	StoreTimeout     time.Duration
	BcryptCost       int
}

// NewCredentialVerifier constructs a verifier. limiter may be nil.
func NewCredentialVerifier(identities IdentityLookup, limiter AttemptLimiter, cfg VerifierConfig) *CredentialVerifier {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 500 * time.Millisecond
	}
	return &CredentialVerifier{
		identities: identities,
		limiter:    limiter,
		threshold:  int64(cfg.LockoutThreshold),
		timeout:    cfg.StoreTimeout,
		bcryptCost: cfg.BcryptCost,
	}
}

// Verify returns the identity when secret matches. Unknown subjects are reported as
// KindBadCredential with Reason KindNotFound; store failures and timeouts as
// KindStoreUnavailable. Each store call gets its own StoreTimeout; bcrypt work runs
// outside those deadlines.
func (v *CredentialVerifier) Verify(ctx context.Context, subject, secret string) (*domain.Identity, error) {
	if v.lockoutEnabled() {
		failures, err := v.failures(ctx, subject)
		if err != nil {
			return nil, NewError(KindStoreUnavailable, err)
		}
		if failures >= v.threshold {
			return nil, NewError(KindLocked, errors.New("too many failed attempts"))
		}
	}

	identity, err := v.lookup(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			compareDummy(secret, v.bcryptCost)
			if recErr := v.recordFailure(ctx, subject); recErr != nil {
				return nil, recErr
			}
			return nil, &Error{Kind: KindBadCredential, Reason: KindNotFound}
		}
		return nil, NewError(KindStoreUnavailable, err)
	}

	if err := ComparePassword(identity.PasswordHash, secret); err != nil {
		if recErr := v.recordFailure(ctx, subject); recErr != nil {
			return nil, recErr
		}
		return nil, NewError(KindBadCredential, nil)
	}

	// Checked after the password so a guesser cannot learn which accounts are disabled.
	if !identity.Active {
		return nil, NewError(KindLocked, errors.New("identity deactivated"))
	}

	if v.lockoutEnabled() {
		if err := v.reset(ctx, subject); err != nil {
			return nil, NewError(KindStoreUnavailable, err)
		}
	}
	return identity, nil
}

func (v *CredentialVerifier) lockoutEnabled() bool {
	return v.limiter != nil && v.threshold > 0
}

func (v *CredentialVerifier) recordFailure(ctx context.Context, subject string) error {
	if !v.lockoutEnabled() {
		return nil
	}
	storeCtx, cancel := v.storeContext(ctx)
	defer cancel()
	if _, err := v.limiter.RecordFailure(storeCtx, subject); err != nil {
		return NewError(KindStoreUnavailable, err)
	}
	return nil
}

func (v *CredentialVerifier) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, v.timeout)
}

func (v *CredentialVerifier) failures(ctx context.Context, subject string) (int64, error) {
	storeCtx, cancel := v.storeContext(ctx)
	defer cancel()
	return v.limiter.Failures(storeCtx, subject)
}

func (v *CredentialVerifier) lookup(ctx context.Context, subject string) (*domain.Identity, error) {
	storeCtx, cancel := v.storeContext(ctx)
	defer cancel()
	return v.identities.GetBySubject(storeCtx, subject)
}

func (v *CredentialVerifier) reset(ctx context.Context, subject string) error {
	storeCtx, cancel := v.storeContext(ctx)
	defer cancel()
	return v.limiter.Reset(storeCtx, subject)
}
