package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/config"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// Session is the result of a successful login.
type Session struct {
	Identity *domain.Identity
	Access   auth.IssuedToken
	Refresh  auth.IssuedToken
}

// RequestMeta describes the caller for audit records.
type RequestMeta struct {
	RemoteIP string
	Path     string
}

// AuthService coordinates registration, login, refresh and logout flows.
type AuthService struct {
	identities   repository.IdentityRepository
	revocations  auth.RevocationStore
	verifier     *auth.CredentialVerifier
	tokenMgr     *auth.TokenManager
	audit        audit.Dispatcher
	bcryptCost   int
	storeTimeout time.Duration
	now          func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Identities  repository.IdentityRepository
	Revocations auth.RevocationStore
	// Attempts may be nil to disable lockout.
	Attempts auth.AttemptLimiter
	Tokens   *auth.TokenManager
	Audit    audit.Dispatcher
	Clock    func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	dispatcher := deps.Audit
	if dispatcher == nil {
		dispatcher = audit.Nop{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{
		identities:  deps.Identities,
		revocations: deps.Revocations,
		verifier: auth.NewCredentialVerifier(deps.Identities, deps.Attempts, auth.VerifierConfig{
			LockoutThreshold: cfg.LockoutThreshold,
			StoreTimeout:     cfg.StoreTimeout(),
			BcryptCost:       cfg.BcryptCost,
		}),
		tokenMgr:     deps.Tokens,
		audit:        dispatcher,
		bcryptCost:   cfg.BcryptCost,
		storeTimeout: cfg.StoreTimeout(),
		now:          clock,
	}
}

// NormalizeSubject canonicalizes subject identifiers (emails) before lookup.
func NormalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// Register creates a new identity with the given roles and logs it in. Admin cannot be
// self-assigned.
func (s *AuthService) Register(ctx context.Context, subject, password string, roles []domain.Role, meta RequestMeta) (*Session, error) {
	subject = NormalizeSubject(subject)
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleAttendee}
	}
	for _, role := range roles {
		if !role.Valid() || role == domain.RoleAdmin {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
		}
	}

	identity, err := s.createIdentity(ctx, subject, password, roles)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(identity)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, audit.Record{
		Action:    audit.ActionRegister,
		Outcome:   audit.OutcomeSuccess,
		Subject:   subject,
		SubjectID: identity.ID,
		TokenID:   session.Access.ID,
		RemoteIP:  meta.RemoteIP,
		Path:      meta.Path,
	})
	return session, nil
}

// EnsureAdmin creates the bootstrap administrator if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, subject, password string) (*domain.Identity, error) {
	subject = NormalizeSubject(subject)
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	existing, err := s.identities.GetBySubject(lookupCtx, subject)
	cancel()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return s.createIdentity(ctx, subject, password, []domain.Role{domain.RoleAdmin})
}

func (s *AuthService) createIdentity(ctx context.Context, subject, password string, roles []domain.Role) (*domain.Identity, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	identity := &domain.Identity{
		Subject:      subject,
		Roles:        roles,
		PasswordHash: hash,
		Active:       true,
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.identities.Create(storeCtx, identity); err != nil {
		if errors.Is(err, repository.ErrSubjectTaken) {
			return nil, apperrors.NewConflict("subject already registered", nil)
		}
		return nil, auth.NewError(auth.KindStoreUnavailable, err)
	}
	return identity, nil
}

// Login verifies credentials and mints an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, subject, secret string, meta RequestMeta) (*Session, error) {
	subject = NormalizeSubject(subject)
	record := audit.Record{Action: audit.ActionLogin, Subject: subject, RemoteIP: meta.RemoteIP, Path: meta.Path}

	identity, err := s.verifier.Verify(ctx, subject, secret)
	if err != nil {
		s.publishFailure(ctx, record, err)
		return nil, err
	}

	session, err := s.issueSession(identity)
	if err != nil {
		return nil, err
	}

	record.Outcome = audit.OutcomeSuccess
	record.SubjectID = identity.ID
	record.TokenID = session.Access.ID
	s.publish(ctx, record)
	return session, nil
}

// Refresh re-issues an access token for a valid, unrevoked refresh token. The new
// token carries the identity's current roles.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (auth.IssuedToken, error) {
	record := audit.Record{Action: audit.ActionRefresh, RemoteIP: meta.RemoteIP, Path: meta.Path}

	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		s.publishFailure(ctx, record, err)
		return auth.IssuedToken{}, err
	}
	record.SubjectID = claims.Subject
	record.TokenID = claims.ID

	if err := auth.CheckNotRevoked(ctx, s.revocations, s.storeTimeout, claims.ID); err != nil {
		s.publishFailure(ctx, record, err)
		return auth.IssuedToken{}, err
	}

	identity, err := s.lookupByID(ctx, claims.Subject)
	if err != nil {
		s.publishFailure(ctx, record, err)
		return auth.IssuedToken{}, err
	}
	if !identity.Active {
		err := auth.NewError(auth.KindLocked, errors.New("identity deactivated"))
		s.publishFailure(ctx, record, err)
		return auth.IssuedToken{}, err
	}

	access, err := s.tokenMgr.IssueAccess(identity.ID, identity.Roles)
	if err != nil {
		return auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	record.Outcome = audit.OutcomeSuccess
	record.Details = map[string]any{"access_token_id": access.ID}
	s.publish(ctx, record)
	return access, nil
}

// Logout revokes the refresh token and, when present, the caller's access token.
// An already expired refresh token needs no record and is accepted silently.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, caller *auth.IdentityContext, meta RequestMeta) error {
	if refreshToken == "" && caller == nil {
		return apperrors.NewValidationError("refresh_token required", nil)
	}
	record := audit.Record{Action: audit.ActionLogout, RemoteIP: meta.RemoteIP, Path: meta.Path}
	revokedAt := s.now()
	revocations := make([]domain.RevocationRecord, 0, 2)

	if refreshToken != "" {
		claims, err := s.parseRefresh(refreshToken)
		switch {
		case err == nil:
			record.SubjectID = claims.Subject
			record.TokenID = claims.ID
			revocations = append(revocations, domain.RevocationRecord{
				TokenID:   claims.ID,
				SubjectID: claims.Subject,
				Reason:    domain.RevocationLogout,
				RevokedAt: revokedAt,
				ExpiresAt: claims.ExpiresAtTime(),
			})
		case errors.Is(err, auth.ErrExpired):
		default:
			s.publishFailure(ctx, record, err)
			return err
		}
	}

	if caller != nil {
		if record.SubjectID == "" {
			record.SubjectID = caller.SubjectID
		}
		revocations = append(revocations, domain.RevocationRecord{
			TokenID:   caller.TokenID,
			SubjectID: caller.SubjectID,
			Reason:    domain.RevocationLogout,
			RevokedAt: revokedAt,
			ExpiresAt: caller.ExpiresAt,
		})
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	for _, rec := range revocations {
		if err := s.revocations.Revoke(storeCtx, rec); err != nil {
			err = auth.NewError(auth.KindStoreUnavailable, err)
			s.publishFailure(ctx, record, err)
			return err
		}
	}

	record.Outcome = audit.OutcomeSuccess
	record.Details = map[string]any{"revoked": len(revocations)}
	s.publish(ctx, record)
	return nil
}

// Me returns the stored identity behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, caller *auth.IdentityContext) (*domain.Identity, error) {
	return s.lookupByID(ctx, caller.SubjectID)
}

// ChangePassword verifies the current password before storing the new hash. Tokens
// already issued stay valid until they expire or are revoked.
func (s *AuthService) ChangePassword(ctx context.Context, caller *auth.IdentityContext, currentPassword, newPassword string) error {
	record := audit.Record{Action: audit.ActionPasswordChange, SubjectID: caller.SubjectID, TokenID: caller.TokenID}

	identity, err := s.lookupByID(ctx, caller.SubjectID)
	if err != nil {
		s.publishFailure(ctx, record, err)
		return err
	}
	if err := auth.ComparePassword(identity.PasswordHash, currentPassword); err != nil {
		err := auth.NewError(auth.KindBadCredential, nil)
		s.publishFailure(ctx, record, err)
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.identities.UpdatePassword(storeCtx, identity.ID, hash); err != nil {
		return auth.NewError(auth.KindStoreUnavailable, err)
	}

	record.Outcome = audit.OutcomeSuccess
	s.publish(ctx, record)
	return nil
}

// UpdateRoles replaces the role set of subject. Existing tokens keep their snapshot.
func (s *AuthService) UpdateRoles(ctx context.Context, actor *auth.IdentityContext, subject string, roles []domain.Role) (*domain.Identity, error) {
	for _, role := range roles {
		if !role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
		}
	}

	identity, err := s.lookupBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.identities.UpdateRoles(storeCtx, identity.ID, roles); err != nil {
		return nil, auth.NewError(auth.KindStoreUnavailable, err)
	}
	identity.Roles = roles

	s.publish(ctx, audit.Record{
		Action:    audit.ActionRoleChange,
		Outcome:   audit.OutcomeSuccess,
		Subject:   identity.Subject,
		SubjectID: identity.ID,
		Details:   map[string]any{"actor": actor.SubjectID, "roles": roles},
	})
	return identity, nil
}

// Deactivate disables an identity. Refresh is refused from then on; access tokens
// already issued run until expiry.
func (s *AuthService) Deactivate(ctx context.Context, actor *auth.IdentityContext, subject string) error {
	identity, err := s.lookupBySubject(ctx, subject)
	if err != nil {
		return err
	}
	if identity.ID == actor.SubjectID {
		return apperrors.NewConflict("cannot deactivate yourself", nil)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.identities.SetActive(storeCtx, identity.ID, false); err != nil {
		return auth.NewError(auth.KindStoreUnavailable, err)
	}

	s.publish(ctx, audit.Record{
		Action:    audit.ActionDeactivate,
		Outcome:   audit.OutcomeSuccess,
		Subject:   identity.Subject,
		SubjectID: identity.ID,
		Details:   map[string]any{"actor": actor.SubjectID},
	})
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueSession(identity *domain.Identity) (*Session, error) {
	access, err := s.tokenMgr.IssueAccess(identity.ID, identity.Roles)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, err := s.tokenMgr.IssueRefresh(identity.ID, identity.Roles)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Identity: identity, Access: access, Refresh: refresh}, nil
}

func (s *AuthService) parseRefresh(token string) (*auth.Claims, error) {
	claims, err := s.tokenMgr.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindRefresh {
		return nil, auth.NewError(auth.KindMalformed, errors.New("not a refresh token"))
	}
	return claims, nil
}

func (s *AuthService) lookupByID(ctx context.Context, id string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &auth.Error{Kind: auth.KindBadCredential, Reason: auth.KindNotFound}
		}
		return nil, auth.NewError(auth.KindStoreUnavailable, err)
	}
	return identity, nil
}

func (s *AuthService) lookupBySubject(ctx context.Context, subject string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	identity, err := s.identities.GetBySubject(ctx, NormalizeSubject(subject))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("identity", nil)
		}
		return nil, auth.NewError(auth.KindStoreUnavailable, err)
	}
	return identity, nil
}

func (s *AuthService) publishFailure(ctx context.Context, record audit.Record, err error) {
	record.Outcome = audit.OutcomeFailure
	record.Reason = string(auth.ReasonOf(err))
	s.publish(ctx, record)
}

func (s *AuthService) publish(ctx context.Context, record audit.Record) {
	// audit delivery problems must not change the auth outcome
	_ = s.audit.Publish(ctx, record)
}
