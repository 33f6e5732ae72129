package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-service/internal/domain"
)

// ErrSubjectTaken is returned when an identity with the same subject exists.
var ErrSubjectTaken = errors.New("subject already registered")

const uniqueViolation = "23505"

// IdentityRepository defines persistence access for identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetBySubject(ctx context.Context, subject string) (*domain.Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRoles(ctx context.Context, id string, roles []domain.Role) error
	SetActive(ctx context.Context, id string, active bool) error
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

const identityColumns = `id, subject, roles, password_hash, active, created_at, updated_at`

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO identities (subject, roles, password_hash, active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		identity.Subject,
		identity.RoleStrings(),
		identity.PasswordHash,
		identity.Active,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrSubjectTaken
	}
	return err
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id=$1`
	return scanIdentity(r.pool.QueryRow(ctx, query, id))
}

func (r *identityRepository) GetBySubject(ctx context.Context, subject string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE subject=$1`
	return scanIdentity(r.pool.QueryRow(ctx, query, subject))
}

func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, passwordHash, id)
}

func (r *identityRepository) UpdateRoles(ctx context.Context, id string, roles []domain.Role) error {
	const query = `UPDATE identities SET roles=$1, updated_at=NOW() WHERE id=$2`
	identity := domain.Identity{Roles: roles}
	return r.exec(ctx, query, identity.RoleStrings(), id)
}

func (r *identityRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE identities SET active=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, active, id)
}

func (r *identityRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity domain.Identity
		roles    []string
	)
	if err := row.Scan(
		&identity.ID,
		&identity.Subject,
		&roles,
		&identity.PasswordHash,
		&identity.Active,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	identity.Roles = domain.RolesFromStrings(roles)
	return &identity, nil
}
