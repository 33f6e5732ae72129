package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-service/internal/domain"
)

// RevocationRepository persists revoked token ids in Postgres.
type RevocationRepository interface {
	Revoke(ctx context.Context, record domain.RevocationRecord) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

type revocationRepository struct {
	pool *pgxpool.Pool
}

// NewRevocationRepository constructs repository.
func NewRevocationRepository(pool *pgxpool.Pool) RevocationRepository {
	return &revocationRepository{pool: pool}
}

func (r *revocationRepository) Revoke(ctx context.Context, record domain.RevocationRecord) error {
	const query = `
        INSERT INTO revoked_tokens (token_id, subject_id, reason, revoked_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (token_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query,
		record.TokenID,
		record.SubjectID,
		record.Reason,
		record.RevokedAt,
		record.ExpiresAt,
	)
	return err
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, tokenID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *revocationRepository) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at <= $1`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
