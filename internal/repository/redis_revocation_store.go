package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/event-service/internal/domain"
)

const revokedKeyPrefix = "auth:revoked:"

// RedisRevocationStore keeps one key per revoked token id. Keys expire together with
// the token, so Redis prunes the records itself.
type RedisRevocationStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRevocationStore wraps a go-redis client.
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, now: time.Now}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, record domain.RevocationRecord) error {
	ttl := record.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// already past its natural expiry; token parsing rejects it anyway
		return nil
	}
	return s.client.SetNX(ctx, revokedKeyPrefix+record.TokenID, string(record.Reason), ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
