package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginFailuresPrefix = "auth:login_failures:"

// LoginAttemptStore counts failed logins per subject in Redis. The window starts at
// the first failure and is not extended by later ones.
type LoginAttemptStore struct {
	client redis.UniversalClient
	window time.Duration
}

// NewLoginAttemptStore constructs the store.
func NewLoginAttemptStore(client redis.UniversalClient, window time.Duration) *LoginAttemptStore {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginAttemptStore{client: client, window: window}
}

func (s *LoginAttemptStore) Failures(ctx context.Context, subject string) (int64, error) {
	n, err := s.client.Get(ctx, s.key(subject)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *LoginAttemptStore) RecordFailure(ctx context.Context, subject string) (int64, error) {
	key := s.key(subject)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, s.window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *LoginAttemptStore) Reset(ctx context.Context, subject string) error {
	return s.client.Del(ctx, s.key(subject)).Err()
}

func (s *LoginAttemptStore) key(subject string) string {
	return loginFailuresPrefix + strings.ToLower(strings.TrimSpace(subject))
}
