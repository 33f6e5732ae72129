package auth

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// RevocationStore records tokens invalidated before their natural expiry.
// Implementations must be safe for concurrent use.
type RevocationStore interface {
	Revoke(ctx context.Context, record domain.RevocationRecord) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationStore keeps revocations in process memory.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	records map[string]domain.RevocationRecord
}

// NewMemoryRevocationStore constructs an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{records: make(map[string]domain.RevocationRecord)}
}

func (s *MemoryRevocationStore) Revoke(ctx context.Context, record domain.RevocationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.TokenID]; !exists {
		s.records[record.TokenID] = record
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[tokenID]
	return ok, nil
}

// PruneExpired drops records whose token has expired by now and returns how many.
func (s *MemoryRevocationStore) PruneExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for id, rec := range s.records {
		if !rec.ExpiresAt.After(now) {
			delete(s.records, id)
			pruned++
		}
	}
	return pruned, nil
}
