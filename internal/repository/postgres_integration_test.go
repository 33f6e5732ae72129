package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
)

// newTestPool connects to POSTGRES_TEST_DSN; the database must already have the
// migrations applied. Tests skip when it is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIdentityRepositoryPostgres(t *testing.T) {
	pool := newTestPool(t)
	repo := NewIdentityRepository(pool)
	ctx := context.Background()

	identity := &domain.Identity{
		Subject:      "it-" + uuid.NewString() + "@example.com",
		Roles:        []domain.Role{domain.RoleAttendee},
		PasswordHash: "hash",
		Active:       true,
	}
	require.NoError(t, repo.Create(ctx, identity))
	assert.NotEmpty(t, identity.ID)

	dup := *identity
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrSubjectTaken)

	require.NoError(t, repo.UpdateRoles(ctx, identity.ID, []domain.Role{domain.RoleOrganizer, domain.RoleAttendee}))
	require.NoError(t, repo.SetActive(ctx, identity.ID, false))

	got, err := repo.GetBySubject(ctx, identity.Subject)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleOrganizer, domain.RoleAttendee}, got.Roles)
	assert.False(t, got.Active)

	_, err = repo.GetBySubject(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestRevocationRepositoryPostgres(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRevocationRepository(pool)
	ctx := context.Background()
	now := time.Now()

	live := domain.RevocationRecord{TokenID: uuid.NewString(), RevokedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := domain.RevocationRecord{TokenID: uuid.NewString(), RevokedAt: now, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Revoke(ctx, live))
	require.NoError(t, repo.Revoke(ctx, live), "revoking twice is a no-op")
	require.NoError(t, repo.Revoke(ctx, stale))

	pruned, err := repo.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pruned, int64(1))

	revoked, err := repo.IsRevoked(ctx, live.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsRevoked(ctx, stale.TokenID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestEventRepositoryPostgres(t *testing.T) {
	pool := newTestPool(t)
	identities := NewIdentityRepository(pool)
	repo := NewEventRepository(pool)
	ctx := context.Background()

	owner := &domain.Identity{
		Subject:      "org-" + uuid.NewString() + "@example.com",
		Roles:        []domain.Role{domain.RoleOrganizer},
		PasswordHash: "hash",
		Active:       true,
	}
	require.NoError(t, identities.Create(ctx, owner))

	eventDate := time.Now().Add(200 * 24 * time.Hour).UTC().Truncate(time.Second)
	event := &domain.Event{
		OrganizerID: owner.ID,
		Title:       "Integration gig",
		EventDate:   eventDate,
		Location:    "Porto",
		BasePrice:   12.5,
		Status:      domain.EventStatusDraft,
	}
	require.NoError(t, repo.Create(ctx, event))
	assert.NotEmpty(t, event.ID)

	visible, err := repo.ListVisible(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, containsEvent(visible, event.ID))

	anonymous, err := repo.ListVisible(ctx, "")
	require.NoError(t, err)
	assert.False(t, containsEvent(anonymous, event.ID))

	event.Status = domain.EventStatusPublished
	require.NoError(t, repo.Update(ctx, event))

	upcoming, err := repo.ListUpcoming(ctx, time.Now())
	require.NoError(t, err)
	assert.True(t, containsEvent(upcoming, event.ID))

	day := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)
	onDay, err := repo.ListBetween(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, containsEvent(onDay, event.ID))

	require.NoError(t, repo.Delete(ctx, event.ID))
	_, err = repo.GetByID(ctx, event.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, event.ID), pgx.ErrNoRows)
}

func containsEvent(events []domain.Event, id string) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}
