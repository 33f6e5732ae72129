package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeIdentities struct {
	mu   sync.Mutex
	byID map[string]*domain.Identity
	err  error
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byID: map[string]*domain.Identity{}}
}

func (f *fakeIdentities) Create(_ context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Subject == identity.Subject {
			return repository.ErrSubjectTaken
		}
	}
	identity.ID = uuid.NewString()
	clone := *identity
	f.byID[identity.ID] = &clone
	return nil
}

func (f *fakeIdentities) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	identity, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *identity
	return &clone, nil
}

func (f *fakeIdentities) GetBySubject(_ context.Context, subject string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, identity := range f.byID {
		if identity.Subject == subject {
			clone := *identity
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentities) UpdatePassword(_ context.Context, id, hash string) error {
	return f.mutate(id, func(i *domain.Identity) { i.PasswordHash = hash })
}

func (f *fakeIdentities) UpdateRoles(_ context.Context, id string, roles []domain.Role) error {
	return f.mutate(id, func(i *domain.Identity) { i.Roles = append([]domain.Role(nil), roles...) })
}

func (f *fakeIdentities) SetActive(_ context.Context, id string, active bool) error {
	return f.mutate(id, func(i *domain.Identity) { i.Active = active })
}

func (f *fakeIdentities) mutate(id string, fn func(*domain.Identity)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	identity, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(identity)
	return nil
}

type fakeEvents struct {
	mu   sync.Mutex
	byID map[string]domain.Event
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{byID: map[string]domain.Event{}}
}

func (f *fakeEvents) Create(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = uuid.NewString()
	f.byID[event.ID] = *event
	return nil
}

func (f *fakeEvents) Update(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[event.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[event.ID] = *event
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &event, nil
}

func (f *fakeEvents) ListVisible(_ context.Context, viewerID string) ([]domain.Event, error) {
	return f.filter(func(e domain.Event) bool {
		return e.Status == domain.EventStatusPublished || (viewerID != "" && e.OrganizerID == viewerID)
	}), nil
}

func (f *fakeEvents) ListBetween(_ context.Context, from, to time.Time) ([]domain.Event, error) {
	return f.filter(func(e domain.Event) bool {
		return e.Status == domain.EventStatusPublished && !e.EventDate.Before(from) && e.EventDate.Before(to)
	}), nil
}

func (f *fakeEvents) ListUpcoming(_ context.Context, now time.Time) ([]domain.Event, error) {
	return f.filter(func(e domain.Event) bool {
		return e.Status == domain.EventStatusPublished && e.EventDate.After(now)
	}), nil
}

func (f *fakeEvents) filter(keep func(domain.Event) bool) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.byID {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out
}
