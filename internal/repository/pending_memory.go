package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"railbook/internal/domain"
)

// MemoryPendingStore keeps pending bookings in process memory. Entries are
// lost on restart, matching the session-scoped lifetime of a pending
// booking.
type MemoryPendingStore struct {
	mu    sync.Mutex
	items map[string]domain.PendingBooking
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{items: make(map[string]domain.PendingBooking)}
}

func (s *MemoryPendingStore) Save(_ context.Context, p *domain.PendingBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.Token] = *p
	return nil
}

func (s *MemoryPendingStore) Get(_ context.Context, token string) (*domain.PendingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[token]
	if !ok {
		return nil, ErrPendingNotFound
	}
	return &p, nil
}

// Take removes and returns the entry; only one caller can take a token.
func (s *MemoryPendingStore) Take(_ context.Context, token string) (*domain.PendingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[token]
	if !ok {
		return nil, ErrPendingNotFound
	}
	delete(s.items, token)
	return &p, nil
}

func (s *MemoryPendingStore) ListExpired(_ context.Context, now time.Time) ([]*domain.PendingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PendingBooking
	for _, p := range s.items {
		if p.Expired(now) {
			cp := p
			out = append(out, &cp)
		}
	}
	sortByExpiry(out)
	return out, nil
}

// List returns every entry, soonest expiry first.
func (s *MemoryPendingStore) List(_ context.Context) ([]*domain.PendingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.PendingBooking, 0, len(s.items))
	for _, p := range s.items {
		cp := p
		out = append(out, &cp)
	}
	sortByExpiry(out)
	return out, nil
}

func sortByExpiry(ps []*domain.PendingBooking) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ExpiresAt.Before(ps[j].ExpiresAt) })
}

func (s *MemoryPendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
