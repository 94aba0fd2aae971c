package approval

import (
	"context"
	"sync"
	"time"

	"bloodbank/internal/domain"
)

// In-memory stores keep the initial implementation lightweight and testable.
// They intentionally favor clarity over performance.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]domain.BloodRequest
	order    []string
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[string]domain.BloodRequest)}
}

func (s *InMemoryRequestStore) Create(_ context.Context, req domain.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; !exists {
		s.order = append(s.order, req.ID)
	}
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryRequestStore) Get(_ context.Context, id string) (domain.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if req, ok := s.requests[id]; ok {
		return req, nil
	}
	return domain.BloodRequest{}, ErrNotFound
}

func (s *InMemoryRequestStore) SetStatus(_ context.Context, id string, status domain.Status, finalizedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	if status.IsTerminal() {
		req.FinalizedAt = &finalizedAt
	}
	s.requests[id] = req
	return nil
}

func (s *InMemoryRequestStore) List(_ context.Context, status domain.Status) ([]domain.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BloodRequest, 0, len(s.order))
	for _, id := range s.order {
		req := s.requests[id]
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

type InMemoryDonationStore struct {
	mu        sync.RWMutex
	donations map[string]domain.BloodDonation
	order     []string
}

func NewInMemoryDonationStore() *InMemoryDonationStore {
	return &InMemoryDonationStore{donations: make(map[string]domain.BloodDonation)}
}

func (s *InMemoryDonationStore) Create(_ context.Context, don domain.BloodDonation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[don.ID]; !exists {
		s.order = append(s.order, don.ID)
	}
	s.donations[don.ID] = don
	return nil
}

func (s *InMemoryDonationStore) Get(_ context.Context, id string) (domain.BloodDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if don, ok := s.donations[id]; ok {
		return don, nil
	}
	return domain.BloodDonation{}, ErrNotFound
}

func (s *InMemoryDonationStore) SetStatus(_ context.Context, id string, status domain.Status, finalizedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	don, ok := s.donations[id]
	if !ok {
		return ErrNotFound
	}
	don.Status = status
	if status.IsTerminal() {
		don.FinalizedAt = &finalizedAt
	}
	s.donations[id] = don
	return nil
}

func (s *InMemoryDonationStore) List(_ context.Context, status domain.Status) ([]domain.BloodDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BloodDonation, 0, len(s.order))
	for _, id := range s.order {
		don := s.donations[id]
		if status != "" && don.Status != status {
			continue
		}
		out = append(out, don)
	}
	return out, nil
}
