package store

import (
	"context"
	"sync"

	"nameplate/internal/username/models"
	"nameplate/pkg/platform/sentinel"
)

// InMemory keeps username records in a name-keyed map. Records are copied on
// the way in and out so callers never alias store state.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.UsernameRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*models.UsernameRecord)}
}

func (s *InMemory) Create(ctx context.Context, rec *models.UsernameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Name]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *rec
	s.records[rec.Name] = &cp
	return nil
}

func (s *InMemory) FindByName(ctx context.Context, name string) (*models.UsernameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Execute atomically validates and mutates a record while holding the store
// lock, so reclaim and re-claim cannot interleave.
func (s *InMemory) Execute(ctx context.Context, name string, validate func(*models.UsernameRecord) error, mutate func(*models.UsernameRecord)) (*models.UsernameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, err
		}
	}
	mutate(rec)
	cp := *rec
	return &cp, nil
}
