package store

import (
	"context"
	"sync"

	"nameplate/internal/delegate/models"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/sentinel"
)

// InMemory keeps delegate records keyed by delegate address.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.Address]*models.DelegateRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.Address]*models.DelegateRecord)}
}

func (s *InMemory) Create(ctx context.Context, rec *models.DelegateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Address]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *rec
	s.records[rec.Address] = &cp
	return nil
}

func (s *InMemory) FindByAddress(ctx context.Context, addr domain.Address) (*models.DelegateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemory) Delete(ctx context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[addr]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, addr)
	return nil
}

// DeleteByAccount removes every record bound to the account. Used by the
// administrative teardown cascade.
func (s *InMemory) DeleteByAccount(ctx context.Context, accountAddress domain.Address) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for addr, rec := range s.records {
		if rec.AccountAddress == accountAddress {
			delete(s.records, addr)
			n++
		}
	}
	return n, nil
}
