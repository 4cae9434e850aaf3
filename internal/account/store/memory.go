package store

import (
	"context"
	"sync"

	"nameplate/internal/account/models"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/sentinel"
)

// InMemory keeps account records keyed by object address, with a principal
// index standing in for the per-principal local account reference.
type InMemory struct {
	mu          sync.RWMutex
	byAddress   map[domain.Address]*models.AccountRecord
	byPrincipal map[domain.Address]domain.Address
}

func NewInMemory() *InMemory {
	return &InMemory{
		byAddress:   make(map[domain.Address]*models.AccountRecord),
		byPrincipal: make(map[domain.Address]domain.Address),
	}
}

func (s *InMemory) Create(ctx context.Context, rec *models.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPrincipal[rec.Owner]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byAddress[rec.Address]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.byAddress[rec.Address] = rec.Clone()
	s.byPrincipal[rec.Owner] = rec.Address
	return nil
}

func (s *InMemory) FindByAddress(ctx context.Context, addr domain.Address) (*models.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupAddress(addr)
}

func (s *InMemory) FindByPrincipal(ctx context.Context, principal domain.Address) (*models.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.byPrincipal[principal]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.lookupAddress(addr)
}

// ExecuteByAddress atomically validates and mutates the record at addr.
func (s *InMemory) ExecuteByAddress(ctx context.Context, addr domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byAddress[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.execute(rec, validate, mutate)
}

// ExecuteByPrincipal atomically validates and mutates the principal's record.
func (s *InMemory) ExecuteByPrincipal(ctx context.Context, principal domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := s.byPrincipal[principal]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec, ok := s.byAddress[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.execute(rec, validate, mutate)
}

// Delete removes the record and its principal reference.
func (s *InMemory) Delete(ctx context.Context, principal domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := s.byPrincipal[principal]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPrincipal, principal)
	delete(s.byAddress, addr)
	return nil
}

func (s *InMemory) lookupAddress(addr domain.Address) (*models.AccountRecord, error) {
	rec, ok := s.byAddress[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) execute(rec *models.AccountRecord, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error) {
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, err
		}
	}
	mutate(rec)
	return rec.Clone(), nil
}
