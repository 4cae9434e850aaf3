package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "nameplate/internal/account/models"
	"nameplate/internal/delegate/models"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/testutil"
)

type DelegateMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestDelegateMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(DelegateMemoryStoreSuite))
}

func (s *DelegateMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *DelegateMemoryStoreSuite) TestCreateFindDelete() {
	account := accountmodels.AddressFor(100)
	rec := models.New(testutil.TestAddress("device-1"), account, testutil.TestAddress("alice"), 100, s.now)
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Run("duplicate address conflicts", func() {
		err := s.store.Create(s.ctx, models.New(rec.Address, account, testutil.TestAddress("bob"), 101, s.now))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("find returns a copy", func() {
		got, err := s.store.FindByAddress(s.ctx, rec.Address)
		s.Require().NoError(err)
		s.Equal(uint64(100), got.Kid)

		got.Kid = 999
		fresh, err := s.store.FindByAddress(s.ctx, rec.Address)
		s.Require().NoError(err)
		s.Equal(uint64(100), fresh.Kid)
	})

	s.Run("delete removes the record", func() {
		s.Require().NoError(s.store.Delete(s.ctx, rec.Address))
		_, err := s.store.FindByAddress(s.ctx, rec.Address)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, rec.Address), sentinel.ErrNotFound)
	})
}

func (s *DelegateMemoryStoreSuite) TestDeleteByAccount() {
	first := accountmodels.AddressFor(100)
	second := accountmodels.AddressFor(101)

	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d1"), first, testutil.TestAddress("alice"), 100, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d2"), first, testutil.TestAddress("alice"), 101, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d3"), second, testutil.TestAddress("bob"), 102, s.now)))

	n, err := s.store.DeleteByAccount(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(2, n)

	// The other account's record is untouched.
	_, err = s.store.FindByAddress(s.ctx, testutil.TestAddress("d3"))
	s.Require().NoError(err)

	n, err = s.store.DeleteByAccount(s.ctx, first)
	s.Require().NoError(err)
	s.Zero(n)
}
