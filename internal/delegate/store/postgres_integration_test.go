//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "nameplate/internal/account/models"
	"nameplate/internal/delegate/models"
	"nameplate/internal/delegate/store"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/testutil"
	"nameplate/pkg/testutil/containers"
)

type DelegatePostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	ctx      context.Context
}

func TestDelegatePostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DelegatePostgresSuite))
}

func (s *DelegatePostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.Apply(s.ctx, store.Schema))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *DelegatePostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "delegates"))
}

func (s *DelegatePostgresSuite) TestRoundTrip() {
	account := accountmodels.AddressFor(100)
	alice := testutil.TestAddress("alice")
	rec := models.New(testutil.TestAddress("device-1"), account, alice, 100, time.Now().UTC())

	s.Require().NoError(s.store.Create(s.ctx, rec))

	got, err := s.store.FindByAddress(s.ctx, rec.Address)
	s.Require().NoError(err)
	s.Equal(account, got.AccountAddress)
	s.Equal(alice, got.OwnerPrincipal)
	s.Equal(uint64(100), got.Kid)

	s.Require().ErrorIs(s.store.Create(s.ctx, rec), sentinel.ErrAlreadyUsed)

	s.Require().NoError(s.store.Delete(s.ctx, rec.Address))
	_, err = s.store.FindByAddress(s.ctx, rec.Address)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DelegatePostgresSuite) TestDeleteByAccount() {
	first := accountmodels.AddressFor(100)
	second := accountmodels.AddressFor(101)
	alice := testutil.TestAddress("alice")
	bob := testutil.TestAddress("bob")
	now := time.Now().UTC()

	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d1"), first, alice, 100, now)))
	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d2"), first, alice, 101, now)))
	s.Require().NoError(s.store.Create(s.ctx, models.New(testutil.TestAddress("d3"), second, bob, 102, now)))

	n, err := s.store.DeleteByAccount(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.FindByAddress(s.ctx, testutil.TestAddress("d3"))
	s.Require().NoError(err)
}
