package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nameplate/internal/username/models"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/testutil"
)

type UsernameStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestUsernameStoreSuite(t *testing.T) {
	suite.Run(t, new(UsernameStoreSuite))
}

func (s *UsernameStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *UsernameStoreSuite) newRecord(name string) *models.UsernameRecord {
	rec, err := models.New(name, testutil.TestAddress("owner-"+name), time.Now())
	s.Require().NoError(err)
	return rec
}

func (s *UsernameStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by name", func() {
		rec := s.newRecord("alice")
		s.Require().NoError(s.store.Create(s.ctx, rec))

		found, err := s.store.FindByName(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(rec.Owner, found.Owner)
		s.Equal(rec.TokenAddress, found.TokenAddress)
	})

	s.Run("returns ErrNotFound for unknown name", func() {
		_, err := s.store.FindByName(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate name", func() {
		rec := s.newRecord("bob")
		s.Require().NoError(s.store.Create(s.ctx, rec))
		err := s.store.Create(s.ctx, s.newRecord("bob"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *UsernameStoreSuite) TestExecute() {
	rec := s.newRecord("carol")
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Run("validate failure leaves the record untouched", func() {
		_, err := s.store.Execute(s.ctx, "carol",
			func(*models.UsernameRecord) error { return sentinel.ErrInvalidState },
			func(r *models.UsernameRecord) { r.Reclaimed = true },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByName(s.ctx, "carol")
		s.Require().NoError(err)
		s.False(found.Reclaimed)
	})

	s.Run("mutation persists", func() {
		updated, err := s.store.Execute(s.ctx, "carol", nil,
			func(r *models.UsernameRecord) { r.ReturnToCustody(time.Now()) },
		)
		s.Require().NoError(err)
		s.True(updated.Reclaimed)

		found, err := s.store.FindByName(s.ctx, "carol")
		s.Require().NoError(err)
		s.True(found.Reclaimed)
		s.Equal(models.CustodialAddress, found.Owner)
	})

	s.Run("missing record returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, "nobody", nil, func(*models.UsernameRecord) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record is a copy", func() {
		found, err := s.store.FindByName(s.ctx, "carol")
		s.Require().NoError(err)
		found.Owner = "tampered"

		again, err := s.store.FindByName(s.ctx, "carol")
		s.Require().NoError(err)
		s.NotEqual(found.Owner, again.Owner)
	})
}
