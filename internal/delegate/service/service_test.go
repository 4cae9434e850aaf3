package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "nameplate/internal/account/models"
	accountstore "nameplate/internal/account/store"
	"nameplate/internal/delegate/models"
	"nameplate/internal/delegate/store"
	"nameplate/internal/event"
	"nameplate/internal/sequence"
	"nameplate/pkg/domain"
	"nameplate/pkg/platform/tx"
	"nameplate/pkg/testutil"
)

type DelegateServiceSuite struct {
	suite.Suite
	accounts  *accountstore.InMemory
	delegates *store.InMemory
	log       *event.InMemoryLog
	service   *Service
	ctx       context.Context

	alice domain.Address
	d1    domain.Address
	d2    domain.Address
}

func TestDelegateServiceSuite(t *testing.T) {
	suite.Run(t, new(DelegateServiceSuite))
}

func (s *DelegateServiceSuite) SetupTest() {
	s.accounts = accountstore.NewInMemory()
	s.delegates = store.NewInMemory()
	s.log = event.NewInMemoryLog()
	s.service = New(s.accounts, s.delegates, sequence.NewMemory(), s.log, tx.NewMemoryRunner())
	s.ctx = testutil.Context(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s.alice = testutil.TestAddress("alice")
	s.d1 = testutil.TestAddress("device-1")
	s.d2 = testutil.TestAddress("device-2")

	rec := accountmodels.New(sequence.Reserved, s.alice, "alice", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	s.Require().NoError(s.accounts.Create(s.ctx, rec))
}

func (s *DelegateServiceSuite) account() *accountmodels.AccountRecord {
	rec, err := s.accounts.FindByPrincipal(s.ctx, s.alice)
	s.Require().NoError(err)
	return rec
}

func (s *DelegateServiceSuite) TestHandshake() {
	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d1))

	s.Run("a caller other than the proposed delegate cannot confirm", func() {
		_, err := s.service.ConfirmIntent(s.ctx, s.d2, s.alice)
		s.Require().ErrorIs(err, models.ErrNotPermitted)
		s.Empty(s.account().Delegates)
	})

	s.Run("the proposed delegate confirms exactly once", func() {
		rec, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
		s.Require().NoError(err)
		s.Equal(s.d1, rec.Address)
		s.Equal(s.alice, rec.OwnerPrincipal)
		s.Equal(uint64(sequence.Reserved), rec.Kid)

		acct := s.account()
		s.Equal([]domain.Address{s.d1}, acct.Delegates)
		s.Nil(acct.PendingIntent)
	})

	s.Run("the consumed intent cannot be confirmed again", func() {
		_, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
		s.Require().ErrorIs(err, models.ErrNotPermitted)
	})
}

func (s *DelegateServiceSuite) TestProposeOverwritesSilently() {
	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d1))
	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d2))

	// The superseded delegate can no longer confirm.
	_, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
	s.Require().ErrorIs(err, models.ErrNotPermitted)

	rec, err := s.service.ConfirmIntent(s.ctx, s.d2, s.alice)
	s.Require().NoError(err)
	s.Equal(s.d2, rec.Address)
}

func (s *DelegateServiceSuite) TestProposeRequiresAccount() {
	nobody := testutil.TestAddress("nobody")
	err := s.service.ProposeIntent(s.ctx, nobody, s.d1)
	s.Require().ErrorIs(err, accountmodels.ErrAccountNotFound)
}

func (s *DelegateServiceSuite) TestConfirmWithoutIntent() {
	_, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
	s.Require().ErrorIs(err, models.ErrNotPermitted)
}

func (s *DelegateServiceSuite) TestConfirmAgainstMissingAccount() {
	_, err := s.service.ConfirmIntent(s.ctx, s.d1, testutil.TestAddress("nobody"))
	s.Require().ErrorIs(err, models.ErrNotPermitted)
}

// An intent mismatch always reads as NotPermitted, even when the caller is
// already linked somewhere and a uniqueness probe would also fail.
func (s *DelegateServiceSuite) TestConfirmMismatchByLinkedDelegate() {
	bob := testutil.TestAddress("bob")
	bobAccount := accountmodels.New(sequence.Reserved+1, bob, "bob", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	s.Require().NoError(s.accounts.Create(s.ctx, bobAccount))
	_, err := s.service.AddDelegateDirect(s.ctx, bob, s.d1)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d2))

	_, err = s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
	s.Require().ErrorIs(err, models.ErrNotPermitted)
}

func (s *DelegateServiceSuite) TestDirectAddSkipsIntent() {
	rec, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
	s.Require().NoError(err)
	s.Equal(s.d1, rec.Address)
	s.Equal([]domain.Address{s.d1}, s.account().Delegates)
}

func (s *DelegateServiceSuite) TestDirectAddPreservesUnrelatedIntent() {
	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d2))

	_, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
	s.Require().NoError(err)

	acct := s.account()
	s.Require().NotNil(acct.PendingIntent)
	s.Equal(s.d2, *acct.PendingIntent)

	// The intent is still confirmable afterwards.
	rec, err := s.service.ConfirmIntent(s.ctx, s.d2, s.alice)
	s.Require().NoError(err)
	s.Equal(s.d2, rec.Address)
}

func (s *DelegateServiceSuite) TestDirectAddRequiresAccount() {
	_, err := s.service.AddDelegateDirect(s.ctx, testutil.TestAddress("nobody"), s.d1)
	s.Require().ErrorIs(err, accountmodels.ErrAccountNotFound)
}

func (s *DelegateServiceSuite) TestDelegateAddressIsUnique() {
	bob := testutil.TestAddress("bob")
	bobAccount := accountmodels.New(sequence.Reserved+1, bob, "bob", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	s.Require().NoError(s.accounts.Create(s.ctx, bobAccount))

	_, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
	s.Require().NoError(err)

	s.Run("a second account cannot link the same delegate", func() {
		_, err := s.service.AddDelegateDirect(s.ctx, bob, s.d1)
		s.Require().ErrorIs(err, models.ErrDelegateExists)
	})

	s.Run("the owning account cannot link it twice", func() {
		_, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
		s.Require().ErrorIs(err, models.ErrDelegateExists)
	})
}

func (s *DelegateServiceSuite) TestRejectedConfirmBurnsNoKid() {
	_, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
	s.Require().ErrorIs(err, models.ErrNotPermitted)

	rec, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d2)
	s.Require().NoError(err)
	s.Equal(uint64(sequence.Reserved), rec.Kid)
}

func (s *DelegateServiceSuite) TestKidsAreSequential() {
	first, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
	s.Require().NoError(err)
	second, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d2)
	s.Require().NoError(err)

	s.Equal(uint64(sequence.Reserved), first.Kid)
	s.Equal(uint64(sequence.Reserved+1), second.Kid)
}

func (s *DelegateServiceSuite) TestRemoveDelegate() {
	_, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
	s.Require().NoError(err)

	s.Run("unlinks the record and the set entry together", func() {
		s.Require().NoError(s.service.RemoveDelegate(s.ctx, s.alice, s.d1))

		s.Empty(s.account().Delegates)
		_, err := s.delegates.FindByAddress(s.ctx, s.d1)
		s.Require().Error(err)
	})

	s.Run("removing again fails", func() {
		err := s.service.RemoveDelegate(s.ctx, s.alice, s.d1)
		s.Require().ErrorIs(err, models.ErrDelegateDoesNotExist)
	})

	s.Run("the address can be linked again afterwards", func() {
		rec, err := s.service.AddDelegateDirect(s.ctx, s.alice, s.d1)
		s.Require().NoError(err)
		s.Equal(uint64(sequence.Reserved+1), rec.Kid)
	})
}

func (s *DelegateServiceSuite) TestEvents() {
	s.Require().NoError(s.service.ProposeIntent(s.ctx, s.alice, s.d1))
	_, err := s.service.ConfirmIntent(s.ctx, s.d1, s.alice)
	s.Require().NoError(err)
	s.Require().NoError(s.service.RemoveDelegate(s.ctx, s.alice, s.d1))

	evs, err := s.log.List(s.ctx, 0, 100)
	s.Require().NoError(err)
	s.Require().Len(evs, 2)

	s.Equal(event.TypeDelegateCreated, evs[0].Type)
	s.Equal(s.d1.String(), evs[0].Attrs["delegate_address"])
	s.Equal(s.alice.String(), evs[0].Attrs["owner"])

	s.Equal(event.TypeDelegateRemoved, evs[1].Type)
	s.Equal(s.d1.String(), evs[1].Attrs["delegate_address"])
}
