package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryLogSuite struct {
	suite.Suite
	log *InMemoryLog
	ctx context.Context
}

func TestInMemoryLogSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLogSuite))
}

func (s *InMemoryLogSuite) SetupTest() {
	s.log = NewInMemoryLog()
	s.ctx = context.Background()
}

func (s *InMemoryLogSuite) TestAppendAssignsOrderedSequence() {
	at := time.Now()

	first, err := s.log.Append(s.ctx, New(TypeUsernameRegistered, at, Attrs{"name": "alice"}))
	s.Require().NoError(err)
	second, err := s.log.Append(s.ctx, New(TypeAccountCreated, at, Attrs{"kid": 100}))
	s.Require().NoError(err)

	s.Equal(uint64(1), first.Seq)
	s.Equal(uint64(2), second.Seq)
}

func (s *InMemoryLogSuite) TestListReplaysAfterSequence() {
	at := time.Now()
	for i := range 5 {
		_, err := s.log.Append(s.ctx, New(TypeFollowed, at, Attrs{"i": i}))
		s.Require().NoError(err)
	}

	s.Run("returns only events past the cursor", func() {
		evs, err := s.log.List(s.ctx, 3, 10)
		s.Require().NoError(err)
		s.Require().Len(evs, 2)
		s.Equal(uint64(4), evs[0].Seq)
		s.Equal(uint64(5), evs[1].Seq)
	})

	s.Run("honors the limit", func() {
		evs, err := s.log.List(s.ctx, 0, 2)
		s.Require().NoError(err)
		s.Require().Len(evs, 2)
		s.Equal(uint64(1), evs[0].Seq)
	})

	s.Run("returns empty past the end", func() {
		evs, err := s.log.List(s.ctx, 5, 10)
		s.Require().NoError(err)
		s.Empty(evs)
	})
}
