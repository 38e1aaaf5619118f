package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vitrina/internal/verification/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

type CodeStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *CodeStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestCodeStoreSuite(t *testing.T) {
	suite.Run(t, new(CodeStoreSuite))
}

func (s *CodeStoreSuite) newCode(subjectID id.SubjectID, channel models.Channel, code, target string) *models.VerificationCode {
	return models.New(subjectID, channel, code, target, s.now, models.CodeTTL)
}

func (s *CodeStoreSuite) TestReplaceAndFind() {
	subjectID := id.NewSubjectID()

	s.Run("stores and finds a code", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "123456", "+5511999990000")))

		found, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().NoError(err)
		s.Equal("123456", found.Code)
		s.Equal("+5511999990000", found.PendingTarget)
	})

	s.Run("returns ErrNotFound for unknown pair", func() {
		_, err := s.store.Find(s.ctx, id.NewSubjectID(), models.ChannelEmail)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("replace overwrites the outstanding code for the pair", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "654321", "+5511999990000")))

		found, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().NoError(err)
		s.Equal("654321", found.Code)
	})

	s.Run("channels are independent", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelEmail, "111111", "new@example.com")))

		phone, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().NoError(err)
		s.Equal("654321", phone.Code)

		email, err := s.store.Find(s.ctx, subjectID, models.ChannelEmail)
		s.Require().NoError(err)
		s.Equal("111111", email.Code)
	})
}

func (s *CodeStoreSuite) TestConsume() {
	subjectID := id.NewSubjectID()
	target := "+5511999990000"

	s.Run("success clears the code", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "123456", target)))

		status, err := s.store.Consume(s.ctx, subjectID, models.ChannelPhone, target, "123456", s.now)
		s.Require().NoError(err)
		s.Equal(models.VerifySuccess, status)

		_, err = s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("re-submitting a consumed code reports not found", func() {
		status, err := s.store.Consume(s.ctx, subjectID, models.ChannelPhone, target, "123456", s.now)
		s.Require().NoError(err)
		s.Equal(models.VerifyNotFound, status)
	})

	s.Run("failed attempt leaves the code outstanding", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "123456", target)))

		status, err := s.store.Consume(s.ctx, subjectID, models.ChannelPhone, target, "000000", s.now)
		s.Require().NoError(err)
		s.Equal(models.VerifyMismatch, status)

		found, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().NoError(err)
		s.Equal("123456", found.Code)
	})

	s.Run("target mismatch leaves the code outstanding", func() {
		status, err := s.store.Consume(s.ctx, subjectID, models.ChannelPhone, "+5511888880000", "123456", s.now)
		s.Require().NoError(err)
		s.Equal(models.VerifyTargetMismatch, status)
	})
}

// TestConsume_SingleUse races many consumers on one code: exactly one may
// observe success.
func (s *CodeStoreSuite) TestConsume_SingleUse() {
	subjectID := id.NewSubjectID()
	target := "+5511999990000"
	s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "123456", target)))

	const racers = 32
	var wg sync.WaitGroup
	statuses := make([]models.VerifyStatus, racers)
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := s.store.Consume(s.ctx, subjectID, models.ChannelPhone, target, "123456", s.now)
			s.Require().NoError(err)
			statuses[i] = status
		}()
	}
	wg.Wait()

	successes := 0
	for _, status := range statuses {
		if status == models.VerifySuccess {
			successes++
		}
	}
	s.Equal(1, successes, "exactly one racer may consume the code")
}

func (s *CodeStoreSuite) TestDeleteExpired() {
	fresh := s.newCode(id.NewSubjectID(), models.ChannelPhone, "111111", "+5511999990001")
	stale := s.newCode(id.NewSubjectID(), models.ChannelPhone, "222222", "+5511999990002")
	s.Require().NoError(s.store.Replace(s.ctx, fresh))
	s.Require().NoError(s.store.Replace(s.ctx, stale))

	deleted, err := s.store.DeleteExpired(s.ctx, stale.ExpiresAt.Add(-time.Second))
	s.Require().NoError(err)
	s.Zero(deleted)

	deleted, err = s.store.DeleteExpired(s.ctx, stale.ExpiresAt.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(2, deleted)
}

func (s *CodeStoreSuite) TestDelete() {
	subjectID := id.NewSubjectID()
	s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelEmail, "123456", "new@example.com")))

	s.Require().NoError(s.store.Delete(s.ctx, subjectID, models.ChannelEmail))
	_, err := s.store.Find(s.ctx, subjectID, models.ChannelEmail)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Idempotent.
	s.Require().NoError(s.store.Delete(s.ctx, subjectID, models.ChannelEmail))
}

func (s *CodeStoreSuite) TestDeleteMatching() {
	subjectID := id.NewSubjectID()
	s.Require().NoError(s.store.Replace(s.ctx, s.newCode(subjectID, models.ChannelPhone, "123456", "+5511999990000")))

	s.Run("a stale code value leaves the stored code outstanding", func() {
		s.Require().NoError(s.store.DeleteMatching(s.ctx, subjectID, models.ChannelPhone, "999999"))

		found, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().NoError(err)
		s.Equal("123456", found.Code)
	})

	s.Run("the matching value clears the code", func() {
		s.Require().NoError(s.store.DeleteMatching(s.ctx, subjectID, models.ChannelPhone, "123456"))

		_, err := s.store.Find(s.ctx, subjectID, models.ChannelPhone)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("idempotent on a missing pair", func() {
		s.Require().NoError(s.store.DeleteMatching(s.ctx, subjectID, models.ChannelPhone, "123456"))
	})
}
