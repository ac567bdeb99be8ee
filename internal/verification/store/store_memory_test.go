package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"verifyx/internal/sentinel"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	"verifyx/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newSession(userID id.UserID, at time.Time) *models.Session {
	return models.NewSession(userID, id.NewDocumentID(), models.Metadata{}, at, 30*time.Minute)
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("expiring a stale session replaces the stored copy", func() {
		userID := id.NewUserID()
		stale := s.newSession(userID, s.now)
		s.Require().NoError(s.store.Create(s.ctx, stale, s.now))
		s.store.mu.RLock()
		before := s.store.sessions[stale.ID]
		s.store.mu.RUnlock()

		later := s.now.Add(31 * time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, s.newSession(userID, later), later))

		s.Equal(models.StatusInitiated, before.Status)
		got, err := s.store.FindByID(s.ctx, stale.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusExpired, got.Status)
	})

	s.Run("refuses a second active session", func() {
		userID := id.NewUserID()
		s.Require().NoError(s.store.Create(s.ctx, s.newSession(userID, s.now), s.now))

		err := s.store.Create(s.ctx, s.newSession(userID, s.now), s.now.Add(time.Minute))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("expires a stale session and accepts the new one", func() {
		userID := id.NewUserID()
		stale := s.newSession(userID, s.now)
		s.Require().NoError(s.store.Create(s.ctx, stale, s.now))

		later := s.now.Add(31 * time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, s.newSession(userID, later), later))

		got, err := s.store.FindByID(s.ctx, stale.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusExpired, got.Status)
	})

	s.Run("completed sessions do not block", func() {
		userID := id.NewUserID()
		done := s.newSession(userID, s.now)
		s.Require().NoError(done.Complete(true, s.now))
		s.Require().NoError(s.store.Create(s.ctx, done, s.now))
		s.NoError(s.store.Create(s.ctx, s.newSession(userID, s.now), s.now))
	})
}

func (s *InMemoryStoreSuite) TestFindActiveByUser() {
	userID := id.NewUserID()
	_, err := s.store.FindActiveByUser(s.ctx, userID, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	session := s.newSession(userID, s.now)
	s.Require().NoError(s.store.Create(s.ctx, session, s.now))

	got, err := s.store.FindActiveByUser(s.ctx, userID, s.now.Add(10*time.Minute))
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)

	_, err = s.store.FindActiveByUser(s.ctx, userID, s.now.Add(30*time.Minute))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestExecute() {
	s.Run("validation failure leaves the session untouched", func() {
		session := s.newSession(id.NewUserID(), s.now)
		s.Require().NoError(s.store.Create(s.ctx, session, s.now))

		_, err := s.store.Execute(s.ctx, session.ID,
			func(*models.Session) error { return sentinel.ErrInvalidState },
			func(sess *models.Session) { sess.Status = models.StatusCancelled },
		)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		got, err := s.store.FindByID(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInitiated, got.Status)
	})

	s.Run("returned session is a copy", func() {
		session := s.newSession(id.NewUserID(), s.now)
		s.Require().NoError(s.store.Create(s.ctx, session, s.now))

		out, err := s.store.Execute(s.ctx, session.ID,
			func(*models.Session) error { return nil },
			func(sess *models.Session) { sess.AddError(models.StepFaceCapture, "blurry", s.now) },
		)
		s.Require().NoError(err)
		out.Errors = nil

		got, err := s.store.FindByID(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Len(got.Errors, 1)
	})

	s.Run("unknown session", func() {
		_, err := s.store.Execute(s.ctx, id.NewVerificationID(),
			func(*models.Session) error { return nil }, func(*models.Session) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDeleteExpired() {
	userID := id.NewUserID()
	abandoned := s.newSession(userID, s.now.Add(-time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, abandoned, s.now.Add(-time.Hour)))

	completed := s.newSession(userID, s.now.Add(-25*time.Minute))
	s.Require().NoError(completed.Complete(true, s.now.Add(-20*time.Minute)))
	s.Require().NoError(s.store.Create(s.ctx, completed, s.now.Add(-20*time.Minute)))

	fresh := s.newSession(userID, s.now)
	s.Require().NoError(s.store.Create(s.ctx, fresh, s.now))

	deleted, err := s.store.DeleteExpired(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, err = s.store.FindByID(s.ctx, abandoned.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	sessions, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(sessions, 2)
	s.Equal(fresh.ID, sessions[0].ID)
}

func TestConcurrentCreateAllowsOneActiveSession(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	userID := id.NewUserID()
	now := time.Now()

	result := testutil.RunConcurrent(50, func(int) error {
		session := models.NewSession(userID, id.NewDocumentID(), models.Metadata{}, now, 30*time.Minute)
		return s.Create(ctx, session, now)
	})

	assert.Equal(t, int32(1), result.Successes)
	assert.Equal(t, int32(49), result.Conflicts)
	assert.Zero(t, result.Errors)
}

func TestConcurrentCompleteYieldsOneWinner(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now()
	session := models.NewSession(id.NewUserID(), id.NewDocumentID(), models.Metadata{}, now, 30*time.Minute)
	require.NoError(t, s.Create(ctx, session, now))

	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.Execute(ctx, session.ID,
			func(sess *models.Session) error { return sess.Complete(true, now) },
			func(*models.Session) {},
		)
		return err
	})

	assert.Equal(t, int32(1), result.Successes)
	assert.Equal(t, int32(49), result.Conflicts)
}

func TestConcurrentExecuteWhileCreateExpires(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	userID := id.NewUserID()
	created := time.Now().Add(-time.Hour)
	stale := models.NewSession(userID, id.NewDocumentID(), models.Metadata{}, created, 30*time.Minute)
	require.NoError(t, s.Create(ctx, stale, created))

	now := time.Now()
	result := testutil.RunConcurrent(40, func(i int) error {
		if i%2 == 0 {
			return s.Create(ctx, models.NewSession(userID, id.NewDocumentID(), models.Metadata{}, now, 30*time.Minute), now)
		}
		_, err := s.Execute(ctx, stale.ID,
			func(*models.Session) error { return nil },
			func(sess *models.Session) { sess.AddError(models.StepFaceCapture, "late", now) },
		)
		return err
	})

	assert.Zero(t, result.Errors)
	got, err := s.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)
	assert.Len(t, got.Errors, 20)
}
