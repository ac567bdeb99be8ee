package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/internal/credential/models"
	"verifyx/internal/sentinel"
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
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newCredential(t testing.TB, userID id.UserID, issuedAt time.Time) *models.Credential {
	t.Helper()
	name := "Jane Doe"
	over18 := true
	cred, err := models.NewCredential(models.Draft{
		Type:           models.TypeIdentity,
		Issuer:         models.Issuer{DID: "did:ethr:verifyx", Name: "VerifyX"},
		Subject:        models.Subject{UserID: userID, DID: "did:ethr:0xabc"},
		VerificationID: id.NewVerificationID(),
		Claims:         models.Claims{FullName: &name, IsOver18: &over18},
		IncludedClaims: []models.ClaimKey{models.ClaimFullName, models.ClaimIsOver18},
		IssuedAt:       issuedAt,
		ExpiresAt:      issuedAt.AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("new credential: %v", err)
	}
	return cred
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("stores a copy", func() {
		cred := newCredential(s.T(), id.NewUserID(), s.now)
		s.Require().NoError(s.store.Create(s.ctx, cred))

		cred.Status = models.StatusSuspended
		got, err := s.store.FindByID(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, got.Status)
	})

	s.Run("refuses a second credential for the same verification", func() {
		first := newCredential(s.T(), id.NewUserID(), s.now.Add(2*time.Hour))
		s.Require().NoError(s.store.Create(s.ctx, first))

		second := newCredential(s.T(), first.Subject.UserID, s.now.Add(2*time.Hour+time.Second))
		second.VerificationID = first.VerificationID
		s.ErrorIs(s.store.Create(s.ctx, second), sentinel.ErrConflict)
	})

	s.Run("refuses a duplicate hash", func() {
		first := newCredential(s.T(), id.NewUserID(), s.now.Add(time.Hour))
		s.Require().NoError(s.store.Create(s.ctx, first))

		dup := first.Clone()
		dup.ID = "cred_other"
		dup.VerificationID = id.NewVerificationID()
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestFind() {
	cred := newCredential(s.T(), id.NewUserID(), s.now)
	s.Require().NoError(s.store.Create(s.ctx, cred))

	byHash, err := s.store.FindByHash(s.ctx, cred.Hash)
	s.Require().NoError(err)
	s.Equal(cred.ID, byHash.ID)

	_, err = s.store.FindByID(s.ctx, "cred_missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByHash(s.ctx, "00")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListBySubjectNewestFirst() {
	userID := id.NewUserID()
	older := newCredential(s.T(), userID, s.now)
	newer := newCredential(s.T(), userID, s.now.Add(time.Hour))
	other := newCredential(s.T(), id.NewUserID(), s.now.Add(2*time.Hour))
	for _, c := range []*models.Credential{older, newer, other} {
		s.Require().NoError(s.store.Create(s.ctx, c))
	}

	got, err := s.store.ListBySubject(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
}

func (s *InMemoryStoreSuite) TestRevoke() {
	s.Run("first revocation wins and is never altered", func() {
		userID := id.NewUserID()
		cred := newCredential(s.T(), userID, s.now)
		s.Require().NoError(s.store.Create(s.ctx, cred))

		revoked, err := s.store.Revoke(s.ctx, cred.ID, userID, "lost device", s.now.Add(time.Minute))
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, revoked.Status)

		current, err := s.store.Revoke(s.ctx, cred.ID, userID, "second attempt", s.now.Add(time.Hour))
		s.ErrorIs(err, sentinel.ErrInvalidState)
		s.Require().NotNil(current)
		s.Equal("lost device", current.Revocation.Reason)
		s.Equal(s.now.Add(time.Minute), *current.Revocation.RevokedAt)
	})

	s.Run("foreign credential is not found", func() {
		cred := newCredential(s.T(), id.NewUserID(), s.now.Add(time.Second))
		s.Require().NoError(s.store.Create(s.ctx, cred))

		_, err := s.store.Revoke(s.ctx, cred.ID, id.NewUserID(), "x", s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent revocations yield one success", func() {
		userID := id.NewUserID()
		cred := newCredential(s.T(), userID, s.now.Add(2*time.Second))
		s.Require().NoError(s.store.Create(s.ctx, cred))

		successes, errs := testutil.RunConcurrentCollect(20, func(int) error {
			_, err := s.store.Revoke(s.ctx, cred.ID, userID, "race", s.now)
			return err
		})
		s.Equal(int32(1), successes)
		s.Len(errs, 19)
		for _, err := range errs {
			s.ErrorIs(err, sentinel.ErrInvalidState)
		}
	})
}

func (s *InMemoryStoreSuite) TestUsageCounters() {
	cred := newCredential(s.T(), id.NewUserID(), s.now)
	s.Require().NoError(s.store.Create(s.ctx, cred))

	result := testutil.RunConcurrent(30, func(idx int) error {
		if idx%3 == 0 {
			return s.store.IncrementShare(s.ctx, cred.ID, s.now)
		}
		return s.store.IncrementVerify(s.ctx, cred.ID, s.now)
	})
	s.Equal(int32(30), result.Successes)

	got, err := s.store.FindByID(s.ctx, cred.ID)
	s.Require().NoError(err)
	s.Equal(10, got.Usage.ShareCount)
	s.Equal(20, got.Usage.VerifyCount)
	s.Require().NotNil(got.Usage.LastVerifiedAt)

	s.ErrorIs(s.store.IncrementVerify(s.ctx, "cred_missing", s.now), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRecordAnchorOnce() {
	cred := newCredential(s.T(), id.NewUserID(), s.now)
	s.Require().NoError(s.store.Create(s.ctx, cred))

	block := uint64(42)
	first, err := s.store.RecordAnchor(s.ctx, cred.ID, models.Blockchain{TxHash: "0x01", BlockNumber: &block, Network: "hardhat"})
	s.Require().NoError(err)
	s.True(first.Blockchain.Stored)

	second, err := s.store.RecordAnchor(s.ctx, cred.ID, models.Blockchain{TxHash: "0x02"})
	s.Require().NoError(err)
	s.Equal("0x01", second.Blockchain.TxHash)
	s.Equal(uint64(42), *second.Blockchain.BlockNumber)

	_, err = s.store.RecordAnchor(s.ctx, "cred_missing", models.Blockchain{})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
