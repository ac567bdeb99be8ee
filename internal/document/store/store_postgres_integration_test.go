//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/internal/document/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	"verifyx/pkg/testutil"
	"verifyx/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	ctx      context.Context
	userID   id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateModuleTables(s.ctx))
	s.userID = s.postgres.CreateTestUser(s.ctx, s.T())
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	doc := testutil.NewTestDocument(s.userID)
	s.Require().NoError(s.store.Save(s.ctx, doc))

	got, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.UserID, got.UserID)
	s.Equal(models.TypePassport, got.Type)
	s.Equal(doc.IPFSHash, got.IPFSHash)
	s.Equal(models.StatusPending, got.Verification.Status)
	s.True(got.CreatedAt.Equal(doc.CreatedAt))

	_, err = s.store.FindByID(s.ctx, id.NewDocumentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByUserHidesDeletedNewestFirst() {
	base := time.Now().UTC().Truncate(time.Millisecond)
	older := testutil.NewDocumentBuilder().WithUserID(s.userID).CreatedAt(base.Add(-time.Hour)).Build()
	newer := testutil.NewDocumentBuilder().WithUserID(s.userID).WithType(models.TypeNationalID).CreatedAt(base).Build()
	deleted := testutil.NewDocumentBuilder().WithUserID(s.userID).CreatedAt(base.Add(time.Minute)).Deleted(base.Add(2 * time.Minute)).Build()
	for _, d := range []*models.Document{older, newer, deleted} {
		s.Require().NoError(s.store.Save(s.ctx, d))
	}

	docs, err := s.store.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(newer.ID, docs[0].ID)
	s.Equal(older.ID, docs[1].ID)
}

func (s *PostgresStoreSuite) TestExecuteRecordsVerdict() {
	doc := testutil.NewTestDocument(s.userID)
	s.Require().NoError(s.store.Save(s.ctx, doc))

	confidence := 0.92
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := s.store.Execute(s.ctx, doc.ID,
		func(*models.Document) error { return nil },
		func(d *models.Document) { d.MarkVerified(&confidence, now) },
	)
	s.Require().NoError(err)

	got, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, got.Verification.Status)
	s.Require().NotNil(got.Verification.AIConfidence)
	s.InDelta(0.92, *got.Verification.AIConfidence, 1e-9)
	s.Require().NotNil(got.Verification.VerifiedAt)
	s.True(got.Verification.VerifiedAt.Equal(now))
}
