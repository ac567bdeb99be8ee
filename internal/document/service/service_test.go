package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/internal/document/models"
	"verifyx/internal/document/store"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/platform/audit/publisher"
	auditmemory "verifyx/pkg/platform/audit/store/memory"
	"verifyx/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	events  *auditmemory.Store
	service *Service
	userID  id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.events = auditmemory.New()
	s.service = New(store.NewInMemoryDocumentStore(), WithAuditor(publisher.New(s.events)))
	s.userID = id.NewUserID()
}

func (s *ServiceSuite) register() *models.Document {
	doc, err := s.service.Register(s.ctx, s.userID, &models.RegisterRequest{
		DocumentType: "passport",
		FileName:     "passport.jpg",
		MimeType:     "image/jpeg",
		Size:         1024,
		IPFSHash:     "Qm" + strings.Repeat("b", 44),
	})
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) TestRegisterEmitsAudit() {
	doc := s.register()
	s.Equal(models.StatusPending, doc.Verification.Status)

	events := s.events.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionDocumentRegistered, events[0].Action)
	s.Equal(doc.ID.String(), events[0].Subject)
}

func (s *ServiceSuite) TestGetHidesForeignDocuments() {
	doc := s.register()

	_, err := s.service.Get(s.ctx, id.NewUserID(), doc.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	found, err := s.service.Get(s.ctx, s.userID, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, found.ID)
}

func (s *ServiceSuite) TestDeleteIsSoft() {
	doc := s.register()
	s.Require().NoError(s.service.Delete(s.ctx, s.userID, doc.ID))

	_, err := s.service.Get(s.ctx, s.userID, doc.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	docs, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(docs)

	err = s.service.Delete(s.ctx, s.userID, doc.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.MarkVerified(s.ctx, doc.ID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerificationOutcome() {
	doc := s.register()
	confidence := 0.42
	s.Require().NoError(s.service.MarkRejected(s.ctx, doc.ID, "face mismatch", &confidence))

	found, err := s.service.Get(s.ctx, s.userID, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, found.Verification.Status)
	s.Equal("face mismatch", found.Verification.RejectionReason)
	s.InDelta(0.42, *found.Verification.AIConfidence, 1e-9)
}
