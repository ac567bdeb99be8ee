package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verifyx/internal/activity/service/mocks"
	credModels "verifyx/internal/credential/models"
	docModels "verifyx/internal/document/models"
	idModels "verifyx/internal/identity/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/activity-mocks.go -package=mocks Users,Documents,Credentials

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	users       *mocks.MockUsers
	documents   *mocks.MockDocuments
	credentials *mocks.MockCredentials
	service     *Service
	user        *idModels.User
	now         time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUsers(s.ctrl)
	s.documents = mocks.NewMockDocuments(s.ctrl)
	s.credentials = mocks.NewMockCredentials(s.ctrl)
	s.service = New(s.users, s.documents, s.credentials)
	s.now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	s.user = idModels.NewUser("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", s.now.AddDate(0, -1, 0))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestFeed() {
	doc := &docModels.Document{ID: id.NewDocumentID(), UserID: s.user.ID, Type: docModels.TypeNationalID, CreatedAt: s.now.Add(-time.Hour)}
	cred := &credModels.Credential{ID: "c1", Type: credModels.TypeAge, IssuedAt: s.now, Usage: credModels.Usage{VerifyCount: 2}}

	s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
	s.documents.EXPECT().List(gomock.Any(), s.user.ID).Return([]*docModels.Document{doc}, nil)
	s.credentials.EXPECT().ListBySubject(gomock.Any(), s.user.ID).Return([]*credModels.Credential{cred}, nil)

	feed, err := s.service.Feed(context.Background(), s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(feed.Events, 3)
	s.Equal("cred_issued_c1", feed.Events[0].ID)
	s.Equal(2, feed.Stats.Scans)
	s.Equal(1, feed.Stats.Documents)
}

func (s *ServiceSuite) TestFeedFailures() {
	s.Run("unknown user", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))
		_, err := s.service.Feed(context.Background(), s.user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("credential read fails the feed", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.documents.EXPECT().List(gomock.Any(), s.user.ID).Return(nil, nil)
		s.credentials.EXPECT().ListBySubject(gomock.Any(), s.user.ID).Return(nil, errors.New("connection reset"))
		_, err := s.service.Feed(context.Background(), s.user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
