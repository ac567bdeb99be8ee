package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verifyx/internal/anchor/registry"
	"verifyx/internal/credential/issuer"
	"verifyx/internal/credential/ledger"
	"verifyx/internal/credential/models"
	"verifyx/internal/credential/service/mocks"
	"verifyx/internal/credential/store"
	docModels "verifyx/internal/document/models"
	idModels "verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	vModels "verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/platform/audit/publisher"
	auditmemory "verifyx/pkg/platform/audit/store/memory"
	"verifyx/pkg/requestcontext"
	"verifyx/pkg/testutil"
)

//go:generate mockgen -source=service.go -destination=mocks/credential-mocks.go -package=mocks Sessions,Documents,Users,Registry

func ptr[T any](v T) *T { return &v }

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	sessions  *mocks.MockSessions
	documents *mocks.MockDocuments
	users     *mocks.MockUsers
	registry  *mocks.MockRegistry
	store     *store.InMemoryStore
	events    *auditmemory.Store
	service   *Service

	now    time.Time
	ctx    context.Context
	user   *idModels.User
	doc    *docModels.Document
	passed *vModels.Session
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessions(s.ctrl)
	s.documents = mocks.NewMockDocuments(s.ctrl)
	s.users = mocks.NewMockUsers(s.ctrl)
	s.registry = mocks.NewMockRegistry(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.events = auditmemory.New()

	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.user = idModels.NewUser("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", s.now.AddDate(-1, 0, 0))
	s.doc = &docModels.Document{ID: id.NewDocumentID(), UserID: s.user.ID, Type: docModels.TypePassport}
	s.passed = vModels.NewSession(s.user.ID, s.doc.ID, vModels.Metadata{}, s.now.Add(-10*time.Minute), 30*time.Minute)
	s.passed.Status = vModels.StatusCompleted
	s.passed.Result = vModels.ResultPassed
	s.passed.Scores.OCR = &vModels.OCR{Extracted: vModels.ExtractedData{
		FullName:       "Jane Doe",
		DateOfBirth:    "1990-04-12",
		Nationality:    "GB",
		DocumentNumber: "123456789",
	}}

	s.service = New(s.store, ledger.New(s.store), issuer.New(), s.sessions, s.documents, s.users,
		WithRegistry(s.registry),
		WithAuditor(publisher.New(s.events)),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Wait()
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectIssue() {
	s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(s.passed, nil)
	s.documents.EXPECT().Get(gomock.Any(), s.user.ID, s.doc.ID).Return(s.doc, nil)
	s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
	s.sessions.EXPECT().LinkCredential(gomock.Any(), s.passed.ID, gomock.Any()).Return(s.passed, nil)
	s.users.EXPECT().MarkVerified(gomock.Any(), s.user.ID).Return(s.user, nil)
}

func (s *ServiceSuite) issue(req *models.IssueRequest) *models.Credential {
	s.expectIssue()
	cred, err := s.service.Issue(s.ctx, s.user.ID, req)
	s.Require().NoError(err)
	return cred
}

func (s *ServiceSuite) issueRequest(included ...string) *models.IssueRequest {
	return &models.IssueRequest{VerificationID: s.passed.ID.String(), Type: string(models.TypeIdentity), IncludedClaims: included}
}

func (s *ServiceSuite) TestIssue() {
	s.Run("fills claims from the session and document", func() {
		cred := s.issue(s.issueRequest())

		s.Equal("Jane Doe", *cred.Claims.FullName)
		s.Equal("1990-04-12", *cred.Claims.DateOfBirth)
		s.Equal("passport", *cred.Claims.DocumentType)
		s.Equal("123456789", *cred.Claims.DocumentNumber)
		s.True(*cred.Claims.IsOver18)
		s.True(*cred.Claims.IsOver21)
		s.Equal(models.DefaultIncludedClaims, cred.IncludedClaims)
		s.Equal("did:ethr:0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", cred.Subject.DID)
		s.Equal(s.now.AddDate(1, 0, 0), cred.ExpiresAt)
		s.True(cred.IntegrityIntact())

		_, ok := cred.Disclose()[models.ClaimDocumentNumber]
		s.False(ok, "document number is never disclosed")

		stored, err := s.store.FindByID(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal(cred.Hash, stored.Hash)

		events := s.events.All()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionCredentialIssued, events[0].Action)
		s.Equal(cred.ID, events[0].Subject)
	})

	s.Run("caller claims win over extracted values", func() {
		s.store = store.NewInMemoryStore()
		s.service.store = s.store
		req := s.issueRequest("fullName")
		req.Claims.FullName = ptr("Jane Q. Doe")
		cred := s.issue(req)
		s.Equal("Jane Q. Doe", *cred.Claims.FullName)
		s.Equal(map[models.ClaimKey]any{models.ClaimFullName: "Jane Q. Doe"}, cred.Disclose())
	})
}

func (s *ServiceSuite) TestIssueRefusals() {
	s.Run("session not passed", func() {
		failed := s.passed.Clone()
		failed.Result = vModels.ResultFailed
		failed.Status = vModels.StatusCompleted
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(failed, nil)
		_, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("session still open", func() {
		open := s.passed.Clone()
		open.Status = vModels.StatusInProgress
		open.Result = vModels.ResultPending
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(open, nil)
		_, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest())
		s.True(dErrors.IsConflict(err))
	})

	s.Run("session already backs a credential", func() {
		linked := s.passed.Clone()
		linked.Credential.Issued = true
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(linked, nil)
		_, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyIssued))
	})

	s.Run("foreign session is not found", func() {
		stranger := id.NewUserID()
		s.sessions.EXPECT().Get(gomock.Any(), stranger, s.passed.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification session not found"))
		_, err := s.service.Issue(s.ctx, stranger, s.issueRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("deleted document", func() {
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(s.passed, nil)
		s.documents.EXPECT().Get(gomock.Any(), s.user.ID, s.doc.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "document not found"))
		_, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("documentNumber cannot be disclosed", func() {
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(s.passed, nil)
		s.documents.EXPECT().Get(gomock.Any(), s.user.ID, s.doc.ID).Return(s.doc, nil)
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		_, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest("documentNumber"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("concurrent issuance stores one credential", func() {
		s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(s.passed, nil).Times(10)
		s.documents.EXPECT().Get(gomock.Any(), s.user.ID, s.doc.ID).Return(s.doc, nil).Times(10)
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil).Times(10)
		s.sessions.EXPECT().LinkCredential(gomock.Any(), s.passed.ID, gomock.Any()).Return(s.passed, nil).Times(1)
		s.users.EXPECT().MarkVerified(gomock.Any(), s.user.ID).Return(s.user, nil).Times(1)

		result := testutil.RunConcurrent(10, func(idx int) error {
			ctx := requestcontext.WithTime(context.Background(), s.now.Add(time.Duration(idx)*time.Millisecond))
			_, err := s.service.Issue(ctx, s.user.ID, s.issueRequest())
			return err
		})
		s.Equal(int32(1), result.Successes)
		s.Equal(int32(9), result.Conflicts)
	})
}

func (s *ServiceSuite) TestLinkFailureDoesNotFailIssuance() {
	s.sessions.EXPECT().Get(gomock.Any(), s.user.ID, s.passed.ID).Return(s.passed, nil)
	s.documents.EXPECT().Get(gomock.Any(), s.user.ID, s.doc.ID).Return(s.doc, nil)
	s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
	s.sessions.EXPECT().LinkCredential(gomock.Any(), s.passed.ID, gomock.Any()).Return(nil, errors.New("redis: connection reset"))
	s.users.EXPECT().MarkVerified(gomock.Any(), s.user.ID).Return(nil, errors.New("db down"))

	cred, err := s.service.Issue(s.ctx, s.user.ID, s.issueRequest())
	s.Require().NoError(err)
	s.NotEmpty(cred.ID)
}

func (s *ServiceSuite) TestListAndGet() {
	cred := s.issue(s.issueRequest())

	later := requestcontext.WithTime(context.Background(), s.now.AddDate(2, 0, 0))
	listing, err := s.service.List(later, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(listing, 1)
	s.False(listing[0].Valid)
	s.Equal(models.StatusExpired, listing[0].Status)

	got, err := s.service.Get(s.ctx, s.user.ID, cred.ID)
	s.Require().NoError(err)
	s.Equal(cred.ID, got.ID)

	_, err = s.service.Get(s.ctx, id.NewUserID(), cred.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Get(s.ctx, s.user.ID, "cred_missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRevoke() {
	cred := s.issue(s.issueRequest())

	revoked, err := s.service.Revoke(s.ctx, s.user.ID, cred.ID, &models.RevokeRequest{Reason: models.DefaultRevocationReason})
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, revoked.Status)
	s.Equal(audit.ActionCredentialRevoked, s.events.All()[1].Action)

	_, err = s.service.Revoke(s.ctx, s.user.ID, cred.ID, &models.RevokeRequest{Reason: "again"})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))

	res, err := s.service.VerifyByHash(s.ctx, cred.Hash)
	s.Require().NoError(err)
	s.False(res.Verified)
	s.Equal(models.StatusRevoked, res.Credential.Status)
}

func (s *ServiceSuite) TestVerifyByHash() {
	cred := s.issue(s.issueRequest("fullName", "isOver18"))

	s.Run("valid credential is verified and usage recorded", func() {
		res, err := s.service.VerifyByHash(s.ctx, " "+cred.Hash+" ")
		s.Require().NoError(err)
		s.True(res.Verified)
		s.Equal(map[models.ClaimKey]any{models.ClaimFullName: "Jane Doe", models.ClaimIsOver18: true}, res.Credential.Claims)
		s.Equal(cred.Subject.DID, res.Credential.SubjectDID)

		s.service.Wait()
		stored, err := s.store.FindByID(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal(1, stored.Usage.VerifyCount)
	})

	s.Run("expired credential is reported unverified without usage", func() {
		later := requestcontext.WithTime(context.Background(), cred.ExpiresAt)
		res, err := s.service.VerifyByHash(later, cred.Hash)
		s.Require().NoError(err)
		s.False(res.Verified)
		s.Equal(models.StatusExpired, res.Credential.Status)

		s.service.Wait()
		stored, err := s.store.FindByID(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal(1, stored.Usage.VerifyCount)
	})

	s.Run("malformed hash is a validation error", func() {
		_, err := s.service.VerifyByHash(s.ctx, "not-a-hash")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown hash is not found", func() {
		_, err := s.service.VerifyByHash(s.ctx, "0000000000000000000000000000000000000000000000000000000000000000")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// tamperedStore returns a credential whose claims were altered after hashing.
type tamperedStore struct {
	Store
	cred *models.Credential
}

func (t tamperedStore) FindByHash(context.Context, string) (*models.Credential, error) {
	c := t.cred.Clone()
	c.Claims.FullName = ptr("Mallory")
	return c, nil
}

func (s *ServiceSuite) TestVerifyByHashDetectsTampering() {
	cred := s.issue(s.issueRequest())
	s.service.store = tamperedStore{Store: s.store, cred: cred}

	_, err := s.service.VerifyByHash(s.ctx, cred.Hash)
	s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
}

type failingLedger struct{ Ledger }

func (failingLedger) RecordVerify(context.Context, string, time.Time) error {
	return fmt.Errorf("update credential usage: %w", sentinel.ErrUnavailable)
}

func (s *ServiceSuite) TestUsageWriteFailureIsSwallowed() {
	cred := s.issue(s.issueRequest())
	s.service.ledger = failingLedger{Ledger: s.service.ledger}

	res, err := s.service.VerifyByHash(s.ctx, cred.Hash)
	s.Require().NoError(err)
	s.True(res.Verified)
}

func (s *ServiceSuite) TestShare() {
	cred := s.issue(s.issueRequest())

	res, err := s.service.Share(s.ctx, s.user.ID, cred.ID)
	s.Require().NoError(err)
	s.Equal(VerifyPathPrefix+cred.Hash, res.VerifyPath)
	s.Equal(1, res.ShareCount)

	s.service.Wait()
	stored, err := s.store.FindByID(s.ctx, cred.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.Usage.ShareCount)

	_, err = s.service.Revoke(s.ctx, s.user.ID, cred.ID, &models.RevokeRequest{Reason: "x"})
	s.Require().NoError(err)
	_, err = s.service.Share(s.ctx, s.user.ID, cred.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestAnchor() {
	cred := s.issue(s.issueRequest())
	hash := common.HexToHash(cred.Hash)
	txHash := "0x" + cred.Hash

	s.Run("prepare builds calldata for the holder wallet", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().PrepareIssueCredential(hash, s.user.WalletAddress.Address(), cred.ExpiresAt).
			Return(&registry.PreparedTx{To: "0x5FbDB2315678afecb367f032d93F642f64180aa3", Method: registry.MethodIssueCredential}, nil)

		tx, err := s.service.PrepareAnchor(s.ctx, s.user.ID, cred.ID)
		s.Require().NoError(err)
		s.Equal(s.user.WalletAddress.String(), tx.WalletAddress)
	})

	s.Run("confirm before the hash is on chain is not yet confirmed", func() {
		s.registry.EXPECT().VerifyCredential(gomock.Any(), hash).Return(false, nil)
		_, err := s.service.ConfirmAnchor(s.ctx, s.user.ID, cred.ID, txHash)
		s.True(dErrors.HasCode(err, dErrors.CodeNotYetConfirmed))
	})

	s.Run("confirm before the receipt is mined is not yet confirmed", func() {
		s.registry.EXPECT().VerifyCredential(gomock.Any(), hash).Return(true, nil)
		s.registry.EXPECT().Receipt(gomock.Any(), common.HexToHash(txHash)).
			Return(nil, fmt.Errorf("transaction not mined: %w", sentinel.ErrNotFound))
		_, err := s.service.ConfirmAnchor(s.ctx, s.user.ID, cred.ID, txHash)
		s.True(dErrors.HasCode(err, dErrors.CodeNotYetConfirmed))
	})

	s.Run("chain outage surfaces as transient", func() {
		s.registry.EXPECT().VerifyCredential(gomock.Any(), hash).
			Return(false, dErrors.New(dErrors.CodeUnavailable, "chain registry unavailable"))
		_, err := s.service.ConfirmAnchor(s.ctx, s.user.ID, cred.ID, txHash)
		s.True(dErrors.IsTransient(err))
	})

	s.Run("confirm records the anchoring", func() {
		s.registry.EXPECT().VerifyCredential(gomock.Any(), hash).Return(true, nil)
		s.registry.EXPECT().Receipt(gomock.Any(), common.HexToHash(txHash)).
			Return(&registry.Receipt{BlockNumber: 42, Succeeded: true}, nil)
		s.registry.EXPECT().Network().Return("hardhat")
		s.registry.EXPECT().Contracts().Return(registry.Contracts{CredentialRegistry: "0x5FbDB2315678afecb367f032d93F642f64180aa3"})

		anchored, err := s.service.ConfirmAnchor(s.ctx, s.user.ID, cred.ID, txHash)
		s.Require().NoError(err)
		s.True(anchored.Blockchain.Stored)
		s.Equal(uint64(42), *anchored.Blockchain.BlockNumber)
		s.Equal("hardhat", anchored.Blockchain.Network)
		s.True(anchored.IntegrityIntact(), "anchoring never touches hashed fields")
	})

	s.Run("anchored credential is not prepared again", func() {
		_, err := s.service.PrepareAnchor(s.ctx, s.user.ID, cred.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		again, err := s.service.ConfirmAnchor(s.ctx, s.user.ID, cred.ID, txHash)
		s.Require().NoError(err)
		s.Equal(uint64(42), *again.Blockchain.BlockNumber)
	})
}

func (s *ServiceSuite) TestAnchorWithoutRegistry() {
	svc := New(s.store, ledger.New(s.store), issuer.New(), s.sessions, s.documents, s.users)
	_, err := svc.PrepareAnchor(s.ctx, s.user.ID, "cred_x")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
