package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verifyx/internal/anchor/models"
	"verifyx/internal/anchor/registry"
	"verifyx/internal/anchor/service/mocks"
	idModels "verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/platform/audit/publisher"
	auditmemory "verifyx/pkg/platform/audit/store/memory"
	"verifyx/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/anchor-mocks.go -package=mocks Users,Registry

const (
	wallet = id.WalletAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	txHash = "0x7bd4d78fa3770ae616b3e143e9c0ba821418fdc7b612c5cc292123ceb9604fc7"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	users    *mocks.MockUsers
	registry *mocks.MockRegistry
	events   *auditmemory.Store
	service  *Service
	ctx      context.Context
	now      time.Time
	user     *idModels.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUsers(s.ctrl)
	s.registry = mocks.NewMockRegistry(s.ctrl)
	s.events = auditmemory.New()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.user = idModels.NewUser(wallet, s.now)
	s.service = New(s.users, s.registry, WithAuditor(publisher.New(s.events)))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) registered() *idModels.User {
	u := *s.user
	u.ConfirmRegistration("0x02abc", string(wallet), txHash, s.now)
	u.MarkVerified(s.now)
	return &u
}

func (s *ServiceSuite) TestPrepare() {
	s.Run("returns calldata for the caller wallet", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(false, nil)
		s.registry.EXPECT().PrepareRegisterDID("0x02abc").
			Return(&registry.PreparedTx{To: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512", Method: registry.MethodRegisterDID}, nil)

		tx, err := s.service.Prepare(s.ctx, s.user.ID, "0x02abc")
		s.Require().NoError(err)
		s.Equal(string(wallet), tx.WalletAddress)
	})

	s.Run("off-chain flag set is already registered", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.registered(), nil)
		_, err := s.service.Prepare(s.ctx, s.user.ID, "0x02abc")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	})

	s.Run("registry holding the DID syncs the cache", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(true, nil)
		s.users.EXPECT().SyncDIDRegistered(gomock.Any(), s.user.ID).Return(s.registered(), nil)

		_, err := s.service.Prepare(s.ctx, s.user.ID, "0x02abc")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("registry outage is transient", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).
			Return(false, dErrors.New(dErrors.CodeUnavailable, "chain registry unavailable"))
		_, err := s.service.Prepare(s.ctx, s.user.ID, "0x02abc")
		s.True(dErrors.IsTransient(err))
	})
}

func (s *ServiceSuite) TestConfirm() {
	s.Run("pending transaction is not yet confirmed", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(false, nil)
		_, err := s.service.Confirm(s.ctx, s.user.ID, txHash)
		s.True(dErrors.HasCode(err, dErrors.CodeNotYetConfirmed))
		s.Empty(s.events.All())
	})

	s.Run("copies registry fields into the user record", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(true, nil)
		s.registry.EXPECT().GetDID(gomock.Any(), wallet.Address()).Return(&registry.DIDDocument{
			Controller: common.HexToAddress(string(wallet)),
			PublicKey:  "0x02abc",
			CreatedAt:  s.now,
			IsActive:   true,
		}, nil)
		s.users.EXPECT().ConfirmDIDRegistration(gomock.Any(), s.user.ID, "0x02abc", string(wallet), txHash).Return(s.registered(), nil)

		reg, err := s.service.Confirm(s.ctx, s.user.ID, txHash)
		s.Require().NoError(err)
		s.Equal("did:ethr:"+string(wallet), reg.DID)
		s.Equal(string(wallet), reg.Controller)
		s.Require().NotNil(reg.RegisteredAt)

		events := s.events.All()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionDIDRegistered, events[0].Action)
		s.Equal(txHash, events[0].Attributes["tx_hash"])
	})
}

func (s *ServiceSuite) TestPrepareUpdateAndDeactivate() {
	s.Run("unverified user is forbidden", func() {
		u := *s.user
		u.ConfirmRegistration("0x02abc", string(wallet), txHash, s.now)
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(&u, nil)
		_, err := s.service.PrepareUpdate(s.ctx, s.user.ID, "0x03def")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unregistered DID is a conflict", func() {
		u := *s.user
		u.MarkVerified(s.now)
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(&u, nil)
		_, err := s.service.PrepareDeactivate(s.ctx, s.user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("registered and verified", func() {
		s.users.EXPECT().Get(gomock.Any(), s.user.ID).Return(s.registered(), nil).Times(2)
		s.registry.EXPECT().PrepareUpdateDID("0x03def").Return(&registry.PreparedTx{Method: registry.MethodUpdateDID}, nil)
		s.registry.EXPECT().PrepareDeactivateDID().Return(&registry.PreparedTx{Method: registry.MethodDeactivateDID}, nil)

		tx, err := s.service.PrepareUpdate(s.ctx, s.user.ID, "0x03def")
		s.Require().NoError(err)
		s.Equal(registry.MethodUpdateDID, tx.Method)

		tx, err = s.service.PrepareDeactivate(s.ctx, s.user.ID)
		s.Require().NoError(err)
		s.Equal(registry.MethodDeactivateDID, tx.Method)
		s.Equal(string(wallet), tx.WalletAddress)
	})
}

func (s *ServiceSuite) TestLookup() {
	mixedCase := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	s.Run("invalid address", func() {
		_, err := s.service.Lookup(s.ctx, "0x1234")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("on-chain document wins", func() {
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(true, nil)
		s.registry.EXPECT().GetDID(gomock.Any(), wallet.Address()).Return(&registry.DIDDocument{
			Controller: wallet.Address(), PublicKey: "0x02abc", CreatedAt: s.now, IsActive: true,
		}, nil)

		doc, err := s.service.Lookup(s.ctx, mixedCase)
		s.Require().NoError(err)
		s.True(doc.OnChain)
		s.Equal(models.SourceBlockchain, doc.Source)
		s.Equal("did:ethr:"+string(wallet), doc.ID)
		s.True(*doc.IsActive)
	})

	s.Run("falls back to the off-chain record", func() {
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(false, nil)
		s.users.EXPECT().FindByWallet(gomock.Any(), wallet).Return(s.user, nil)

		doc, err := s.service.Lookup(s.ctx, mixedCase)
		s.Require().NoError(err)
		s.False(doc.OnChain)
		s.Equal(models.SourceDatabase, doc.Source)
		s.Equal("unregistered", doc.Status)
	})

	s.Run("unknown everywhere is not found", func() {
		s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(false, nil)
		s.users.EXPECT().FindByWallet(gomock.Any(), wallet).
			Return(nil, dErrors.Wrap(fmt.Errorf("user: %w", sentinel.ErrNotFound), dErrors.CodeNotFound, "user not found"))

		_, err := s.service.Lookup(s.ctx, mixedCase)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCheck() {
	s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(true, nil)
	got, err := s.service.Check(s.ctx, "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
	s.Require().NoError(err)
	s.True(got.HasDID)
	s.Equal(string(wallet), got.Address)
	s.Require().NotNil(got.DID)
	s.Equal("did:ethr:"+string(wallet), *got.DID)

	s.registry.EXPECT().HasDID(gomock.Any(), wallet.Address()).Return(false, nil)
	got, err = s.service.Check(s.ctx, string(wallet))
	s.Require().NoError(err)
	s.Nil(got.DID)
}

func (s *ServiceSuite) TestStatus() {
	s.registry.EXPECT().Status(gomock.Any()).Return(registry.NetworkStatus{Connected: false, Error: "dial tcp: connection refused"})
	st := s.service.Status(s.ctx)
	s.False(st.Connected)
}
