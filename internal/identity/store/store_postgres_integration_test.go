//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/internal/identity/models"
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
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	registeredAt := time.Now().UTC().Truncate(time.Millisecond)
	user := testutil.NewUserBuilder().
		WithID(testutil.TestIDs.UserID1).
		WithDIDRegistration("0xabc", registeredAt).
		Build()
	s.Require().NoError(s.store.Save(s.ctx, user))

	byID, err := s.store.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.WalletAddress, byID.WalletAddress)
	s.Equal("did:ethr:"+user.WalletAddress.String(), byID.DID)
	s.True(byID.Blockchain.DIDRegistered)
	s.Equal("0xabc", byID.Blockchain.DIDTxHash)
	s.Require().NotNil(byID.Blockchain.RegisteredAt)
	s.True(byID.Blockchain.RegisteredAt.Equal(registeredAt))

	byWallet, err := s.store.FindByWallet(s.ctx, user.WalletAddress)
	s.Require().NoError(err)
	s.Equal(user.ID, byWallet.ID)
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByWallet(s.ctx, testutil.TestIDs.Wallet2)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestWalletIsUnique() {
	s.Require().NoError(s.store.Save(s.ctx, testutil.NewTestUser(testutil.TestIDs.UserID1, testutil.TestIDs.Wallet1)))

	err := s.store.Save(s.ctx, testutil.NewTestUser(testutil.TestIDs.UserID2, testutil.TestIDs.Wallet1))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestExecute() {
	user := testutil.NewTestUser(testutil.TestIDs.UserID1, testutil.TestIDs.Wallet1)
	s.Require().NoError(s.store.Save(s.ctx, user))

	s.Run("validation failure leaves the row untouched", func() {
		_, err := s.store.Execute(s.ctx, user.ID,
			func(*models.User) error { return sentinel.ErrInvalidState },
			func(u *models.User) { u.LoginCount = 99 },
		)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		got, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Zero(got.LoginCount)
	})

	s.Run("concurrent logins are serialized", func() {
		result := testutil.RunConcurrent(20, func(int) error {
			_, err := s.store.Execute(s.ctx, user.ID,
				func(*models.User) error { return nil },
				func(u *models.User) { u.RecordLogin(time.Now().UTC()) },
			)
			return err
		})
		s.Equal(int32(20), result.Successes)

		got, err := s.store.FindByID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(20, got.LoginCount)
	})
}
