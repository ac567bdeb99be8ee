package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

func TestInMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUserStore()
	wallet := id.WalletAddress("0x71c7656ec7ab88b098defb751b7401b5f6d8976f")
	user := models.NewUser(wallet, time.Now())

	require.NoError(t, s.Save(ctx, user))

	t.Run("duplicate wallet conflicts", func(t *testing.T) {
		err := s.Save(ctx, models.NewUser(wallet, time.Now()))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("lookups return copies", func(t *testing.T) {
		found, err := s.FindByWallet(ctx, wallet)
		require.NoError(t, err)
		found.LoginCount = 99

		again, err := s.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, again.LoginCount)
	})

	t.Run("execute aborts on validation error", func(t *testing.T) {
		stop := errors.New("stop")
		_, err := s.Execute(ctx, user.ID, func(*models.User) error { return stop }, func(u *models.User) { u.LoginCount = 5 })
		assert.ErrorIs(t, err, stop)

		again, err := s.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, again.LoginCount)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.FindByID(ctx, id.NewUserID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
