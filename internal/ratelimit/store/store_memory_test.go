package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifyx/internal/ratelimit/models"
	"verifyx/pkg/requestcontext"
	"verifyx/pkg/testutil"
)

var policy = models.Policy{Requests: 3, Window: time.Minute}

func at(base time.Time, d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), base.Add(d))
}

func TestInMemoryStoreWindow(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		res, err := s.Allow(at(base, time.Duration(i)*time.Second), "ip:1", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3-i, res.Remaining)
	}

	res, err := s.Allow(at(base, 10*time.Second), "ip:1", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 51, res.RetryAfter)
	assert.Equal(t, base.Add(61*time.Second), res.ResetAt)

	t.Run("other keys are independent", func(t *testing.T) {
		res, err := s.Allow(at(base, 10*time.Second), "ip:2", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window resets", func(t *testing.T) {
		res, err := s.Allow(at(base, 62*time.Second), "ip:1", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})
}

func TestInMemoryStoreSweepsLapsedWindows(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := s.Allow(at(base, 0), fmt.Sprintf("ip:%d", i), policy)
		require.NoError(t, err)
	}
	require.Equal(t, 5, s.Len())

	_, err := s.Allow(at(base, 2*time.Minute), "ip:new", policy)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStoreReset(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for range 3 {
		_, _ = s.Allow(ctx, "k", policy)
	}
	require.NoError(t, s.Reset(ctx, "k"))
	res, err := s.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestInMemoryStoreConcurrentExhaustion(t *testing.T) {
	s := NewInMemoryStore()
	ctx := requestcontext.WithTime(context.Background(), time.Now())
	limit := models.Policy{Requests: 10, Window: time.Minute}

	result := testutil.RunConcurrent(50, func(int) error {
		res, err := s.Allow(ctx, "shared", limit)
		if err != nil {
			return err
		}
		if !res.Allowed {
			return errRejected
		}
		return nil
	})
	assert.Equal(t, int32(10), result.Successes)
	assert.Equal(t, int32(40), result.Errors)
}

var errRejected = errors.New("rejected")
