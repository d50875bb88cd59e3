package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelance-market/internal/core/cache"
	"freelance-market/internal/domain"
)

func TestAverageFor_CachedAndInvalidatedByRate(t *testing.T) {
	e := defaultEnv(t)
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	e.reputation = NewReputationService(e.repos, c, time.Minute, zap.NewNop())
	e.registry.reputation = e.reputation
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")

	first := e.completed(t, a.ID, b.ID, 10)
	second := e.completed(t, a.ID, b.ID, 10)

	require.NoError(t, e.registry.Rate(ctx, first.ID, a.ID, 5))
	avg, err := e.reputation.AverageFor(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{Rating: 5, Count: 1}, avg)
	assert.True(t, mr.Exists(ratingKey(b.ID)))

	require.NoError(t, e.registry.Rate(ctx, second.ID, a.ID, 4))
	assert.False(t, mr.Exists(ratingKey(b.ID)), "rate drops the cached summary")

	avg, err = e.reputation.AverageFor(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{Rating: 4.5, Count: 2}, avg)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 4.3, round1(13.0/3))
	assert.Equal(t, 4.7, round1(14.0/3))
	assert.Equal(t, 2.5, round1(2.45000001))
	assert.Equal(t, 0.0, round1(0))
}
