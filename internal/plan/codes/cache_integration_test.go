//go:build integration

package codes_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"arho/internal/plan/codes"
	"arho/internal/plan/store"
	"arho/pkg/testutil/containers"
)

func TestRedisCacheAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	gw := store.NewInMemory()
	_, err := codes.Seed(ctx, gw, defaults)
	require.NoError(t, err)

	cache := codes.NewRedisCache(rc.Client)
	r, err := cache.Load(ctx, gw)
	require.NoError(t, err)
	require.Equal(t, len(defaults), r.Len())

	cached, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r.All(), cached.All())
}
