package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mhamid3d/maya-usd/pkg/adapters/redis"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Contract(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	// Initialize client
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Run contract
	store := redis.NewFromClient(client)
	ports.RunLayerStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	layer := domain.NewLayerData("scratch", "scratch.usda")
	layer.Specs["/Tmp"] = domain.NewPrimSpec(domain.SpecifierDef, "Scope")

	// 1. Save
	require.NoError(t, store.Save(ctx, layer))

	// 2. Verify List (immediately)
	layers, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, layers, "scratch")

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, "scratch")
	assert.ErrorIs(t, err, domain.ErrLayerNotFound)

	// 5. Verify List (lazily cleaned up)
	// The index score is computed from time.Now(), so real time has to pass too.
	time.Sleep(1200 * time.Millisecond)

	layers, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, layers)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Custom Prefix
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err = store.Save(ctx, domain.NewLayerData("shot", "shot.usda"))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:shot"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "shot")

	loaded, err := store.Load(ctx, "shot")
	require.NoError(t, err)
	assert.NotNil(t, loaded.Specs, "empty layers load with an empty spec map")
}

func TestRedisStore_RejectsReservedIDs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client)
	ctx := context.Background()

	for _, id := range []string{"", "index", "lock:shot"} {
		err := store.Save(ctx, domain.NewLayerData(id, "bad.usda"))
		assert.Error(t, err, "id %q", id)
	}
	assert.Empty(t, mr.Keys())
}
