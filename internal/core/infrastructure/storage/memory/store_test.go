package memory

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

func setupTestStore(t *testing.T, ttl time.Duration) *Store {
	store, err := New(Config{TTL: ttl}, corelog.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t, time.Minute)
	ctx := context.Background()

	detail := &types.ProofDetail{ID: "t1", Type: types.ProofTypeChunk, ProofData: "AAEC"}
	require.NoError(t, store.Put(ctx, "uuid-1", detail))

	got, ok, err := store.Get(ctx, "uuid-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, detail, got)
	assert.Equal(t, 1, store.Len())

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SkipsFailures(t *testing.T) {
	store := setupTestStore(t, time.Minute)
	ctx := context.Background()

	failed := &types.ProofDetail{ID: "t2", Type: types.ProofTypeBatch, Error: "WhileProve: boom"}
	require.NoError(t, store.Put(ctx, "uuid-2", failed))

	_, ok, err := store.Get(ctx, "uuid-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	store := setupTestStore(t, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", &types.ProofDetail{ID: "t", ProofData: "AA=="}))

	require.Eventually(t, func() bool {
		_, ok, _ := store.Get(ctx, "k")
		return !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStore_Close(t *testing.T) {
	store := setupTestStore(t, time.Minute)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_InvalidTTL(t *testing.T) {
	_, err := New(Config{}, corelog.NewNop())
	require.Error(t, err)
}

// TestNew_Footprint 默认配置下预分配的内存保持在 MB 级
func TestNew_Footprint(t *testing.T) {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	store, err := New(Config{TTL: 10 * time.Minute}, corelog.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runtime.ReadMemStats(&after)
	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(64<<20), "allocated %d MiB", allocated>>20)
}

// TestStore_LargeEntry 超过预估大小的结果仍可写入
func TestStore_LargeEntry(t *testing.T) {
	store, err := New(Config{TTL: time.Minute, MaxEntriesInWindow: 16, HardMaxCacheSizeMB: 1}, corelog.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	detail := &types.ProofDetail{ID: "big", Type: types.ProofTypeBatch, ProofData: strings.Repeat("A", 12*1024)}
	require.NoError(t, store.Put(ctx, "uuid-big", detail))

	got, ok, err := store.Get(ctx, "uuid-big")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, detail.ProofData, got.ProofData)
}
