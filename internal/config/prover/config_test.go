package prover

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestNew_Defaults(t *testing.T) {
	opts := New(nil).GetOptions()

	assert.True(t, opts.AllowUnsafeSetup)
	assert.True(t, opts.CacheKeys)
	assert.Equal(t, runtime.NumCPU(), opts.Workers)
	assert.Equal(t, 10*time.Minute, opts.TaskTimeout)
	assert.Equal(t, 1024, opts.ResultCacheEntries)
	assert.Equal(t, 64, opts.ResultCacheMaxMB)

	p, name := opts.Profile("")
	assert.Equal(t, DefaultProfileName, name)
	assert.Equal(t, CircuitProfile{ChunkWidth: 2, BatchWidth: 8}, p)
}

func TestNew_UserOverrides(t *testing.T) {
	user := &types.UserProverConfig{
		SRSPath:          strPtr("/tmp/srs.bin"),
		AllowUnsafeSetup: boolPtr(false),
		Workers:          intPtr(3),
		CacheKeys:        boolPtr(false),
		TaskTimeout:      strPtr("90s"),
		ResultCacheTTL:   strPtr("not-a-duration"),
		ResultCacheMaxMB: intPtr(8),
		Profiles: map[string]types.UserCircuitProfile{
			"curie":   {BatchWidth: intPtr(16)},
			"darwin":  {ChunkWidth: intPtr(0)},
			"default": {ChunkWidth: intPtr(4)},
		},
	}
	opts := New(user).GetOptions()

	assert.Equal(t, "/tmp/srs.bin", opts.SRSPath)
	assert.False(t, opts.AllowUnsafeSetup)
	assert.Equal(t, 3, opts.Workers)
	assert.False(t, opts.CacheKeys)
	assert.Equal(t, 90*time.Second, opts.TaskTimeout)
	assert.Equal(t, 10*time.Minute, opts.ResultCacheTTL, "非法时长保持默认值")
	assert.Equal(t, 8, opts.ResultCacheMaxMB)
	assert.Equal(t, 1024, opts.ResultCacheEntries)

	curie, name := opts.Profile("curie")
	require.Equal(t, "curie", name)
	assert.Equal(t, CircuitProfile{ChunkWidth: 4, BatchWidth: 16}, curie)

	darwin, _ := opts.Profile("darwin")
	assert.Equal(t, 4, darwin.ChunkWidth, "非法宽度被忽略")

	unknown, name := opts.Profile("bernoulli")
	assert.Equal(t, DefaultProfileName, name)
	assert.Equal(t, CircuitProfile{ChunkWidth: 4, BatchWidth: 8}, unknown)
}
