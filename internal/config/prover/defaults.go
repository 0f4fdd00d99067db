package prover

import "time"

// 证明器默认配置值
const (
	defaultSRSPath          = ""
	defaultPersistSRS       = false
	defaultAllowUnsafeSetup = true

	// defaultWorkers 为 0 表示按 CPU 核数推导
	defaultWorkers           = 0
	defaultMemoryPerWorkerMB = 512

	defaultCacheKeys = true
	defaultWarmup    = true
	defaultGnarkLog  = false

	defaultTaskTimeout = 10 * time.Minute

	defaultResultCache    = true
	defaultResultCacheTTL = 10 * time.Minute

	defaultResultCacheEntries = 1024
	defaultResultCacheMaxMB   = 64

	// DefaultProfileName hard_fork_name 未命中时使用的档案
	DefaultProfileName = "default"

	defaultChunkWidth = 2
	defaultBatchWidth = 8

	// MaxWidth 单个电路允许的最大原像元素个数
	MaxWidth = 64
)
