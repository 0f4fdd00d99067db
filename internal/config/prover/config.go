package prover

import (
	"runtime"
	"time"

	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ProverOptions 证明器配置选项
type ProverOptions struct {
	// === 公共参数 ===
	SRSPath          string `json:"srs_path"`           // SRS 文件路径，为空时不读写文件
	PersistSRS       bool   `json:"persist_srs"`        // 生成的 SRS 是否写入 SRSPath
	AllowUnsafeSetup bool   `json:"allow_unsafe_setup"` // SRS 文件不存在时是否生成测试用 SRS

	// === 执行 ===
	Workers           int           `json:"workers"`
	MemoryPerWorkerMB int           `json:"memory_per_worker_mb"`
	TaskTimeout       time.Duration `json:"task_timeout"`

	// === 密钥 ===
	CacheKeys bool `json:"cache_keys"`
	Warmup    bool `json:"warmup"`

	GnarkLog bool `json:"gnark_log"`

	// === 结果缓存 ===
	ResultCache    bool          `json:"result_cache"`
	ResultCacheTTL time.Duration `json:"result_cache_ttl"`

	ResultCacheEntries int `json:"result_cache_entries"` // 预分配的条目数
	ResultCacheMaxMB   int `json:"result_cache_max_mb"`  // 内存上限(MB)

	Profiles map[string]CircuitProfile `json:"profiles"`
}

// CircuitProfile 一个 hard fork 对应的电路参数
type CircuitProfile struct {
	ChunkWidth int `json:"chunk_width"`
	BatchWidth int `json:"batch_width"`
}

// Config 证明器配置实现
type Config struct {
	options *ProverOptions
}

// New 创建证明器配置
func New(userConfig *types.UserProverConfig) *Config {
	options := createDefaultProverOptions()
	if userConfig != nil {
		applyUserProverConfig(options, userConfig)
	}
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	return &Config{options: options}
}

// GetOptions 获取证明器配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}

func createDefaultProverOptions() *ProverOptions {
	return &ProverOptions{
		SRSPath:           defaultSRSPath,
		PersistSRS:        defaultPersistSRS,
		AllowUnsafeSetup:  defaultAllowUnsafeSetup,
		Workers:           defaultWorkers,
		MemoryPerWorkerMB: defaultMemoryPerWorkerMB,
		TaskTimeout:       defaultTaskTimeout,
		CacheKeys:         defaultCacheKeys,
		Warmup:            defaultWarmup,
		GnarkLog:          defaultGnarkLog,
		ResultCache:       defaultResultCache,
		ResultCacheTTL:    defaultResultCacheTTL,

		ResultCacheEntries: defaultResultCacheEntries,
		ResultCacheMaxMB:   defaultResultCacheMaxMB,
		Profiles: map[string]CircuitProfile{
			DefaultProfileName: {ChunkWidth: defaultChunkWidth, BatchWidth: defaultBatchWidth},
		},
	}
}

func applyUserProverConfig(options *ProverOptions, user *types.UserProverConfig) {
	if user.SRSPath != nil {
		options.SRSPath = *user.SRSPath
	}
	if user.PersistSRS != nil {
		options.PersistSRS = *user.PersistSRS
	}
	if user.AllowUnsafeSetup != nil {
		options.AllowUnsafeSetup = *user.AllowUnsafeSetup
	}
	if user.Workers != nil {
		options.Workers = *user.Workers
	}
	if user.MemoryPerWorkerMB != nil && *user.MemoryPerWorkerMB >= 0 {
		options.MemoryPerWorkerMB = *user.MemoryPerWorkerMB
	}
	if user.CacheKeys != nil {
		options.CacheKeys = *user.CacheKeys
	}
	if user.Warmup != nil {
		options.Warmup = *user.Warmup
	}
	if user.GnarkLog != nil {
		options.GnarkLog = *user.GnarkLog
	}
	if user.TaskTimeout != nil {
		if d, err := time.ParseDuration(*user.TaskTimeout); err == nil && d > 0 {
			options.TaskTimeout = d
		}
	}
	if user.ResultCache != nil {
		options.ResultCache = *user.ResultCache
	}
	if user.ResultCacheTTL != nil {
		if d, err := time.ParseDuration(*user.ResultCacheTTL); err == nil && d > 0 {
			options.ResultCacheTTL = d
		}
	}
	if user.ResultCacheEntries != nil && *user.ResultCacheEntries > 0 {
		options.ResultCacheEntries = *user.ResultCacheEntries
	}
	if user.ResultCacheMaxMB != nil && *user.ResultCacheMaxMB > 0 {
		options.ResultCacheMaxMB = *user.ResultCacheMaxMB
	}

	// 用户档案覆盖同名默认档案，缺省的宽度沿用 default 档案
	base := options.Profiles[DefaultProfileName]
	if p, ok := user.Profiles[DefaultProfileName]; ok {
		base = mergeProfile(base, p)
		options.Profiles[DefaultProfileName] = base
	}
	for name, p := range user.Profiles {
		if name == DefaultProfileName {
			continue
		}
		options.Profiles[name] = mergeProfile(base, p)
	}
}

// mergeProfile 非法宽度（≤0 或超过 MaxWidth）被忽略
func mergeProfile(base CircuitProfile, user types.UserCircuitProfile) CircuitProfile {
	out := base
	if user.ChunkWidth != nil && validWidth(*user.ChunkWidth) {
		out.ChunkWidth = *user.ChunkWidth
	}
	if user.BatchWidth != nil && validWidth(*user.BatchWidth) {
		out.BatchWidth = *user.BatchWidth
	}
	return out
}

func validWidth(w int) bool {
	return w > 0 && w <= MaxWidth
}

// Profile 按 hard_fork_name 取档案，未命中时回落到 default 档案
func (o *ProverOptions) Profile(hardForkName string) (CircuitProfile, string) {
	if p, ok := o.Profiles[hardForkName]; ok && hardForkName != "" {
		return p, hardForkName
	}
	return o.Profiles[DefaultProfileName], DefaultProfileName
}
