package types

// AppConfig 应用配置（对应 JSON 配置文件）
//
// 所有字段使用指针类型，以区分"用户未设置"(nil) 和"用户设置为零值"：
// 未设置的字段由 internal/config 下各子配置的默认值补齐。
type AppConfig struct {
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// API服务配置
	API *UserAPIConfig `json:"api,omitempty"`

	// 证明器配置
	Prover *UserProverConfig `json:"prover,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台
}

// UserAPIConfig 用户API配置
type UserAPIConfig struct {
	HTTPEnabled      *bool   `json:"http_enabled,omitempty"`       // 是否启用HTTP服务（默认true）
	HTTPHost         *string `json:"http_host,omitempty"`          // 监听地址
	HTTPPort         *int    `json:"http_port,omitempty"`          // HTTP监听端口
	HTTPReadTimeout  *string `json:"http_read_timeout,omitempty"`  // 读取超时，如 "30s"
	HTTPWriteTimeout *string `json:"http_write_timeout,omitempty"` // 写入超时，如 "15m"
	MaxRequestSize   *int    `json:"max_request_size,omitempty"`   // 最大请求体(字节)
}

// UserProverConfig 用户证明器配置
type UserProverConfig struct {
	SRSPath           *string `json:"srs_path,omitempty"`             // SRS 文件路径
	PersistSRS        *bool   `json:"persist_srs,omitempty"`          // 生成后是否写入 srs_path
	AllowUnsafeSetup  *bool   `json:"allow_unsafe_setup,omitempty"`   // 无 SRS 文件时是否允许生成测试用 SRS
	Workers           *int    `json:"workers,omitempty"`              // 证明工作线程数
	MemoryPerWorkerMB *int    `json:"memory_per_worker_mb,omitempty"` // 单个工作线程的内存预算(MB)
	CacheKeys         *bool   `json:"cache_keys,omitempty"`           // 是否按电路形状缓存密钥
	Warmup            *bool   `json:"warmup,omitempty"`               // 启动时预生成全部形状的密钥
	TaskTimeout       *string `json:"task_timeout,omitempty"`         // 单任务超时，如 "10m"
	GnarkLog          *bool   `json:"gnark_log,omitempty"`            // 是否输出 gnark 内部日志
	ResultCache       *bool   `json:"result_cache,omitempty"`         // 是否缓存成功结果（按 uuid 去重）
	ResultCacheTTL    *string `json:"result_cache_ttl,omitempty"`     // 结果缓存有效期，如 "10m"

	ResultCacheEntries *int `json:"result_cache_entries,omitempty"` // 结果缓存预分配条目数
	ResultCacheMaxMB   *int `json:"result_cache_max_mb,omitempty"`  // 结果缓存内存上限(MB)

	// Profiles 按 hard_fork_name 选择电路参数，"default" 为回落档案
	Profiles map[string]UserCircuitProfile `json:"profiles,omitempty"`
}

// UserCircuitProfile 电路参数档案
type UserCircuitProfile struct {
	ChunkWidth *int `json:"chunk_width,omitempty"` // Chunk 证明的原像元素个数
	BatchWidth *int `json:"batch_width,omitempty"` // Batch 证明的原像元素个数
}
