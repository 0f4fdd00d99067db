package api

import "time"

// API服务默认配置值
const (
	defaultHTTPEnabled = true
	defaultHTTPHost    = "0.0.0.0"
	defaultHTTPPort    = 8080

	defaultHTTPReadTimeout = 30 * time.Second

	// defaultHTTPWriteTimeout 需要覆盖一次完整的证明耗时
	defaultHTTPWriteTimeout = 15 * time.Minute

	defaultMaxRequestSize = 8 * 1024 * 1024 // 8MB
)
