package api

import (
	"time"

	"github.com/weisyn/poseidon-prover/pkg/types"
)

// APIOptions API服务配置选项
type APIOptions struct {
	HTTP HTTPConfig `json:"http"`
}

// HTTPConfig HTTP API配置
type HTTPConfig struct {
	Enabled bool   `json:"enabled"` // 是否启用HTTP服务
	Host    string `json:"host"`    // 监听地址
	Port    int    `json:"port"`    // 监听端口

	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`

	MaxRequestSize int `json:"max_request_size"` // 最大请求大小(字节)
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置实现
func New(userConfig *types.UserAPIConfig) *Config {
	options := createDefaultAPIOptions()
	if userConfig != nil {
		convertAndMergeUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

// GetOptions 获取API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

func createDefaultAPIOptions() *APIOptions {
	return &APIOptions{
		HTTP: HTTPConfig{
			Enabled:        defaultHTTPEnabled,
			Host:           defaultHTTPHost,
			Port:           defaultHTTPPort,
			ReadTimeout:    defaultHTTPReadTimeout,
			WriteTimeout:   defaultHTTPWriteTimeout,
			MaxRequestSize: defaultMaxRequestSize,
		},
	}
}

// convertAndMergeUserConfig 将用户配置合并到默认配置
// 指针为 nil 表示未设置，保持默认值；非法的时长字符串同样保持默认值
func convertAndMergeUserConfig(opts *APIOptions, userConfig *types.UserAPIConfig) {
	if userConfig.HTTPEnabled != nil {
		opts.HTTP.Enabled = *userConfig.HTTPEnabled
	}
	if userConfig.HTTPHost != nil && *userConfig.HTTPHost != "" {
		opts.HTTP.Host = *userConfig.HTTPHost
	}
	if userConfig.HTTPPort != nil && *userConfig.HTTPPort > 0 {
		opts.HTTP.Port = *userConfig.HTTPPort
	}
	if userConfig.HTTPReadTimeout != nil {
		if d, err := time.ParseDuration(*userConfig.HTTPReadTimeout); err == nil && d > 0 {
			opts.HTTP.ReadTimeout = d
		}
	}
	if userConfig.HTTPWriteTimeout != nil {
		if d, err := time.ParseDuration(*userConfig.HTTPWriteTimeout); err == nil && d > 0 {
			opts.HTTP.WriteTimeout = d
		}
	}
	if userConfig.MaxRequestSize != nil && *userConfig.MaxRequestSize > 0 {
		opts.HTTP.MaxRequestSize = *userConfig.MaxRequestSize
	}
}
