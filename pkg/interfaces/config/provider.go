// Package config provides configuration provider interfaces.
package config

import (
	apiconfig "github.com/weisyn/poseidon-prover/internal/config/api"
	logconfig "github.com/weisyn/poseidon-prover/internal/config/log"
	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
)

// Provider 配置提供者接口
//
// 每次调用都返回已补齐默认值的配置选项。
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetAPI 获取API服务配置
	GetAPI() *apiconfig.APIOptions

	// GetProver 获取证明器配置
	GetProver() *proverconfig.ProverOptions
}
