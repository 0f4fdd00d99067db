package config

import (
	"github.com/weisyn/poseidon-prover/internal/config/api"
	"github.com/weisyn/poseidon-prover/internal/config/log"
	"github.com/weisyn/poseidon-prover/internal/config/prover"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/config"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者，appConfig 可以为 nil
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	if p.appConfig != nil && p.appConfig.Log != nil {
		userLogConfig = p.appConfig.Log
	}
	return log.New(userLogConfig).GetOptions()
}

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions {
	var userAPIConfig *types.UserAPIConfig
	if p.appConfig != nil && p.appConfig.API != nil {
		userAPIConfig = p.appConfig.API
	}
	return api.New(userAPIConfig).GetOptions()
}

// GetProver 获取证明器配置
func (p *Provider) GetProver() *prover.ProverOptions {
	var userProverConfig *types.UserProverConfig
	if p.appConfig != nil && p.appConfig.Prover != nil {
		userProverConfig = p.appConfig.Prover
	}
	return prover.New(userProverConfig).GetOptions()
}
