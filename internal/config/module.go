// Package config 提供应用配置管理功能
package config

import (
	"github.com/weisyn/poseidon-prover/internal/config/prover"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/config"
	"github.com/weisyn/poseidon-prover/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			func(provider config.Provider) *prover.ProverOptions {
				return provider.GetProver()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}
