package http

import (
	"context"

	"go.uber.org/fx"

	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/config"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
)

// ServerParams HTTP服务器依赖
type ServerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    log.Logger
	Handler   zkif.ProofHandler
	Readiness zkif.Readiness
	Status    zkif.StatusReporter `optional:"true"`
}

// Module 返回HTTP模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(ProvideServer),
		fx.Invoke(func(*Server) {}),
	)
}

// ProvideServer 创建服务器并注册生命周期钩子；配置禁用时不监听端口
func ProvideServer(params ServerParams) *Server {
	options := params.Provider.GetAPI().HTTP
	logger := corelog.NewModuleLogger(params.Logger, "http")
	server := NewServer(&options, logger, params.Handler, params.Readiness, params.Status)

	if !options.Enabled {
		logger.Info("HTTP API在配置中被禁用")
		return server
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
	return server
}
