package zkproof

import (
	"context"

	"go.uber.org/fx"

	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
)

// ModuleInput 证明模块依赖
type ModuleInput struct {
	fx.In

	Logger  log.Logger
	Options *proverconfig.ProverOptions
}

// ModuleOutput 证明模块导出的公共接口
type ModuleOutput struct {
	fx.Out

	Handler   zkif.ProofHandler
	Readiness zkif.Readiness
	Status    zkif.StatusReporter
}

// Module 构建证明模块的 fx 配置
//
// 🔧 **使用方式**：
//
//	app := fx.New(
//	    config.Module(),
//	    log.Module(),
//	    zkproof.Module(),
//	)
func Module() fx.Option {
	return fx.Module("zkproof",
		fx.Provide(
			func(input ModuleInput) ProvingScheme {
				return NewPlonKScheme(corelog.NewModuleLogger(input.Logger, "scheme"))
			},
			func(input ModuleInput) *ShapeSelector {
				return NewShapeSelector(input.Options)
			},
			func(input ModuleInput) *ParameterManager {
				return NewParameterManager(corelog.NewModuleLogger(input.Logger, "params"), input.Options)
			},
			func(input ModuleInput, params *ParameterManager, scheme ProvingScheme) *KeyCache {
				logger := corelog.NewModuleLogger(input.Logger, "keys")
				generator := NewKeyGenerator(logger, params, scheme)
				return NewKeyCache(logger, generator, input.Options.CacheKeys)
			},
			func(input ModuleInput, selector *ShapeSelector, params *ParameterManager, keys *KeyCache, scheme ProvingScheme) *Pipeline {
				return NewPipeline(
					corelog.NewModuleLogger(input.Logger, "pipeline"),
					params,
					NewCircuitBuilder(selector),
					keys,
					scheme,
				)
			},
			func(input ModuleInput, pipeline *Pipeline) *WorkerPool {
				return NewWorkerPool(
					pipeline,
					input.Options.Workers,
					input.Options.MemoryPerWorkerMB,
					corelog.NewModuleLogger(input.Logger, "pool"),
				)
			},
			provideResultStore,
			func(input ModuleInput, selector *ShapeSelector, params *ParameterManager, keys *KeyCache, pool *WorkerPool, results zkif.ResultStore) *Manager {
				return NewManager(
					corelog.NewModuleLogger(input.Logger, "prover"),
					input.Options,
					selector,
					params,
					keys,
					pool,
					results,
				)
			},
			func(manager *Manager) ModuleOutput {
				return ModuleOutput{Handler: manager, Readiness: manager, Status: manager}
			},
		),

		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 挂载证明服务的启停钩子
//
// 公共参数无法获得时服务无法证明任何任务，启动失败会触发整个应用以退出码 1 关闭。
func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, manager *Manager, logger log.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// 公共参数生成可能耗时较长，不受 fx 启动超时约束
			go func() {
				if err := manager.Start(context.Background()); err != nil {
					logger.Errorf("❌ 证明服务启动失败，应用即将退出: %v", err)
					if serr := shutdowner.Shutdown(fx.ExitCode(1)); serr != nil {
						logger.Errorf("触发应用关闭失败: %v", serr)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("🔄 开始关闭证明服务...")
			return manager.Stop()
		},
	})
}

// provideResultStore 按配置创建结果缓存，禁用时返回 nil 接口
func provideResultStore(input ModuleInput) (zkif.ResultStore, error) {
	if !input.Options.ResultCache {
		return nil, nil
	}
	store, err := memory.New(memory.Config{
		TTL:                input.Options.ResultCacheTTL,
		MaxEntriesInWindow: input.Options.ResultCacheEntries,
		HardMaxCacheSizeMB: input.Options.ResultCacheMaxMB,
	}, corelog.NewModuleLogger(input.Logger, "results"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
