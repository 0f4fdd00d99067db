package metrics

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module 提供 MemoryDoctor 并挂载生命周期
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(func(logger *zap.Logger) *MemoryDoctor {
			return NewMemoryDoctor(DefaultMemoryDoctorConfig(), logger.With(zap.String("module", "metrics")))
		}),
		fx.Invoke(StartMemoryDoctor),
	)
}

// StartMemoryDoctor 启动 MemoryDoctor 的生命周期管理
func StartMemoryDoctor(lifecycle fx.Lifecycle, doctor *MemoryDoctor) {
	// OnStart 的 ctx 在钩子返回后即失效，采样循环使用独立的 ctx
	ctx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				doctor.SampleOnce()
				doctor.Start(ctx)
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
