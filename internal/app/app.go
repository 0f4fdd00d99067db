// Package app 组装证明服务的各个模块
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	httpapi "github.com/weisyn/poseidon-prover/internal/api/http"
	"github.com/weisyn/poseidon-prover/internal/config"
	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	configiface "github.com/weisyn/poseidon-prover/pkg/interfaces/config"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// LoadConfig 读取 JSON 配置文件，path 为空时返回 nil（全部使用默认值）
func LoadConfig(path string) (*types.AppConfig, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	if appConfig.DataDir != nil && *appConfig.DataDir != "" {
		if err := os.MkdirAll(*appConfig.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	return &appConfig, nil
}

// New 构建 fx 应用
func New(opts ...Option) (*fx.App, error) {
	o := newOptions(opts...)
	if o.appConfig == nil && o.configFilePath != "" {
		appConfig, err := LoadConfig(o.configFilePath)
		if err != nil {
			return nil, err
		}
		o.appConfig = appConfig
	}

	modules := []fx.Option{
		fx.Provide(func() configiface.AppOptions { return o }),
		config.Module(),
		corelog.Module(),
		metrics.Module(),
		zkproof.Module(),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger}
			l.UseLogLevel(zap.DebugLevel)
			return l
		}),
	}
	if o.enableAPI {
		modules = append(modules, httpapi.Module())
	}

	return fx.New(modules...), nil
}

// Run 启动应用并阻塞到收到退出信号
func Run(opts ...Option) error {
	application, err := New(opts...)
	if err != nil {
		return err
	}
	if err := application.Err(); err != nil {
		return fmt.Errorf("组装应用失败: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	// 模块内部（如公共参数获取失败）可通过 fx.Shutdowner 主动关闭应用
	exitCode := 0
	select {
	case <-sig:
	case shutdown := <-application.Wait():
		exitCode = shutdown.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("应用异常退出: exit_code=%d", exitCode)
	}
	return nil
}
