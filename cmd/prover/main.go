// Command poseidon-prover 运行 Poseidon2 PLONK 证明服务
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/poseidon-prover/internal/app"
	"github.com/weisyn/poseidon-prover/internal/config"
	logconfig "github.com/weisyn/poseidon-prover/internal/config/log"
	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath string // 配置文件路径
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "poseidon-prover",
	Short: "Poseidon2 哈希原像的 PLONK 证明服务",
	Long: `poseidon-prover 接收证明任务，为 Poseidon2 哈希原像生成 PLONK 证明（BLS12-377 / KZG）。

每个证明在返回前都经过自验证；任何阶段失败都以 ProofDetail.error 报告。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "JSON 配置文件路径 (默认全部使用内置默认值)")

	rootCmd.AddCommand(
		newServeCmd(),
		newProveCmd(),
		newSampleCmd(),
		newVKCmd(),
		newVersionCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime 读取配置并创建日志器（不经 fx）
func loadRuntime() (*proverconfig.ProverOptions, log.Logger, error) {
	appConfig, err := app.LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	provider := config.NewProvider(appConfig)

	logger, err := corelog.New(logconfig.FromOptions(provider.GetLog()))
	if err != nil {
		return nil, nil, fmt.Errorf("创建日志记录器失败: %w", err)
	}
	corelog.SetLogger(logger)
	return provider.GetProver(), logger, nil
}
