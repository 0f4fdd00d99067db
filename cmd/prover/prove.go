package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

func newProveCmd() *cobra.Command {
	var taskPath string

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "处理单个任务并输出 ProofDetail JSON",
		Example: `  poseidon-prover sample --type 1 > task.json
  poseidon-prover prove --task task.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := readTask(taskPath)
			if err != nil {
				return err
			}

			options, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			options.Warmup = false
			defer logger.Sync()

			manager := zkproof.Assemble(logger, options)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := manager.Start(ctx); err != nil {
				return err
			}
			defer manager.Stop()

			detail, err := manager.Handle(ctx, task)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(detail); err != nil {
				return err
			}
			if !detail.Succeeded() {
				return fmt.Errorf("证明失败: %s", detail.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&taskPath, "task", "t", "-", "任务 JSON 文件，- 表示标准输入")
	return cmd
}

// readTask 读取任务 JSON
func readTask(path string) (*types.Task, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("打开任务文件失败: %w", err)
		}
		defer f.Close()
		r = f
	}

	var task types.Task
	if err := json.NewDecoder(r).Decode(&task); err != nil {
		return nil, fmt.Errorf("解析任务失败: %w", err)
	}
	return &task, nil
}
