package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

func newVKCmd() *cobra.Command {
	var (
		proofType uint64
		hardFork  string
		out       string
	)

	cmd := &cobra.Command{
		Use:   "vk",
		Short: "导出电路形状的验证密钥",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("必须指定 --out")
			}

			options, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			options.Warmup = false
			defer logger.Sync()

			manager := zkproof.Assemble(logger, options)
			ctx := context.Background()
			if err := manager.Start(ctx); err != nil {
				return err
			}
			defer manager.Stop()

			kp, err := manager.VerifyingKey(ctx, types.ProofTypeFromCode(proofType), hardFork)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, kp.VKBytes, 0644); err != nil {
				return fmt.Errorf("写入验证密钥失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shape=%s bytes=%d blake2b=%s\n", kp.Shape, len(kp.VKBytes), kp.VKDigest)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&proofType, "type", 1, "证明类型：1=chunk, 2=batch")
	cmd.Flags().StringVar(&hardFork, "hard-fork", "", "hard_fork_name")
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件")
	return cmd
}
