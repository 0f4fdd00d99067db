package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	"github.com/weisyn/poseidon-prover/internal/core/zkproof/circuits"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

func newSampleCmd() *cobra.Command {
	var (
		proofType uint64
		inputs    string
		hardFork  string
		id        string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "生成一个合法的示例任务",
		Long: `按配置的电路宽度生成示例任务，public_input 为 private_input 的 Poseidon2 摘要。

--inputs 为逗号分隔的整数（十进制或 0x 十六进制），缺省时使用 1..width。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, _, err := loadRuntime()
			if err != nil {
				return err
			}

			pt := types.ProofTypeFromCode(proofType)
			shape, err := zkproof.NewShapeSelector(options).Select(pt, hardFork)
			if err != nil {
				return err
			}

			preimage, err := parseInputs(inputs, shape.Width)
			if err != nil {
				return err
			}
			digest, err := circuits.Digest(preimage)
			if err != nil {
				return err
			}

			private := make([]string, len(preimage))
			for i, v := range preimage {
				private[i] = v.String()
			}
			data, err := json.Marshal(map[string]interface{}{
				"private_input": private,
				"public_input":  digest.String(),
			})
			if err != nil {
				return err
			}

			if id == "" {
				id = fmt.Sprintf("%s-%d", pt, shape.Width)
			}
			task := types.Task{
				UUID:         uuid.New().String(),
				ID:           id,
				Type:         pt,
				TaskData:     string(data),
				HardForkName: hardFork,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(task)
		},
	}
	cmd.Flags().Uint64Var(&proofType, "type", 1, "证明类型：1=chunk, 2=batch")
	cmd.Flags().StringVar(&inputs, "inputs", "", "逗号分隔的原像元素")
	cmd.Flags().StringVar(&hardFork, "hard-fork", "", "hard_fork_name")
	cmd.Flags().StringVar(&id, "id", "", "任务 id")
	return cmd
}

// parseInputs 解析逗号分隔的原像，数量必须等于电路宽度
func parseInputs(raw string, width int) ([]*big.Int, error) {
	if strings.TrimSpace(raw) == "" {
		out := make([]*big.Int, width)
		for i := range out {
			out[i] = big.NewInt(int64(i + 1))
		}
		return out, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != width {
		return nil, fmt.Errorf("需要 %d 个原像元素，实际 %d 个", width, len(parts))
	}
	out := make([]*big.Int, len(parts))
	for i, p := range parts {
		v, ok := new(big.Int).SetString(strings.TrimSpace(p), 0)
		if !ok {
			return nil, fmt.Errorf("第 %d 个原像元素不是整数: %q", i, p)
		}
		out[i] = v
	}
	return out, nil
}
