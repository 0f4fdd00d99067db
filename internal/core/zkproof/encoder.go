package zkproof

import (
	"encoding/base64"
	"fmt"

	"github.com/weisyn/poseidon-prover/pkg/types"
)

// Encoder 组装响应信封
//
// 证明字节使用标准 base64（带填充）编码。
type Encoder struct{}

// NewEncoder 创建编码器
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Success 成功信封：proof_data 非空，error 为空
func (e *Encoder) Success(task *types.Task, proofBytes []byte) *types.ProofDetail {
	return &types.ProofDetail{
		ID:        task.ID,
		Type:      task.Type,
		ProofData: base64.StdEncoding.EncodeToString(proofBytes),
	}
}

// Failure 失败信封：proof_data 为空，error 为阶段诊断
func (e *Encoder) Failure(task *types.Task, err error) *types.ProofDetail {
	return &types.ProofDetail{
		ID:    task.ID,
		Type:  task.Type,
		Error: err.Error(),
	}
}

// DecodeProofData 还原 proof_data 中的证明字节
func DecodeProofData(proofData string) ([]byte, error) {
	if proofData == "" {
		return nil, fmt.Errorf("proof_data 为空")
	}
	b, err := base64.StdEncoding.DecodeString(proofData)
	if err != nil {
		return nil, fmt.Errorf("proof_data 不是合法的 base64: %w", err)
	}
	return b, nil
}
