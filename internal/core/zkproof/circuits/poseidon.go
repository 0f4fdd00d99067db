package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// ============================================================================
// Poseidon2 哈希电路
// ============================================================================
//
// 🎯 **设计目的**：
// 证明者持有原像 (Preimage)，公开其 Poseidon2 摘要 (Digest)，
// 电路约束 Poseidon2_MD(Preimage) == Digest，原像本身不公开。
//
// ⚠️ **注意**：
// - 哈希采用 Merkle–Damgård 构造，逐元素压缩
// - Poseidon2 参数依赖 BLS12-377 标量域
// - 电路形状只由 Preimage 长度决定
//
// ============================================================================

// PoseidonHasher Poseidon2 电路内哈希器
type PoseidonHasher struct {
	api frontend.API
}

// NewPoseidonHasher 创建Poseidon2哈希器
func NewPoseidonHasher(api frontend.API) *PoseidonHasher {
	return &PoseidonHasher{api: api}
}

// Hash 计算任意个域元素的 Poseidon2 摘要
//
// 每次调用都创建新的 hasher，hasher 是有状态的。
func (h *PoseidonHasher) Hash(values ...frontend.Variable) (frontend.Variable, error) {
	hasher, err := poseidon2.NewMerkleDamgardHasher(h.api)
	if err != nil {
		return nil, fmt.Errorf("创建Poseidon2哈希器失败: %w", err)
	}
	hasher.Write(values...)
	return hasher.Sum(), nil
}

// PoseidonCircuit 原像知识证明电路
type PoseidonCircuit struct {
	// Preimage 私有原像
	Preimage []frontend.Variable
	// Digest 公开摘要
	Digest frontend.Variable `gnark:",public"`
}

// NewPoseidonCircuit 创建指定宽度的空电路（用于编译）
func NewPoseidonCircuit(width int) *PoseidonCircuit {
	return &PoseidonCircuit{
		Preimage: make([]frontend.Variable, width),
	}
}

// Define 定义电路约束
func (c *PoseidonCircuit) Define(api frontend.API) error {
	if len(c.Preimage) == 0 {
		return fmt.Errorf("原像不能为空")
	}

	digest, err := NewPoseidonHasher(api).Hash(c.Preimage...)
	if err != nil {
		return err
	}
	api.AssertIsEqual(digest, c.Digest)
	return nil
}
