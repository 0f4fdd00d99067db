package zkproof

import (
	"bytes"
	"fmt"
	"hash"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
)

// CurveID 证明使用的曲线（Poseidon2 参数依赖 BLS12-377 标量域）
const CurveID = ecc.BLS12_377

// ============================================================================
// 证明方案抽象
// ============================================================================
//
// 🎯 **设计目的**：
// 流水线只依赖 ProvingScheme 接口，具体的证明系统（PLONK + KZG）
// 封装在实现中；测试可以替换为记录调用的实现。
//
// ⚠️ **注意**：
// - Fiat–Shamir 挑战统一使用 BLAKE2b-256，证明与验证必须一致
// - 每次证明/验证都使用新的哈希实例，哈希状态不跨调用共享
//
// ============================================================================

// ProvingScheme 证明方案接口
type ProvingScheme interface {
	// SchemeName 方案名称
	SchemeName() string

	// Compile 将电路编译为约束系统
	Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error)

	// Setup 由约束系统与 SRS 生成密钥对
	Setup(ccs constraint.ConstraintSystem, srs, srsLagrange kzg.SRS) (ProvingKey, VerifyingKey, error)

	// Prove 生成证明
	Prove(ccs constraint.ConstraintSystem, pk ProvingKey, fullWitness witness.Witness) (Proof, error)

	// Verify 验证证明
	Verify(proof Proof, vk VerifyingKey, publicWitness witness.Witness) error

	SerializeProof(proof Proof) ([]byte, error)
	DeserializeProof(data []byte) (Proof, error)

	SerializeVerifyingKey(vk VerifyingKey) ([]byte, error)
	DeserializeVerifyingKey(data []byte) (VerifyingKey, error)
}

// Proof 证明（由具体方案解释）
type Proof interface{}

// ProvingKey 证明密钥（由具体方案解释）
type ProvingKey interface{}

// VerifyingKey 验证密钥（由具体方案解释）
type VerifyingKey interface{}

// PlonKScheme PLONK + KZG 证明方案
type PlonKScheme struct {
	logger log.Logger
}

// NewPlonKScheme 创建PlonK方案
func NewPlonKScheme(logger log.Logger) *PlonKScheme {
	return &PlonKScheme{
		logger: logger,
	}
}

// SchemeName 返回方案名称
func (s *PlonKScheme) SchemeName() string {
	return "plonk"
}

// Compile 使用稀疏约束系统构建器编译电路
func (s *PlonKScheme) Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(CurveID.ScalarField(), scs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("PlonK 电路编译失败: %w", err)
	}
	return ccs, nil
}

// Setup 生成PlonK密钥对
func (s *PlonKScheme) Setup(ccs constraint.ConstraintSystem, srs, srsLagrange kzg.SRS) (ProvingKey, VerifyingKey, error) {
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, nil, fmt.Errorf("PlonK Setup失败: %w", err)
	}
	return pk, vk, nil
}

// Prove 生成PlonK证明，盲化因子由 gnark 从 crypto/rand 获取
func (s *PlonKScheme) Prove(ccs constraint.ConstraintSystem, provingKey ProvingKey, fullWitness witness.Witness) (Proof, error) {
	plonkPk, ok := provingKey.(plonk.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("无效的PlonK证明密钥类型: %T", provingKey)
	}

	h, err := newTranscriptHash()
	if err != nil {
		return nil, err
	}
	proof, err := plonk.Prove(ccs, plonkPk, fullWitness, backend.WithProverChallengeHashFunction(h))
	if err != nil {
		return nil, fmt.Errorf("PlonK Prove失败: %w", err)
	}
	return proof, nil
}

// Verify 验证PlonK证明
func (s *PlonKScheme) Verify(proof Proof, verifyingKey VerifyingKey, publicWitness witness.Witness) error {
	plonkProof, ok := proof.(plonk.Proof)
	if !ok {
		return fmt.Errorf("无效的PlonK证明类型: %T", proof)
	}
	vk, ok := verifyingKey.(plonk.VerifyingKey)
	if !ok {
		return fmt.Errorf("无效的PlonK验证密钥类型: %T", verifyingKey)
	}

	h, err := newTranscriptHash()
	if err != nil {
		return err
	}
	return plonk.Verify(plonkProof, vk, publicWitness, backend.WithVerifierChallengeHashFunction(h))
}

// SerializeProof 序列化证明（压缩点编码）
func (s *PlonKScheme) SerializeProof(proof Proof) ([]byte, error) {
	plonkProof, ok := proof.(plonk.Proof)
	if !ok {
		return nil, fmt.Errorf("无效的PlonK证明类型: %T", proof)
	}

	var buf bytes.Buffer
	if _, err := plonkProof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("序列化PlonK证明失败: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeProof 反序列化证明
func (s *PlonKScheme) DeserializeProof(data []byte) (Proof, error) {
	proof := plonk.NewProof(CurveID)
	if _, err := proof.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("反序列化PlonK证明失败: %w", err)
	}
	return proof, nil
}

// SerializeVerifyingKey 序列化验证密钥
func (s *PlonKScheme) SerializeVerifyingKey(vk VerifyingKey) ([]byte, error) {
	plonkVk, ok := vk.(plonk.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("无效的PlonK验证密钥类型: %T", vk)
	}

	var buf bytes.Buffer
	if _, err := plonkVk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("序列化PlonK验证密钥失败: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeVerifyingKey 反序列化验证密钥
func (s *PlonKScheme) DeserializeVerifyingKey(data []byte) (VerifyingKey, error) {
	vk := plonk.NewVerifyingKey(CurveID)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("反序列化PlonK验证密钥失败: %w", err)
	}
	return vk, nil
}

// newTranscriptHash 创建 Fiat–Shamir 挑战哈希
func newTranscriptHash() (hash.Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("创建BLAKE2b哈希失败: %w", err)
	}
	return h, nil
}
