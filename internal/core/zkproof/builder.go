package zkproof

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/poseidon-prover/internal/core/zkproof/circuits"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// CircuitInstance 单个任务的电路实例
//
// 每个 Task 独占一个实例，流水线结束后丢弃。
type CircuitInstance struct {
	Shape        CircuitShape
	Assignment   *circuits.PoseidonCircuit
	PublicInputs []*big.Int
}

// FullWitness 构建完整见证
func (ci *CircuitInstance) FullWitness() (witness.Witness, error) {
	w, err := frontend.NewWitness(ci.Assignment, CurveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("构建见证失败: %w", err)
	}
	return w, nil
}

// PublicWitness 只包含声明的公开输入
func (ci *CircuitInstance) PublicWitness() (witness.Witness, error) {
	public := &circuits.PoseidonCircuit{
		Preimage: make([]frontend.Variable, ci.Shape.Width),
		Digest:   ci.PublicInputs[0],
	}
	for i := range public.Preimage {
		public.Preimage[i] = 0
	}
	w, err := frontend.NewWitness(public, CurveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("构建公开见证失败: %w", err)
	}
	return w, nil
}

// ============================================================================
// 电路构建器
// ============================================================================
//
// 🎯 **职责**：
// - 按 task_type / hard_fork_name 选择电路形状
// - 把 task_data 解码为域元素
// - 公开输入不在标量域内时返回 PubInputOutOfField（在任何证明计算之前）
//
// ============================================================================

// CircuitBuilder 电路构建器
type CircuitBuilder struct {
	selector *ShapeSelector
}

// NewCircuitBuilder 创建电路构建器
func NewCircuitBuilder(selector *ShapeSelector) *CircuitBuilder {
	return &CircuitBuilder{selector: selector}
}

// Build 将任务解码为电路实例
func (b *CircuitBuilder) Build(task *types.Task) (*CircuitInstance, error) {
	if !task.Type.IsDefined() {
		return nil, stageErrorf(StageDecode, "证明类型未定义，无法选择电路")
	}

	shape, err := b.selector.Select(task.Type, task.HardForkName)
	if err != nil {
		return nil, stageError(StageDecode, err)
	}

	data, err := decodeTaskData(task.TaskData)
	if err != nil {
		return nil, stageError(StageDecode, err)
	}
	if len(data.PrivateInput) != shape.Width {
		return nil, stageErrorf(StageDecode, "private_input 长度为 %d，电路 %s 需要 %d",
			len(data.PrivateInput), shape, shape.Width)
	}

	// 先完成全部语法解析，再做值域检查
	digest, err := parseFieldValue(data.PublicInput)
	if err != nil {
		return nil, stageErrorf(StageDecode, "public_input: %v", err)
	}
	preimage := make([]*big.Int, len(data.PrivateInput))
	for i, raw := range data.PrivateInput {
		v, err := parseFieldValue(raw)
		if err != nil {
			return nil, stageErrorf(StageDecode, "private_input[%d]: %v", i, err)
		}
		preimage[i] = v
	}

	if !inField(digest) {
		return nil, stageErrorf(StagePubInputOutOfField, "公开输入 %s 不在 BLS12-377 标量域内 (模数 %s)",
			digest.String(), fr.Modulus().String())
	}
	for i, v := range preimage {
		if !inField(v) {
			return nil, stageErrorf(StageDecode, "private_input[%d]=%s 不在标量域内", i, v.String())
		}
	}

	assignment := circuits.NewPoseidonCircuit(shape.Width)
	for i, v := range preimage {
		assignment.Preimage[i] = v
	}
	assignment.Digest = digest

	return &CircuitInstance{
		Shape:        shape,
		Assignment:   assignment,
		PublicInputs: []*big.Int{digest},
	}, nil
}

// decodeTaskData 解析 task_data 载荷
func decodeTaskData(raw string) (*types.TaskData, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("task_data 为空")
	}

	var data types.TaskData
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("task_data 不是合法的 JSON 对象: %w", err)
	}
	if len(bytes.TrimSpace(data.PublicInput)) == 0 || bytes.Equal(bytes.TrimSpace(data.PublicInput), []byte("null")) {
		return nil, fmt.Errorf("缺少 public_input")
	}
	return &data, nil
}

// parseFieldValue 解析整数值：JSON 数字，或十进制 / 0x 十六进制字符串
//
// 只做语法解析，不做值域检查。
func parseFieldValue(raw json.RawMessage) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("缺少数值")
	}

	var text string
	base := 10
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("非法字符串: %w", err)
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = text[1:]
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	if text == "" || strings.ContainsAny(text, "+-_") {
		return nil, fmt.Errorf("非法整数: %s", raw)
	}

	v, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, fmt.Errorf("非法整数: %s", raw)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// inField 是否位于 [0, r)
func inField(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(fr.Modulus()) < 0
}
