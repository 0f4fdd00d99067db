package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// ProofType 证明类型
//
// 线上编码为整数：
//
//	0 → Undefined
//	1 → Chunk
//	2 → Batch
//
// 任何其他整数（包括 ≥3 与负数）解码为 Undefined，不报错。
type ProofType uint8

const (
	// ProofTypeUndefined 未定义（含无法识别的编码）
	ProofTypeUndefined ProofType = 0
	// ProofTypeChunk 分块证明
	ProofTypeChunk ProofType = 1
	// ProofTypeBatch 批次证明
	ProofTypeBatch ProofType = 2
)

// ProofTypeFromCode 将线上整数编码映射为 ProofType
func ProofTypeFromCode(code uint64) ProofType {
	switch code {
	case 1:
		return ProofTypeChunk
	case 2:
		return ProofTypeBatch
	default:
		return ProofTypeUndefined
	}
}

// Code 返回线上整数编码
func (t ProofType) Code() uint8 {
	switch t {
	case ProofTypeChunk, ProofTypeBatch:
		return uint8(t)
	default:
		return 0
	}
}

// IsDefined 是否为可证明的类型
func (t ProofType) IsDefined() bool {
	return t == ProofTypeChunk || t == ProofTypeBatch
}

// String 返回可读名称
func (t ProofType) String() string {
	switch t {
	case ProofTypeChunk:
		return "chunk"
	case ProofTypeBatch:
		return "batch"
	default:
		return "undefined"
	}
}

// MarshalJSON 编码为整数
func (t ProofType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", t.Code())), nil
}

// UnmarshalJSON 从整数解码，未知整数回落为 Undefined；非整数值返回错误
func (t *ProofType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ProofTypeUndefined
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("证明类型必须为整数: %s", data)
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("证明类型必须为整数: %w", err)
	}
	n, ok := new(big.Int).SetString(num.String(), 10)
	if !ok {
		return fmt.Errorf("证明类型必须为整数: %s", num.String())
	}
	if n.Sign() < 0 || !n.IsUint64() {
		*t = ProofTypeUndefined
		return nil
	}
	*t = ProofTypeFromCode(n.Uint64())
	return nil
}

// Task 证明任务（由外部调度运行时投递）
type Task struct {
	UUID         string    `json:"uuid"`
	ID           string    `json:"id"`
	Type         ProofType `json:"type"`
	TaskData     string    `json:"task_data"`
	HardForkName string    `json:"hard_fork_name,omitempty"`
}

// ProofDetail 证明结果信封，每个 Task 对应一个
type ProofDetail struct {
	ID        string    `json:"id"`
	Type      ProofType `json:"type"`
	ProofData string    `json:"proof_data"`
	Error     string    `json:"error"`
}

// Succeeded 是否为成功结果
func (d *ProofDetail) Succeeded() bool {
	return d != nil && d.Error == "" && d.ProofData != ""
}

// TaskData task_data 的载荷格式
//
// 数值既可以是 JSON 数字也可以是字符串，字符串支持十进制与 0x 前缀十六进制。
// PublicInput 为 PrivateInput 的 Poseidon2 摘要。
type TaskData struct {
	PrivateInput []json.RawMessage `json:"private_input"`
	PublicInput  json.RawMessage   `json:"public_input"`
}
