package zkproof

import (
	"fmt"
	"sort"

	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	"github.com/weisyn/poseidon-prover/internal/core/zkproof/circuits"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// CircuitShape 电路形状
//
// 形状只由证明类型与原像宽度决定，与具体见证无关；
// 相同形状 + 相同 SRS 得到相同的密钥对。
type CircuitShape struct {
	ProofType types.ProofType
	Width     int
}

// Key 缓存键，如 "chunk/w2"
func (s CircuitShape) Key() string {
	return fmt.Sprintf("%s/w%d", s.ProofType, s.Width)
}

// String 实现 fmt.Stringer
func (s CircuitShape) String() string {
	return s.Key()
}

// Circuit 返回用于编译的空电路
func (s CircuitShape) Circuit() *circuits.PoseidonCircuit {
	return circuits.NewPoseidonCircuit(s.Width)
}

// ShapeSelector 按 task_type 与 hard_fork_name 选择电路形状
type ShapeSelector struct {
	options *proverconfig.ProverOptions
}

// NewShapeSelector 创建形状选择器
func NewShapeSelector(options *proverconfig.ProverOptions) *ShapeSelector {
	return &ShapeSelector{options: options}
}

// Select 选择电路形状
func (s *ShapeSelector) Select(proofType types.ProofType, hardForkName string) (CircuitShape, error) {
	profile, _ := s.options.Profile(hardForkName)

	var width int
	switch proofType {
	case types.ProofTypeChunk:
		width = profile.ChunkWidth
	case types.ProofTypeBatch:
		width = profile.BatchWidth
	default:
		return CircuitShape{}, fmt.Errorf("不支持的证明类型: %s", proofType)
	}
	if width <= 0 || width > proverconfig.MaxWidth {
		return CircuitShape{}, fmt.Errorf("电路宽度非法: %d (hard_fork=%q)", width, hardForkName)
	}

	return CircuitShape{ProofType: proofType, Width: width}, nil
}

// All 返回所有档案涉及的去重形状，按键排序
func (s *ShapeSelector) All() []CircuitShape {
	seen := make(map[string]CircuitShape)
	for name := range s.options.Profiles {
		for _, pt := range []types.ProofType{types.ProofTypeChunk, types.ProofTypeBatch} {
			shape, err := s.Select(pt, name)
			if err != nil {
				continue
			}
			seen[shape.Key()] = shape
		}
	}

	shapes := make([]CircuitShape, 0, len(seen))
	for _, shape := range seen {
		shapes = append(shapes, shape)
	}
	sort.Slice(shapes, func(i, j int) bool {
		return shapes[i].Key() < shapes[j].Key()
	})
	return shapes
}
