package zkproof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/require"

	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/internal/core/zkproof/circuits"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

// spyScheme 记录调用次数并可注入故障
type spyScheme struct {
	*PlonKScheme

	setups   atomic.Int32
	proves   atomic.Int32
	verifies atomic.Int32

	panicOnProve bool
	failSetup    bool
	failVerify   bool
}

func newSpyScheme() *spyScheme {
	return &spyScheme{PlonKScheme: NewPlonKScheme(corelog.NewNop())}
}

func (s *spyScheme) Setup(ccs constraint.ConstraintSystem, srs, srsLagrange kzg.SRS) (ProvingKey, VerifyingKey, error) {
	s.setups.Add(1)
	if s.failSetup {
		return nil, nil, errors.New("injected setup failure")
	}
	return s.PlonKScheme.Setup(ccs, srs, srsLagrange)
}

func (s *spyScheme) Prove(ccs constraint.ConstraintSystem, pk ProvingKey, fullWitness witness.Witness) (Proof, error) {
	s.proves.Add(1)
	if s.panicOnProve {
		panic("injected prover panic")
	}
	return s.PlonKScheme.Prove(ccs, pk, fullWitness)
}

func (s *spyScheme) Verify(proof Proof, vk VerifyingKey, publicWitness witness.Witness) error {
	s.verifies.Add(1)
	if s.failVerify {
		return errors.New("injected verification failure")
	}
	return s.PlonKScheme.Verify(proof, vk, publicWitness)
}

// testOptions 默认档案（chunk=2, batch=8），不读写 SRS 文件
func testOptions() *proverconfig.ProverOptions {
	opts := proverconfig.New(nil).GetOptions()
	opts.Workers = 2
	opts.Warmup = false
	opts.GnarkLog = false
	return opts
}

var (
	sharedOnce   sync.Once
	sharedParams *ParameterManager
	sharedErr    error
)

// readyParams 返回已初始化的公共参数，整个包的测试共用一份 SRS
func readyParams(t *testing.T) *ParameterManager {
	t.Helper()
	sharedOnce.Do(func() {
		opts := testOptions()
		params := NewParameterManager(corelog.NewNop(), opts)
		gen := NewKeyGenerator(corelog.NewNop(), params, NewPlonKScheme(corelog.NewNop()))
		systems, err := gen.CompileAll(NewShapeSelector(opts).All())
		if err != nil {
			sharedErr = err
			return
		}
		sharedErr = params.Init(context.Background(), systems)
		sharedParams = params
	})
	require.NoError(t, sharedErr)
	return sharedParams
}

// testStack 一套独立的密钥缓存与流水线（共享 SRS）
type testStack struct {
	options  *proverconfig.ProverOptions
	scheme   *spyScheme
	params   *ParameterManager
	keys     *KeyCache
	pipeline *Pipeline
}

func newTestStack(t *testing.T, cacheKeys bool) *testStack {
	t.Helper()
	opts := testOptions()
	params := readyParams(t)
	scheme := newSpyScheme()
	gen := NewKeyGenerator(corelog.NewNop(), params, scheme)
	keys := NewKeyCache(corelog.NewNop(), gen, cacheKeys)
	pipeline := NewPipeline(corelog.NewNop(), params, NewCircuitBuilder(NewShapeSelector(opts)), keys, scheme)
	return &testStack{options: opts, scheme: scheme, params: params, keys: keys, pipeline: pipeline}
}

// validTask 构造原像为 1..width 的合法任务
func validTask(t *testing.T, id string, proofType types.ProofType, width int) *types.Task {
	t.Helper()
	preimage := make([]*big.Int, width)
	for i := range preimage {
		preimage[i] = big.NewInt(int64(i + 1))
	}
	digest, err := circuits.Digest(preimage)
	require.NoError(t, err)
	return taskWith(t, id, proofType, preimage, digest.String())
}

// taskWith 以给定原像与公开输入（十进制字符串）构造任务
func taskWith(t *testing.T, id string, proofType types.ProofType, preimage []*big.Int, public string) *types.Task {
	t.Helper()
	private := make([]json.RawMessage, len(preimage))
	for i, v := range preimage {
		private[i] = json.RawMessage(fmt.Sprintf("%q", v.String()))
	}
	data, err := json.Marshal(types.TaskData{
		PrivateInput: private,
		PublicInput:  json.RawMessage(fmt.Sprintf("%q", public)),
	})
	require.NoError(t, err)
	return &types.Task{
		UUID:     "uuid-" + id,
		ID:       id,
		Type:     proofType,
		TaskData: string(data),
	}
}

func circuitsDigest(t *testing.T, values ...int64) (*big.Int, error) {
	t.Helper()
	in := make([]*big.Int, len(values))
	for i, v := range values {
		in[i] = big.NewInt(v)
	}
	return circuits.Digest(in)
}
