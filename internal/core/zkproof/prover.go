package zkproof

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ============================================================================
// 证明引擎与自验证器
// ============================================================================

// ProverEngine 在电路实例上执行证明协议
type ProverEngine struct {
	scheme ProvingScheme
}

// NewProverEngine 创建证明引擎
func NewProverEngine(scheme ProvingScheme) *ProverEngine {
	return &ProverEngine{scheme: scheme}
}

// Prove 生成证明并返回其序列化字节，失败标记为 WhileProve
func (e *ProverEngine) Prove(kp *KeyPair, instance *CircuitInstance) ([]byte, error) {
	fullWitness, err := instance.FullWitness()
	if err != nil {
		return nil, stageError(StageProve, err)
	}
	proof, err := e.scheme.Prove(kp.CCS, kp.PK, fullWitness)
	if err != nil {
		return nil, stageError(StageProve, err)
	}
	proofBytes, err := e.scheme.SerializeProof(proof)
	if err != nil {
		return nil, stageError(StageProve, err)
	}
	return proofBytes, nil
}

// SelfVerifier 用验证密钥与声明的公开输入重放证明
type SelfVerifier struct {
	scheme ProvingScheme
}

// NewSelfVerifier 创建自验证器
func NewSelfVerifier(scheme ProvingScheme) *SelfVerifier {
	return &SelfVerifier{scheme: scheme}
}

// Verify 验证即将离开边界的证明字节，失败标记为 WhileVerify
func (v *SelfVerifier) Verify(kp *KeyPair, instance *CircuitInstance, proofBytes []byte) error {
	proof, err := v.scheme.DeserializeProof(proofBytes)
	if err != nil {
		return stageError(StageVerify, err)
	}
	publicWitness, err := instance.PublicWitness()
	if err != nil {
		return stageError(StageVerify, err)
	}
	if err := v.scheme.Verify(proof, kp.VK, publicWitness); err != nil {
		return stageError(StageVerify, err)
	}
	return nil
}

// ============================================================================
// 证明流水线
// ============================================================================
//
// 🎯 **状态机**（每个任务）：
//
//	Received → Decoded → ShapeReady → KeyReady → Proved → SelfVerified → Encoded
//
// 任一阶段失败直接进入 Encoded(failure)，后续阶段不再执行，也不会返回部分证明。
// 各阶段内的 panic 被恢复为 Internal 阶段错误。
//
// ============================================================================

// PipelineState 流水线状态
type PipelineState string

const (
	StateReceived     PipelineState = "received"
	StateDecoded      PipelineState = "decoded"
	StateShapeReady   PipelineState = "shape_ready"
	StateKeyReady     PipelineState = "key_ready"
	StateProved       PipelineState = "proved"
	StateSelfVerified PipelineState = "self_verified"
	StateEncoded      PipelineState = "encoded"
)

// Pipeline 单任务证明流水线
type Pipeline struct {
	logger   log.Logger
	params   *ParameterManager
	builder  *CircuitBuilder
	keys     *KeyCache
	engine   *ProverEngine
	verifier *SelfVerifier
	encoder  *Encoder
}

// NewPipeline 创建证明流水线
func NewPipeline(
	logger log.Logger,
	params *ParameterManager,
	builder *CircuitBuilder,
	keys *KeyCache,
	scheme ProvingScheme,
) *Pipeline {
	return &Pipeline{
		logger:   logger,
		params:   params,
		builder:  builder,
		keys:     keys,
		engine:   NewProverEngine(scheme),
		verifier: NewSelfVerifier(scheme),
		encoder:  NewEncoder(),
	}
}

// pipelineRun 一次流水线执行的上下文
type pipelineRun struct {
	task  *types.Task
	state PipelineState
	start time.Time
}

// Run 处理一个任务直到 Encoded
//
// 阶段失败写入 ProofDetail.Error；只有 ctx 取消与公共参数未就绪以 error 返回。
func (p *Pipeline) Run(ctx context.Context, task *types.Task) (detail *types.ProofDetail, err error) {
	if task == nil {
		return nil, ErrNilTask
	}
	if !p.params.Ready() {
		return nil, ErrParamsNotReady
	}

	run := &pipelineRun{task: task, state: StateReceived, start: time.Now()}
	logger := p.logger.With("task_id", task.ID, "uuid", task.UUID, "proof_type", task.Type.String())

	defer func() {
		if r := recover(); r != nil {
			logger.GetZapLogger().Error("流水线 panic",
				zap.String("state", string(run.state)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			detail, err = p.finish(logger, run, stageErrorf(StageInternal, "在 %s 阶段发生 panic: %v", run.state, r)), nil
		}
	}()

	proofBytes, stageErr := p.execute(ctx, logger, run)
	if stageErr != nil {
		var pe *ProveError
		if !errors.As(stageErr, &pe) {
			// ctx 取消或参数未就绪：不构造信封，交给宿主处理
			return nil, stageErr
		}
		return p.finish(logger, run, pe), nil
	}

	detail = p.encoder.Success(task, proofBytes)
	run.state = StateEncoded
	metrics.RecordTask(task.Type.String(), "success")
	logger.Infof("✅ 证明完成: proof_bytes=%d, 耗时=%v", len(proofBytes), time.Since(run.start))
	return detail, nil
}

// execute 依次执行各阶段，返回序列化后的证明
func (p *Pipeline) execute(ctx context.Context, logger log.Logger, run *pipelineRun) ([]byte, error) {
	// 1. 解码 + 选择形状
	stageStart := time.Now()
	instance, err := p.builder.Build(run.task)
	if err != nil {
		return nil, err
	}
	p.advance(logger, run, StateDecoded, "decode", stageStart)

	// 2. 约束系统
	stageStart = time.Now()
	if _, err := p.keys.generator.Compile(instance.Shape); err != nil {
		return nil, stageError(StageKeygenVk, err)
	}
	p.advance(logger, run, StateShapeReady, "compile", stageStart)

	// 3. 密钥
	stageStart = time.Now()
	kp, err := p.keys.Get(ctx, instance.Shape)
	if err != nil {
		if errors.Is(err, ErrParamsNotReady) {
			return nil, stageError(StageSetup, err)
		}
		return nil, err
	}
	p.advance(logger, run, StateKeyReady, "keys", stageStart)

	// 4. 证明
	stageStart = time.Now()
	proofBytes, err := p.engine.Prove(kp, instance)
	if err != nil {
		return nil, err
	}
	p.advance(logger, run, StateProved, "prove", stageStart)

	// 5. 自验证
	stageStart = time.Now()
	if err := p.verifier.Verify(kp, instance, proofBytes); err != nil {
		logger.Errorf("❌ 自验证失败，证明不会返回: %v", err)
		return nil, err
	}
	p.advance(logger, run, StateSelfVerified, "verify", stageStart)

	return proofBytes, nil
}

func (p *Pipeline) advance(logger log.Logger, run *pipelineRun, next PipelineState, stage string, stageStart time.Time) {
	elapsed := time.Since(stageStart)
	metrics.ObserveStage(stage, elapsed)
	logger.Debugf("%s → %s (%v)", run.state, next, elapsed)
	run.state = next
}

// finish 组装失败信封
func (p *Pipeline) finish(logger log.Logger, run *pipelineRun, pe *ProveError) *types.ProofDetail {
	logger.Warnf("证明失败: state=%s, stage=%s, 诊断=%s", run.state, pe.Stage, pe.Diagnostic)
	run.state = StateEncoded
	metrics.RecordTask(run.task.Type.String(), string(pe.Stage))
	return p.encoder.Failure(run.task, pe)
}

