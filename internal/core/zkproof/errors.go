// Package zkproof 实现 Poseidon2 电路的 PLONK 证明流水线
package zkproof

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            宿主层错误定义
// ============================================================================
//
// 以下错误以 error 形式返回给调用方，不写入 ProofDetail。

var (
	// ErrParamsNotReady 公共参数尚未初始化
	ErrParamsNotReady = errors.New("public parameters not initialized")

	// ErrParamsAlreadyInitialized 公共参数重复初始化
	ErrParamsAlreadyInitialized = errors.New("public parameters already initialized")

	// ErrUnsafeSetupDisabled 没有 SRS 文件且禁止生成测试 SRS
	ErrUnsafeSetupDisabled = errors.New("srs file missing and unsafe setup disabled")

	// ErrSRSCorrupt SRS 文件格式或长度不合法
	ErrSRSCorrupt = errors.New("srs file corrupt")

	// ErrSRSTooSmall SRS 容量不足以容纳电路
	ErrSRSTooSmall = errors.New("srs too small for circuit")

	// ErrPoolStopped 工作池已停止
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrNilTask 空任务
	ErrNilTask = errors.New("nil task")
)

// ============================================================================
//                            流水线阶段错误
// ============================================================================

// Stage 失败阶段标签
type Stage string

const (
	// StageDecode task_data 无法解码（早于任何密码学计算）
	StageDecode Stage = "WhileDecode"
	// StageSetup 公共参数不可用
	StageSetup Stage = "WhileSetup"
	// StageKeygenVk 编译电路或准备验证密钥所需的参数失败
	StageKeygenVk Stage = "WhileKeygenVk"
	// StageKeygenPk 生成证明密钥失败
	StageKeygenPk Stage = "WhileKeygenPk"
	// StagePubInputOutOfField 公开输入不在标量域内
	StagePubInputOutOfField Stage = "PubInputOutOfField"
	// StageProve 证明生成失败
	StageProve Stage = "WhileProve"
	// StageVerify 自验证失败（内部缺陷信号）
	StageVerify Stage = "WhileVerify"
	// StageInternal 流水线内部 panic
	StageInternal Stage = "Internal"
)

// ProveError 带阶段标签的流水线错误
//
// Diagnostic 是底层库错误的文本形式，不做结构化解析。
type ProveError struct {
	Stage      Stage
	Diagnostic string
}

// Error 实现 error 接口，格式为 "<Stage>: <Diagnostic>"
func (e *ProveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Diagnostic)
}

// stageError 将底层错误包装为阶段错误
func stageError(stage Stage, err error) *ProveError {
	var pe *ProveError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProveError{Stage: stage, Diagnostic: err.Error()}
}

// stageErrorf 以格式化诊断创建阶段错误
func stageErrorf(stage Stage, format string, args ...interface{}) *ProveError {
	return &ProveError{Stage: stage, Diagnostic: fmt.Sprintf(format, args...)}
}

// StageOf 提取错误的阶段标签
func StageOf(err error) (Stage, bool) {
	var pe *ProveError
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	return "", false
}

// IsStage 判断错误是否属于指定阶段
func IsStage(err error, stage Stage) bool {
	s, ok := StageOf(err)
	return ok && s == stage
}
