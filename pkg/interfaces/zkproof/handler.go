// Package zkproof 定义证明服务对宿主运行时暴露的入口
package zkproof

import (
	"context"

	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ProofHandler 证明任务处理入口
//
// 一次调用完整处理一个 Task。流水线任一阶段失败都体现在
// ProofDetail.Error 中；只有宿主层面的故障（参数未初始化、
// ctx 取消、工作池已停止）才以 error 返回。
type ProofHandler interface {
	Handle(ctx context.Context, task *types.Task) (*types.ProofDetail, error)
}

// Readiness 就绪状态查询
type Readiness interface {
	// Ready 公共参数是否已初始化、可以接收任务
	Ready() bool
}

// ResultStore 成功结果缓存
//
// 以 task uuid 为键去重：调度方重投同一任务时直接返回已验证的结果。
type ResultStore interface {
	Get(ctx context.Context, key string) (*types.ProofDetail, bool, error)
	Put(ctx context.Context, key string, detail *types.ProofDetail) error
	Close() error
}

// StatusReporter 运行状态快照（用于健康检查）
type StatusReporter interface {
	Status() interface{}
}
