package zkproof

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"

	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ============================================================================
// 证明工作线程池
// ============================================================================
//
// 🎯 **设计目的**：
// 证明计算是 CPU 与内存密集型，工作线程数按 CPU 与可用内存限制，
// 任务经有界队列分发到固定数量的工作线程。
//
// ⚠️ **注意**：
// - 调用方 ctx 取消只放弃等待；已开始的证明运行到结束，结果被丢弃
// - 出队时 ctx 已取消的任务直接跳过
// - Stop 后排队中的任务以 ErrPoolStopped 结束
//
// ============================================================================

// TaskRunner 执行单个任务（由 Pipeline 实现）
type TaskRunner interface {
	Run(ctx context.Context, task *types.Task) (*types.ProofDetail, error)
}

// poolResult 任务结果
type poolResult struct {
	detail *types.ProofDetail
	err    error
}

// poolJob 排队中的任务
type poolJob struct {
	ctx    context.Context
	task   *types.Task
	result chan poolResult
}

// WorkerHealthStatus 工作线程健康状态
type WorkerHealthStatus string

const (
	// WorkerHealthHealthy 健康
	WorkerHealthHealthy WorkerHealthStatus = "healthy"
	// WorkerHealthDegraded 降级（失败率超过一半）
	WorkerHealthDegraded WorkerHealthStatus = "degraded"
)

// proofWorker 证明工作线程
type proofWorker struct {
	workerID int
	pool     *WorkerPool

	processedCount atomic.Int64
	successCount   atomic.Int64
	errorCount     atomic.Int64
}

// run 工作线程主循环
func (w *proofWorker) run() {
	defer w.pool.wg.Done()

	for {
		select {
		case <-w.pool.stopCh:
			return
		case job := <-w.pool.jobs:
			w.process(job)
		}
	}
}

// process 处理任务
func (w *proofWorker) process(job *poolJob) {
	if err := job.ctx.Err(); err != nil {
		job.result <- poolResult{err: err}
		return
	}

	w.pool.busy.Add(1)
	metrics.WorkerBusy()
	defer func() {
		w.pool.busy.Add(-1)
		metrics.WorkerIdle()
	}()

	// 证明一旦开始即运行到结束
	detail, err := w.pool.runner.Run(context.WithoutCancel(job.ctx), job.task)

	w.processedCount.Add(1)
	if err != nil || !detail.Succeeded() {
		w.errorCount.Add(1)
	} else {
		w.successCount.Add(1)
	}
	job.result <- poolResult{detail: detail, err: err}
}

// healthStatus 按失败率计算健康状态
func (w *proofWorker) healthStatus() WorkerHealthStatus {
	processed := w.processedCount.Load()
	if processed == 0 {
		return WorkerHealthHealthy
	}
	if float64(w.errorCount.Load())/float64(processed) > 0.5 {
		return WorkerHealthDegraded
	}
	return WorkerHealthHealthy
}

// PoolStats 工作线程池统计
type PoolStats struct {
	Workers         int   `json:"workers"`
	Busy            int64 `json:"busy"`
	Queued          int   `json:"queued"`
	Processed       int64 `json:"processed"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	DegradedWorkers int   `json:"degraded_workers"`
}

// WorkerPool 证明工作线程池
type WorkerPool struct {
	runner TaskRunner
	logger log.Logger

	workers []*proofWorker
	jobs    chan *poolJob
	busy    atomic.Int64

	started    bool
	stopped    bool
	startMutex sync.Mutex
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewWorkerPool 创建工作线程池
//
// 📋 **参数**：
//   - runner: 任务执行器
//   - workers: 期望的工作线程数，≤0 时取 CPU 核数
//   - memoryPerWorkerMB: 单个工作线程的内存预算，>0 时按物理内存限制线程数
//   - logger: 日志记录器
func NewWorkerPool(runner TaskRunner, workers, memoryPerWorkerMB int, logger log.Logger) *WorkerPool {
	count := clampWorkers(workers, memoryPerWorkerMB, memory.TotalMemory())
	return &WorkerPool{
		runner:  runner,
		logger:  logger,
		workers: make([]*proofWorker, 0, count),
		jobs:    make(chan *poolJob, count*4),
		stopCh:  make(chan struct{}),
	}
}

// clampWorkers 计算实际线程数：[1, 2×CPU]，且不超过 内存/单线程预算
func clampWorkers(requested, memoryPerWorkerMB int, totalMemory uint64) int {
	maxWorkers := runtime.NumCPU() * 2
	count := requested
	if count <= 0 {
		count = runtime.NumCPU()
	}
	if count > maxWorkers {
		count = maxWorkers
	}
	if memoryPerWorkerMB > 0 && totalMemory > 0 {
		byMemory := int(totalMemory / (uint64(memoryPerWorkerMB) << 20))
		if byMemory < count {
			count = byMemory
		}
	}
	if count < 1 {
		count = 1
	}
	return count
}

// Start 启动工作线程池
func (p *WorkerPool) Start() {
	p.startMutex.Lock()
	defer p.startMutex.Unlock()

	if p.started || p.stopped {
		return
	}

	n := cap(p.workers)
	for i := 0; i < n; i++ {
		worker := &proofWorker{workerID: i, pool: p}
		p.workers = append(p.workers, worker)
		p.wg.Add(1)
		go worker.run()
	}
	p.started = true

	p.logger.Infof("✅ 证明工作线程池已启动: workerCount=%d, queue=%d", n, cap(p.jobs))
}

// Submit 提交任务并等待结果
func (p *WorkerPool) Submit(ctx context.Context, task *types.Task) (*types.ProofDetail, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	job := &poolJob{ctx: ctx, task: task, result: make(chan poolResult, 1)}

	select {
	case <-p.stopCh:
		return nil, ErrPoolStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.jobs <- job:
	}

	select {
	case res := <-job.result:
		return res.detail, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.stopCh:
		// 已在执行的任务仍可能写回结果
		select {
		case res := <-job.result:
			return res.detail, res.err
		default:
			return nil, ErrPoolStopped
		}
	}
}

// Stop 停止工作线程池，等待进行中的任务结束
//
// 等待期间不持有 startMutex，Stats 仍可随时读取。
func (p *WorkerPool) Stop() {
	p.startMutex.Lock()
	if p.stopped {
		p.startMutex.Unlock()
		return
	}
	p.stopped = true
	close(p.stopCh)
	p.startMutex.Unlock()

	p.wg.Wait()

	// 排空未被领取的任务
	for {
		select {
		case job := <-p.jobs:
			job.result <- poolResult{err: ErrPoolStopped}
		default:
			p.logger.Infof("✅ 证明工作线程池已停止")
			return
		}
	}
}

// Size 工作线程数
func (p *WorkerPool) Size() int {
	return cap(p.workers)
}

// Stats 统计信息
func (p *WorkerPool) Stats() PoolStats {
	p.startMutex.Lock()
	defer p.startMutex.Unlock()

	stats := PoolStats{
		Workers: cap(p.workers),
		Busy:    p.busy.Load(),
		Queued:  len(p.jobs),
	}
	for _, w := range p.workers {
		stats.Processed += w.processedCount.Load()
		stats.Succeeded += w.successCount.Load()
		stats.Failed += w.errorCount.Load()
		if w.healthStatus() == WorkerHealthDegraded {
			stats.DegradedWorkers++
		}
	}
	return stats
}

