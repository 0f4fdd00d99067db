package zkproof

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ============================================================================
// worker_pool.go 测试
// ============================================================================

// fakeRunner 可控的任务执行器
type fakeRunner struct {
	delay   time.Duration
	release chan struct{}
	calls   atomic.Int32
	fail    bool
}

func (r *fakeRunner) Run(ctx context.Context, task *types.Task) (*types.ProofDetail, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.fail {
		return &types.ProofDetail{ID: task.ID, Type: task.Type, Error: "WhileProve: boom"}, nil
	}
	return &types.ProofDetail{ID: task.ID, Type: task.Type, ProofData: "AAAA"}, nil
}

func newTestPool(t *testing.T, runner TaskRunner, workers int) *WorkerPool {
	pool := NewWorkerPool(runner, workers, 0, corelog.NewNop())
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool
}

// TestClampWorkers 线程数按 CPU 与内存限制
func TestClampWorkers(t *testing.T) {
	cpu := runtime.NumCPU()
	const gib = uint64(1) << 30

	assert.Equal(t, cpu, clampWorkers(0, 0, 0))
	assert.Equal(t, 1, clampWorkers(1, 0, 0))
	assert.Equal(t, cpu*2, clampWorkers(cpu*10, 0, 0))
	assert.Equal(t, 1, clampWorkers(4, 1024, gib/2), "内存不足时至少保留一个线程")

	want := 2
	if cpu < want {
		want = cpu
	}
	assert.Equal(t, want, clampWorkers(cpu, 512, gib))
}

// TestWorkerPool_Submit 提交并取回结果
func TestWorkerPool_Submit(t *testing.T) {
	runner := &fakeRunner{}
	pool := newTestPool(t, runner, 2)

	detail, err := pool.Submit(context.Background(), &types.Task{ID: "a", Type: types.ProofTypeChunk})
	require.NoError(t, err)
	assert.Equal(t, "a", detail.ID)
	assert.True(t, detail.Succeeded())

	_, err = pool.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilTask)

	stats := pool.Stats()
	assert.Equal(t, 2, stats.Workers)
	assert.EqualValues(t, 1, stats.Processed)
	assert.EqualValues(t, 1, stats.Succeeded)
}

// TestWorkerPool_FailureCounted 失败信封计入失败统计
func TestWorkerPool_FailureCounted(t *testing.T) {
	pool := newTestPool(t, &fakeRunner{fail: true}, 1)

	for i := 0; i < 3; i++ {
		detail, err := pool.Submit(context.Background(), &types.Task{ID: "f"})
		require.NoError(t, err)
		assert.False(t, detail.Succeeded())
	}

	stats := pool.Stats()
	assert.EqualValues(t, 3, stats.Failed)
	assert.Equal(t, 1, stats.DegradedWorkers)
}

// TestWorkerPool_Timeout 等待超时返回 ctx 错误，证明在后台继续运行
func TestWorkerPool_Timeout(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	pool := newTestPool(t, runner, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := pool.Submit(ctx, &types.Task{ID: "slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(runner.release)
	require.Eventually(t, func() bool { return pool.Stats().Processed == 1 }, 5*time.Second, 10*time.Millisecond)
}

// TestWorkerPool_SkipsCancelled 出队时已取消的任务不执行
func TestWorkerPool_SkipsCancelled(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	pool := newTestPool(t, runner, 1)

	// 占住唯一的工作线程
	go func() { _, _ = pool.Submit(context.Background(), &types.Task{ID: "busy"}) }()
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := pool.Submit(ctx, &types.Task{ID: "queued"})
		done <- err
	}()
	require.Eventually(t, func() bool { return pool.Stats().Queued == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(runner.release)
	require.Eventually(t, func() bool { return pool.Stats().Queued == 0 && pool.Stats().Busy == 0 }, 5*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, runner.calls.Load())
}

// TestWorkerPool_Stop 停止后拒绝新任务
func TestWorkerPool_Stop(t *testing.T) {
	pool := NewWorkerPool(&fakeRunner{}, 1, 0, corelog.NewNop())
	pool.Start()
	pool.Stop()
	pool.Stop()

	_, err := pool.Submit(context.Background(), &types.Task{ID: "late"})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

// TestWorkerPool_StatsDuringStop 停止等待进行中的任务时统计信息仍可读取
func TestWorkerPool_StatsDuringStop(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	pool := NewWorkerPool(runner, 1, 0, corelog.NewNop())
	pool.Start()

	go func() { _, _ = pool.Submit(context.Background(), &types.Task{ID: "long"}) }()
	require.Eventually(t, func() bool { return pool.Stats().Busy == 1 }, 5*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	statsDone := make(chan PoolStats, 1)
	go func() {
		// 等待 Stop 进入 wg.Wait
		time.Sleep(50 * time.Millisecond)
		statsDone <- pool.Stats()
	}()

	select {
	case stats := <-statsDone:
		assert.EqualValues(t, 1, stats.Busy)
	case <-time.After(2 * time.Second):
		t.Fatal("Stats blocked while Stop waited for the running job")
	}

	select {
	case <-stopped:
		t.Fatal("Stop returned before the running job finished")
	default:
	}

	close(runner.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the job finished")
	}
}

// TestWorkerPool_Concurrency 多个任务并发执行
func TestWorkerPool_Concurrency(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	pool := newTestPool(t, runner, 4)
	workers := pool.Size()

	start := time.Now()
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := pool.Submit(context.Background(), &types.Task{ID: "c"})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}
	assert.Less(t, time.Since(start), time.Duration(workers)*20*time.Millisecond+time.Second)
	assert.EqualValues(t, workers, runner.calls.Load())
}
