package zkproof

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// Manager 证明服务入口
//
// 🎯 **设计理念**：薄实现，只做依赖协调
// - 启动：编译全部形状 → 初始化公共参数 → 预生成密钥 → 启动工作池
// - 处理：结果缓存 → 超时控制 → 工作池 → 流水线
type Manager struct {
	logger  log.Logger
	options *proverconfig.ProverOptions

	selector *ShapeSelector
	params   *ParameterManager
	keys     *KeyCache
	pool     *WorkerPool
	results  zkif.ResultStore // 可以为 nil

	startOnce sync.Once
	startErr  error
}

var (
	_ zkif.ProofHandler   = (*Manager)(nil)
	_ zkif.Readiness      = (*Manager)(nil)
	_ zkif.StatusReporter = (*Manager)(nil)
)

// NewManager 组装证明服务
func NewManager(
	logger log.Logger,
	options *proverconfig.ProverOptions,
	selector *ShapeSelector,
	params *ParameterManager,
	keys *KeyCache,
	pool *WorkerPool,
	results zkif.ResultStore,
) *Manager {
	return &Manager{
		logger:   logger,
		options:  options,
		selector: selector,
		params:   params,
		keys:     keys,
		pool:     pool,
		results:  results,
	}
}

// Start 初始化公共参数并启动工作池，只执行一次
func (m *Manager) Start(ctx context.Context) error {
	m.startOnce.Do(func() {
		m.startErr = m.start(ctx)
	})
	return m.startErr
}

func (m *Manager) start(ctx context.Context) error {
	start := time.Now()
	ConfigureGnarkLogger(m.options.GnarkLog)

	shapes := m.selector.All()
	systems, err := m.keys.generator.CompileAll(shapes)
	if err != nil {
		return err
	}

	if err := m.params.Init(ctx, systems); err != nil {
		return fmt.Errorf("初始化公共参数失败: %w", err)
	}

	if m.options.Warmup && m.options.CacheKeys {
		if err := m.keys.Warmup(ctx, shapes); err != nil {
			return err
		}
	}

	m.pool.Start()
	m.logger.Infof("🚀 证明服务就绪: shapes=%d, srs=%s, workers=%d, 耗时=%v",
		len(shapes), m.params.Source(), m.pool.Size(), time.Since(start))
	return nil
}

// Stop 停止工作池并关闭结果缓存
func (m *Manager) Stop() error {
	m.pool.Stop()
	if m.results != nil {
		return m.results.Close()
	}
	return nil
}

// Ready 实现 Readiness
func (m *Manager) Ready() bool {
	return m.params.Ready()
}

// Handle 实现 ProofHandler
func (m *Manager) Handle(ctx context.Context, task *types.Task) (*types.ProofDetail, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	if !m.Ready() {
		return nil, ErrParamsNotReady
	}

	cacheKey := m.resultKey(task)
	if cacheKey != "" {
		if detail, ok, err := m.results.Get(ctx, cacheKey); err != nil {
			m.logger.Warnf("读取结果缓存失败: task_id=%s, err=%v", task.ID, err)
		} else if ok {
			metrics.IncResultCacheHit()
			m.logger.Infof("♻️ 命中结果缓存: task_id=%s, uuid=%s", task.ID, task.UUID)
			return detail, nil
		}
	}

	if m.options.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.options.TaskTimeout)
		defer cancel()
	}

	detail, err := m.pool.Submit(ctx, task)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.logger.Warnf("任务超时: task_id=%s, timeout=%v", task.ID, m.options.TaskTimeout)
		}
		return nil, err
	}

	if cacheKey != "" && detail.Succeeded() {
		if err := m.results.Put(ctx, cacheKey, detail); err != nil {
			m.logger.Warnf("写入结果缓存失败: task_id=%s, err=%v", task.ID, err)
		}
	}
	return detail, nil
}

// resultKey 结果缓存键：uuid + 任务内容摘要，uuid 为空时不缓存
func (m *Manager) resultKey(task *types.Task) string {
	if m.results == nil || task.UUID == "" {
		return ""
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(raw)
	return task.UUID + ":" + hex.EncodeToString(sum[:])
}

// Health 服务状态快照
type Health struct {
	Ready           bool      `json:"ready"`
	SRSSource       string    `json:"srs_source"`
	SRSCapacity     int       `json:"srs_capacity"`
	KeyCacheEntries int       `json:"key_cache_entries"`
	Shapes          []string  `json:"shapes"`
	Pool            PoolStats `json:"pool"`
}

// Health 返回服务状态
func (m *Manager) Health() Health {
	shapes := m.selector.All()
	names := make([]string, 0, len(shapes))
	for _, s := range shapes {
		names = append(names, s.Key())
	}
	return Health{
		Ready:           m.Ready(),
		SRSSource:       m.params.Source(),
		SRSCapacity:     m.params.Capacity(),
		KeyCacheEntries: m.keys.Len(),
		Shapes:          names,
		Pool:            m.pool.Stats(),
	}
}

// VerifyingKey 导出形状对应的序列化验证密钥
func (m *Manager) VerifyingKey(ctx context.Context, proofType types.ProofType, hardForkName string) (*KeyPair, error) {
	if !m.Ready() {
		return nil, ErrParamsNotReady
	}
	shape, err := m.selector.Select(proofType, hardForkName)
	if err != nil {
		return nil, err
	}
	return m.keys.Get(ctx, shape)
}

// Status 实现 StatusReporter
func (m *Manager) Status() interface{} {
	return m.Health()
}

// Assemble 不经 fx 直接组装证明服务（命令行使用），不启用结果缓存
func Assemble(logger log.Logger, options *proverconfig.ProverOptions) *Manager {
	scheme := NewPlonKScheme(logger)
	selector := NewShapeSelector(options)
	params := NewParameterManager(logger, options)
	keys := NewKeyCache(logger, NewKeyGenerator(logger, params, scheme), options.CacheKeys)
	pipeline := NewPipeline(logger, params, NewCircuitBuilder(selector), keys, scheme)
	pool := NewWorkerPool(pipeline, options.Workers, options.MemoryPerWorkerMB, logger)
	return NewManager(logger, options, selector, params, keys, pool, nil)
}
