package zkproof

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark/constraint"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
)

// KeyPair 一个电路形状的密钥对
type KeyPair struct {
	Shape CircuitShape
	CCS   constraint.ConstraintSystem
	PK    ProvingKey
	VK    VerifyingKey

	// VKBytes 验证密钥的序列化形式，VKDigest 为其 BLAKE2b-256 摘要（十六进制）
	VKBytes  []byte
	VKDigest string
}

// ============================================================================
// 密钥生成器
// ============================================================================

// KeyGenerator 由电路形状与 SRS 派生密钥对
//
// 相同形状 + 相同 SRS ⇒ 相同的密钥对。编译结果按形状缓存。
type KeyGenerator struct {
	logger log.Logger
	params *ParameterManager
	scheme ProvingScheme

	compiled      map[string]constraint.ConstraintSystem
	compiledMutex sync.RWMutex
}

// NewKeyGenerator 创建密钥生成器
func NewKeyGenerator(logger log.Logger, params *ParameterManager, scheme ProvingScheme) *KeyGenerator {
	return &KeyGenerator{
		logger:   logger,
		params:   params,
		scheme:   scheme,
		compiled: make(map[string]constraint.ConstraintSystem),
	}
}

// Compile 编译形状对应的约束系统
func (g *KeyGenerator) Compile(shape CircuitShape) (constraint.ConstraintSystem, error) {
	key := shape.Key()

	g.compiledMutex.RLock()
	if ccs, ok := g.compiled[key]; ok {
		g.compiledMutex.RUnlock()
		return ccs, nil
	}
	g.compiledMutex.RUnlock()

	ccs, err := g.scheme.Compile(shape.Circuit())
	if err != nil {
		return nil, err
	}

	g.compiledMutex.Lock()
	if existing, ok := g.compiled[key]; ok {
		ccs = existing
	} else {
		g.compiled[key] = ccs
	}
	g.compiledMutex.Unlock()

	g.logger.Debugf("电路编译完成: shape=%s, constraints=%d", key, ccs.GetNbConstraints())
	return ccs, nil
}

// CompileAll 编译一组形状，供参数管理器确定 SRS 容量
func (g *KeyGenerator) CompileAll(shapes []CircuitShape) ([]constraint.ConstraintSystem, error) {
	systems := make([]constraint.ConstraintSystem, 0, len(shapes))
	for _, shape := range shapes {
		ccs, err := g.Compile(shape)
		if err != nil {
			return nil, fmt.Errorf("编译形状 %s 失败: %w", shape, err)
		}
		systems = append(systems, ccs)
	}
	return systems, nil
}

// Generate 生成密钥对
//
// 编译、SRS 容量与 Lagrange 导出、验证密钥序列化失败标记为 WhileKeygenVk；
// Setup 失败标记为 WhileKeygenPk。公共参数未就绪返回 ErrParamsNotReady。
func (g *KeyGenerator) Generate(shape CircuitShape) (*KeyPair, error) {
	start := time.Now()

	ccs, err := g.Compile(shape)
	if err != nil {
		return nil, stageError(StageKeygenVk, err)
	}

	srs, srsLagrange, err := g.params.SRSFor(ccs)
	if err != nil {
		if errors.Is(err, ErrParamsNotReady) {
			return nil, err
		}
		return nil, stageError(StageKeygenVk, err)
	}

	pk, vk, err := g.scheme.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, stageError(StageKeygenPk, err)
	}
	if pk == nil {
		return nil, stageErrorf(StageKeygenPk, "Setup 未返回证明密钥")
	}

	vkBytes, err := g.scheme.SerializeVerifyingKey(vk)
	if err != nil {
		return nil, stageError(StageKeygenVk, err)
	}
	sum := blake2b.Sum256(vkBytes)

	metrics.IncKeygen()
	metrics.ObserveStage("keygen", time.Since(start))
	g.logger.Infof("🔑 密钥生成完成: shape=%s, constraints=%d, vk=%s, 耗时=%v",
		shape, ccs.GetNbConstraints(), hex.EncodeToString(sum[:8]), time.Since(start))

	return &KeyPair{
		Shape:    shape,
		CCS:      ccs,
		PK:       pk,
		VK:       vk,
		VKBytes:  vkBytes,
		VKDigest: hex.EncodeToString(sum[:]),
	}, nil
}

// ============================================================================
// 密钥缓存
// ============================================================================
//
// 🎯 **并发语义**：
// - 同一形状并发首次请求只触发一次生成（singleflight）
// - 只缓存成功结果，失败不写入，下一次请求重新生成
// - 调用方 ctx 取消只放弃等待，进行中的生成照常完成
//
// ============================================================================

// KeyCache 按形状缓存密钥对
type KeyCache struct {
	logger    log.Logger
	generator *KeyGenerator
	enabled   bool

	group   singleflight.Group
	entries map[string]*KeyPair
	mu      sync.RWMutex
}

// NewKeyCache 创建密钥缓存，enabled=false 时每次请求都重新生成
func NewKeyCache(logger log.Logger, generator *KeyGenerator, enabled bool) *KeyCache {
	return &KeyCache{
		logger:    logger,
		generator: generator,
		enabled:   enabled,
		entries:   make(map[string]*KeyPair),
	}
}

// Get 获取形状对应的密钥对
func (c *KeyCache) Get(ctx context.Context, shape CircuitShape) (*KeyPair, error) {
	if !c.enabled {
		return c.generator.Generate(shape)
	}

	key := shape.Key()
	if kp, ok := c.lookup(key); ok {
		return kp, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if kp, ok := c.lookup(key); ok {
			return kp, nil
		}
		kp, err := c.generator.Generate(shape)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = kp
		n := len(c.entries)
		c.mu.Unlock()
		metrics.SetKeyCacheEntries(n)
		return kp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeyPair), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *KeyCache) lookup(key string) (*KeyPair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kp, ok := c.entries[key]
	return kp, ok
}

// Warmup 预生成一组形状的密钥
func (c *KeyCache) Warmup(ctx context.Context, shapes []CircuitShape) error {
	for _, shape := range shapes {
		if _, err := c.Get(ctx, shape); err != nil {
			return fmt.Errorf("预生成密钥失败 shape=%s: %w", shape, err)
		}
	}
	return nil
}

// Len 已缓存的形状数
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
