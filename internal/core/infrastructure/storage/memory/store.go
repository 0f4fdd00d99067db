// Package memory 提供基于BigCache的证明结果缓存
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

const (
	// entrySize 单条结果的预估大小：base64 的 PLONK 证明加信封约 1~2KB
	entrySize = 4 * 1024

	// shards BigCache 分片数（须为 2 的幂）
	shards = 8

	defaultMaxEntriesInWindow = 1024
	defaultHardMaxCacheSizeMB = 64
)

// Config 结果缓存配置
//
// BigCache 按 MaxEntriesInWindow × entrySize 预分配各分片的初始容量，
// HardMaxCacheSizeMB 限制总内存上限，避免与证明工作线程争抢内存。
type Config struct {
	TTL                time.Duration
	MaxEntriesInWindow int
	HardMaxCacheSizeMB int
}

// Store 实现 ResultStore，基于 BigCache 按 TTL 淘汰
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	mutex  sync.RWMutex
	closed bool
}

var _ zkif.ResultStore = (*Store)(nil)

// New 创建结果缓存
func New(cfg Config, logger log.Logger) (*Store, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("结果缓存 TTL 必须为正数: %v", cfg.TTL)
	}
	if cfg.MaxEntriesInWindow <= 0 {
		cfg.MaxEntriesInWindow = defaultMaxEntriesInWindow
	}
	if cfg.HardMaxCacheSizeMB <= 0 {
		cfg.HardMaxCacheSizeMB = defaultHardMaxCacheSizeMB
	}

	config := bigcache.DefaultConfig(cfg.TTL)
	config.Shards = shards
	config.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	config.MaxEntrySize = entrySize
	config.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	config.CleanWindow = cleanWindow(cfg.TTL)
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}

	return &Store{cache: cache, logger: logger}, nil
}

// cleanWindow 清理周期取 TTL 的一半，至少 1 秒
func cleanWindow(ttl time.Duration) time.Duration {
	w := ttl / 2
	if w < time.Second {
		w = time.Second
	}
	return w
}

// Get 读取缓存结果
func (s *Store) Get(ctx context.Context, key string) (*types.ProofDetail, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, false, nil
	}

	value, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		s.logger.Warnf("获取缓存键[%s]失败: %v", key, err)
		return nil, false, err
	}

	var detail types.ProofDetail
	if err := json.Unmarshal(value, &detail); err != nil {
		_ = s.cache.Delete(key)
		return nil, false, fmt.Errorf("缓存结果损坏: %w", err)
	}
	return &detail, true, nil
}

// Put 写入成功结果，失败结果不缓存
func (s *Store) Put(ctx context.Context, key string, detail *types.ProofDetail) error {
	if !detail.Succeeded() {
		return nil
	}

	value, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil
	}
	if err := s.cache.Set(key, value); err != nil {
		s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		return err
	}
	return nil
}

// Len 当前条目数
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close 关闭缓存并释放资源
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.logger.Info("关闭结果缓存")
	err := s.cache.Close()
	if err == nil {
		s.closed = true
	}
	return err
}
