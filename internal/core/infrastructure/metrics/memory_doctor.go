package metrics

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pbnjay/memory"
	"go.uber.org/zap"
)

// ============================================================================
//                          MemoryDoctor 内存巡检
// ============================================================================

// MemoryDoctorConfig 内存巡检配置
type MemoryDoctorConfig struct {
	// SampleInterval 采样间隔（默认 10s）
	SampleInterval time.Duration

	// WindowSize 保留的历史样本数（默认 30）
	WindowSize int

	// FreeMemoryFloorBytes 系统空闲内存低于此值时主动归还内存给 OS（默认 512MB）
	FreeMemoryFloorBytes uint64

	// FreeOSInterval 两次 FreeOSMemory 之间的最小间隔（默认 1m）
	FreeOSInterval time.Duration

	// GoroutineWarnThreshold Goroutine 数量告警阈值（默认 5000）
	GoroutineWarnThreshold int
}

// DefaultMemoryDoctorConfig 返回默认配置
func DefaultMemoryDoctorConfig() MemoryDoctorConfig {
	return MemoryDoctorConfig{
		SampleInterval:         10 * time.Second,
		WindowSize:             30,
		FreeMemoryFloorBytes:   512 * 1024 * 1024,
		FreeOSInterval:         time.Minute,
		GoroutineWarnThreshold: 5000,
	}
}

// HeapSample 一次内存采样
type HeapSample struct {
	Time         time.Time `json:"time"`
	HeapAlloc    uint64    `json:"heap_alloc"`
	HeapInuse    uint64    `json:"heap_inuse"`
	Sys          uint64    `json:"sys"`
	NumGC        uint32    `json:"num_gc"`
	NumGoroutine int       `json:"num_goroutine"`
	SystemTotal  uint64    `json:"system_total"` // 系统总内存
	SystemFree   uint64    `json:"system_free"`  // 系统空闲内存
}

// MemoryDoctor 周期性采样证明进程的内存状态
//
// PLONK 证明的内存峰值集中在 FFT 与 MSM 阶段，空闲内存跌破下限时
// 会限频调用 debug.FreeOSMemory，避免多个工作线程叠加后触发 OOM。
type MemoryDoctor struct {
	cfg     MemoryDoctorConfig
	logger  *zap.Logger
	history []HeapSample
	mu      sync.RWMutex

	lastFreeOSAt time.Time

	// freeMemory 可替换的空闲内存读数（测试用）
	freeMemory func() uint64
}

// NewMemoryDoctor 创建 MemoryDoctor，零值字段使用默认配置补齐
func NewMemoryDoctor(cfg MemoryDoctorConfig, logger *zap.Logger) *MemoryDoctor {
	def := DefaultMemoryDoctorConfig()
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = def.SampleInterval
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.FreeMemoryFloorBytes == 0 {
		cfg.FreeMemoryFloorBytes = def.FreeMemoryFloorBytes
	}
	if cfg.FreeOSInterval <= 0 {
		cfg.FreeOSInterval = def.FreeOSInterval
	}
	if cfg.GoroutineWarnThreshold <= 0 {
		cfg.GoroutineWarnThreshold = def.GoroutineWarnThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MemoryDoctor{
		cfg:        cfg,
		logger:     logger,
		history:    make([]HeapSample, 0, cfg.WindowSize),
		freeMemory: memory.FreeMemory,
	}
}

// Start 按 SampleInterval 循环采样，直到 ctx 结束
func (d *MemoryDoctor) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SampleInterval)
	defer ticker.Stop()

	d.logger.Info("MemoryDoctor 启动",
		zap.Duration("sample_interval", d.cfg.SampleInterval),
		zap.Int("window_size", d.cfg.WindowSize))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("MemoryDoctor 停止")
			return
		case <-ticker.C:
			d.SampleOnce()
		}
	}
}

// SampleOnce 执行一次采样并更新 Prometheus 指标
func (d *MemoryDoctor) SampleOnce() HeapSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := HeapSample{
		Time:         time.Now(),
		HeapAlloc:    ms.HeapAlloc,
		HeapInuse:    ms.HeapInuse,
		Sys:          ms.Sys,
		NumGC:        ms.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		SystemTotal:  memory.TotalMemory(),
		SystemFree:   d.freeMemory(),
	}

	d.mu.Lock()
	d.history = append(d.history, s)
	if len(d.history) > d.cfg.WindowSize {
		d.history = d.history[len(d.history)-d.cfg.WindowSize:]
	}
	d.mu.Unlock()

	heapAllocBytes.Set(float64(s.HeapAlloc))
	systemFreeBytes.Set(float64(s.SystemFree))
	goroutines.Set(float64(s.NumGoroutine))

	d.logger.Debug("memory_sample",
		zap.Uint64("heap_mb", s.HeapAlloc/1024/1024),
		zap.Uint64("sys_mb", s.Sys/1024/1024),
		zap.Uint64("system_free_mb", s.SystemFree/1024/1024),
		zap.Uint32("gc", s.NumGC),
		zap.Int("goroutines", s.NumGoroutine))

	if s.NumGoroutine > d.cfg.GoroutineWarnThreshold {
		d.logger.Warn("goroutine_count_high",
			zap.Int("count", s.NumGoroutine),
			zap.Int("threshold", d.cfg.GoroutineWarnThreshold))
	}

	d.maybeFreeOS(s)
	return s
}

// maybeFreeOS 空闲内存低于下限时限频归还内存
func (d *MemoryDoctor) maybeFreeOS(s HeapSample) bool {
	if s.SystemFree == 0 || s.SystemFree >= d.cfg.FreeMemoryFloorBytes {
		return false
	}

	d.mu.Lock()
	if !d.lastFreeOSAt.IsZero() && s.Time.Sub(d.lastFreeOSAt) < d.cfg.FreeOSInterval {
		d.mu.Unlock()
		return false
	}
	d.lastFreeOSAt = s.Time
	d.mu.Unlock()

	d.logger.Warn("⚠️ 系统空闲内存不足，归还堆内存给 OS",
		zap.Uint64("system_free_mb", s.SystemFree/1024/1024),
		zap.Uint64("floor_mb", d.cfg.FreeMemoryFloorBytes/1024/1024),
		zap.Uint64("heap_mb", s.HeapAlloc/1024/1024))
	debug.FreeOSMemory()
	freeOSTotal.Inc()
	return true
}

// GetCurrentStats 返回最近一次采样，尚未采样时返回零值
func (d *MemoryDoctor) GetCurrentStats() HeapSample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.history) == 0 {
		return HeapSample{}
	}
	return d.history[len(d.history)-1]
}

// GetHistory 返回历史样本副本
func (d *MemoryDoctor) GetHistory() []HeapSample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]HeapSample, len(d.history))
	copy(out, d.history)
	return out
}
