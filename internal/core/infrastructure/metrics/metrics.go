// Package metrics 提供证明服务的 Prometheus 监控指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "poseidon_prover"

// ============================================================================
//                          Prometheus 监控指标
// ============================================================================

var (
	// tasksTotal 处理完成的任务数（按证明类型与结果分类）
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "total",
			Help:      "Total number of proving tasks by proof type and result",
		},
		[]string{"proof_type", "result"}, // result: success 或失败阶段标签
	)

	// stageDuration 流水线各阶段耗时
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of proving pipeline stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms ~ 262s
		},
		[]string{"stage"},
	)

	// keyCacheEntries 已缓存的电路形状数
	keyCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "keys",
		Name:      "cache_entries",
		Help:      "Number of circuit shapes with cached proving/verifying keys",
	})

	// keygenTotal 实际执行的密钥生成次数
	keygenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "keys",
		Name:      "generated_total",
		Help:      "Total number of key pair generations",
	})

	// busyWorkers 正在执行证明的工作线程数
	busyWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      "busy_workers",
		Help:      "Number of workers currently running a pipeline",
	})

	// resultCacheHits 命中结果缓存的重复投递次数
	resultCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "results",
		Name:      "cache_hits_total",
		Help:      "Total number of redelivered tasks answered from the result cache",
	})

	// httpRequests HTTP请求数
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpDuration HTTP请求耗时
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"method", "path"},
	)

	// heapAllocBytes 当前堆分配
	heapAllocBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "memory",
		Name:      "heap_alloc_bytes",
		Help:      "Go heap bytes allocated at the last sample",
	})

	// systemFreeBytes 系统空闲内存
	systemFreeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "memory",
		Name:      "system_free_bytes",
		Help:      "Free system memory at the last sample",
	})

	goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "memory",
		Name:      "goroutines",
		Help:      "Number of goroutines at the last sample",
	})

	// freeOSTotal 因内存不足主动归还内存的次数
	freeOSTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "memory",
		Name:      "free_os_total",
		Help:      "Total number of FreeOSMemory calls triggered by low free memory",
	})
)

func init() {
	prometheus.MustRegister(
		tasksTotal,
		stageDuration,
		keyCacheEntries,
		keygenTotal,
		busyWorkers,
		resultCacheHits,
		httpRequests,
		httpDuration,
		heapAllocBytes,
		systemFreeBytes,
		goroutines,
		freeOSTotal,
	)
}

// ============================================================================
//                          指标更新函数
// ============================================================================

// RecordTask 记录一个任务的最终结果
func RecordTask(proofType, result string) {
	tasksTotal.WithLabelValues(proofType, result).Inc()
}

// ObserveStage 记录流水线阶段耗时
func ObserveStage(stage string, elapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetKeyCacheEntries 设置已缓存的形状数
func SetKeyCacheEntries(n int) {
	keyCacheEntries.Set(float64(n))
}

// IncKeygen 记录一次密钥生成
func IncKeygen() {
	keygenTotal.Inc()
}

// WorkerBusy 工作线程开始执行
func WorkerBusy() {
	busyWorkers.Inc()
}

// WorkerIdle 工作线程执行结束
func WorkerIdle() {
	busyWorkers.Dec()
}

// IncResultCacheHit 记录一次结果缓存命中
func IncResultCacheHit() {
	resultCacheHits.Inc()
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, path, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
