package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pbnjay/memory"

	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
)

// HealthHandler 健康检查端点
//
// 🏥 **Kubernetes风格健康检查**：
// - /health: 完整状态报告
// - /health/live: 存活检查（进程是否响应）
// - /health/ready: 就绪检查（公共参数是否已初始化）
type HealthHandler struct {
	readiness zkif.Readiness
	status    zkif.StatusReporter
	version   string
	startTime time.Time
}

// NewHealthHandler 创建健康检查处理器，status 可以为 nil
func NewHealthHandler(readiness zkif.Readiness, status zkif.StatusReporter, version string) *HealthHandler {
	return &HealthHandler{
		readiness: readiness,
		status:    status,
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterRoutes 注册健康检查路由
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("", h.GetHealth)
		health.GET("/live", h.GetLiveness)
		health.GET("/ready", h.GetReadiness)
	}
}

// GetHealth 完整状态报告
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ready := h.readiness.Ready()
	status := "healthy"
	if !ready {
		status = "starting"
	}

	resp := gin.H{
		"status":    status,
		"ready":     ready,
		"version":   h.version,
		"uptime":    time.Since(h.startTime).Truncate(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"system": gin.H{
			"total_memory": memory.TotalMemory(),
			"free_memory":  memory.FreeMemory(),
		},
	}
	if h.status != nil {
		resp["prover"] = h.status.Status()
	}
	c.JSON(http.StatusOK, resp)
}

// GetLiveness 存活检查
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// GetReadiness 就绪检查
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	if !h.readiness.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
