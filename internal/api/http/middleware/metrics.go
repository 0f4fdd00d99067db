package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/poseidon-prover/internal/core/infrastructure/metrics"
)

// Metrics 收集请求数与耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 使用路由模板，避免路径参数导致标签基数膨胀
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
