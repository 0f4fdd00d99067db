// Package http 提供证明服务的 HTTP 接口
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/poseidon-prover/internal/api/http/handlers"
	"github.com/weisyn/poseidon-prover/internal/api/http/middleware"
	"github.com/weisyn/poseidon-prover/internal/app/version"
	apiconfig "github.com/weisyn/poseidon-prover/internal/config/api"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
)

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    *apiconfig.HTTPConfig
	logger     log.Logger
	listener   net.Listener
}

// NewServer 创建HTTP服务器并注册路由
func NewServer(
	options *apiconfig.HTTPConfig,
	logger log.Logger,
	handler zkif.ProofHandler,
	readiness zkif.Readiness,
	status zkif.StatusReporter,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.BodyLimit(int64(options.MaxRequestSize)),
	)

	s := &Server{
		router:  router,
		options: options,
		logger:  logger,
	}
	s.setupRoutes(handler, readiness, status)
	return s
}

// setupRoutes 设置HTTP路由
func (s *Server) setupRoutes(handler zkif.ProofHandler, readiness zkif.Readiness, status zkif.StatusReporter) {
	handlers.NewProveHandler(handler, s.logger).RegisterRoutes(s.router)
	handlers.NewHealthHandler(readiness, status, version.GetVersion()).RegisterRoutes(s.router)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler 返回路由（测试使用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 监听端口并在后台提供服务
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.options.Host, s.options.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务器异常退出: %v", err)
		}
	}()

	s.logger.Infof("✅ HTTP服务器启动成功，监听地址: %s", listener.Addr())
	s.logger.Infof("🩺 健康检查: http://%s/health", listener.Addr())
	return nil
}

// Addr 实际监听地址（端口为 0 时由系统分配）
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("🔄 关闭HTTP服务器...")
	return s.httpServer.Shutdown(ctx)
}
