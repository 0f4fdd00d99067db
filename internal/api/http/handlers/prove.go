package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// ProveHandler 证明任务端点
//
// 流水线阶段失败仍返回 200，失败信息位于 ProofDetail.error；
// 非 2xx 只表示任务没有被处理（请求非法、服务未就绪、超时）。
type ProveHandler struct {
	handler zkif.ProofHandler
	logger  log.Logger
}

// NewProveHandler 创建证明任务处理器
func NewProveHandler(handler zkif.ProofHandler, logger log.Logger) *ProveHandler {
	return &ProveHandler{handler: handler, logger: logger}
}

// RegisterRoutes 注册路由
//
//	POST /                - 兼容调度方的根路径投递
//	POST /api/v1/prove
func (h *ProveHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/", h.Prove)
	r.POST("/api/v1/prove", h.Prove)
}

// Prove 处理一个证明任务
func (h *ProveHandler) Prove(c *gin.Context) {
	var task types.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge, err.Error())
			return
		}
		writeError(c, http.StatusBadRequest, ErrInvalidArgument, "无效的任务: "+err.Error())
		return
	}

	detail, err := h.handler.Handle(c.Request.Context(), &task)
	if err != nil {
		h.logger.Warnf("任务未处理: task_id=%s, err=%v", task.ID, err)
		switch {
		case errors.Is(err, zkproof.ErrParamsNotReady), errors.Is(err, zkproof.ErrPoolStopped):
			writeError(c, http.StatusServiceUnavailable, ErrServiceUnavailable, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(c, http.StatusGatewayTimeout, ErrTimeout, err.Error())
		case errors.Is(err, context.Canceled):
			writeError(c, http.StatusServiceUnavailable, ErrServiceUnavailable, err.Error())
		default:
			writeError(c, http.StatusInternalServerError, ErrInternal, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, detail)
}
