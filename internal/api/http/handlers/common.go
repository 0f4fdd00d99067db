package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/poseidon-prover/internal/api/http/middleware"
)

// 错误码
const (
	ErrInvalidArgument    = "INVALID_ARGUMENT"
	ErrPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrTimeout            = "TIMEOUT"
	ErrInternal           = "INTERNAL"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// writeError 写入错误响应
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}
