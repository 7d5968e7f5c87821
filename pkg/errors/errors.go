// Package errors renders service errors as the JSON error envelope.
package errors

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haierkeys/fast-note-graph-service/internal/middleware"
	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
)

// AppError 错误响应体
type AppError struct {
	Code int `json:"code"`
	// Status 始终为 false，与成功响应的结构保持一致
	Status    bool      `json:"status"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError wraps cause under a response code
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// fromCode 按请求语言渲染 Code
func fromCode(c *gin.Context, codeErr *code.Code, cause error) *AppError {
	return &AppError{
		Code:      codeErr.Code(),
		Message:   codeErr.MsgIn(app.GetLang(c)),
		Details:   codeErr.Details(),
		TraceID:   middleware.GetTraceIDFromGin(c),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// ErrorResponse writes err as an AppError with the request's trace id.
// A request deadline maps to ErrorRequestTimeout; anything without a code is an
// internal error and its cause is attached to the gin context for the access log.
func ErrorResponse(c *gin.Context, err error) {
	var (
		appErr  *AppError
		codeErr *code.Code
	)
	switch {
	case errors.As(err, &appErr):
		appErr.TraceID = middleware.GetTraceIDFromGin(c)
		c.JSON(http.StatusOK, appErr)
	case errors.As(err, &codeErr):
		c.JSON(http.StatusOK, fromCode(c, codeErr, nil))
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusOK, fromCode(c, code.ErrorRequestTimeout, err))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusOK, fromCode(c, code.ErrorServerInternal, err))
	}
}

// IsAppError reports whether err's chain holds an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError 从错误链中获取 AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
