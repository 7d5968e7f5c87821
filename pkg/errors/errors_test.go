package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/fast-note-graph-service/internal/middleware"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, err error) AppError {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TraceMiddlewareWithConfig(true, ""))
	r.GET("/e", func(c *gin.Context) { ErrorResponse(c, err) })

	req := httptest.NewRequest(http.MethodGet, "/e", nil)
	req.Header.Set(middleware.DefaultTraceIDHeader, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out AppError
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		details  []string
	}{
		{
			name:     "code",
			err:      code.ErrorNoteNotFound.WithDetails("n1"),
			wantCode: code.ErrorNoteNotFound.Code(),
			details:  []string{"n1"},
		},
		{
			name:     "wrapped code",
			err:      fmt.Errorf("update: %w", code.ErrorNoteTitleExists),
			wantCode: code.ErrorNoteTitleExists.Code(),
		},
		{
			name:     "app error",
			err:      NewAppError(code.ErrorDBQuery, fmt.Errorf("disk full")),
			wantCode: code.ErrorDBQuery.Code(),
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("list: %w", context.DeadlineExceeded),
			wantCode: code.ErrorRequestTimeout.Code(),
		},
		{
			name:     "unknown",
			err:      fmt.Errorf("boom"),
			wantCode: code.ErrorServerInternal.Code(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := serve(t, tt.err)
			assert.Equal(t, tt.wantCode, out.Code)
			assert.False(t, out.Status)
			assert.Equal(t, "trace-1", out.TraceID)
			assert.Equal(t, tt.details, out.Details)
			assert.NotEmpty(t, out.Message)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := fmt.Errorf("outer: %w", NewAppError(code.ErrorNoteSaveFailed, cause))

	assert.True(t, IsAppError(err))
	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, code.ErrorNoteSaveFailed.Code(), appErr.Code)
	assert.Nil(t, GetAppError(cause))
}
