package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ContextTimeout bounds every request, including its storage transaction.
// An expired deadline rolls the write back; if the handler wrote nothing the
// client gets ErrorRequestTimeout.
func ContextTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			app.NewResponse(c).ToResponse(code.ErrorRequestTimeout)
		}
	}
}
