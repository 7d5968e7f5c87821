package middleware

import (
	"strings"

	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserAuthTokenWithConfig 用户 Token 认证中间件（使用注入的密钥）
// Token 来源依次为: Authorization 请求头, ?token=, Token 请求头
func UserAuthTokenWithConfig(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		response := app.NewResponse(c)

		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := app.ParseTokenWithKey(token, secretKey)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Set(app.UserTokenKey, user)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if s := c.GetHeader("Authorization"); s != "" {
		return strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
	}
	if s, ok := c.GetQuery("token"); ok {
		return s
	}
	return c.GetHeader("Token")
}
