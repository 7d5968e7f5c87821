package routers

import (
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/middleware"
	"github.com/haierkeys/fast-note-graph-service/internal/routers/api_router"
	"github.com/haierkeys/fast-note-graph-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// NewRouter 创建公共 HTTP 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	methodLimiters := limiter.NewMethodLimiter()
	if cfg.Limiter.Enabled {
		methodLimiters.AddBuckets(cfg.GetLimiterRules()...)
	}

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 图谱变更推送，连接建立后通过 Authorization 消息认证
		api.GET("/graph/ws", appContainer.WSS.Run())

		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))

		// 创建 Handlers（注入 App Container）
		noteHandler := api_router.NewNoteHandler(appContainer)
		graphHandler := api_router.NewGraphHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		// 无需认证
		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		auth := api.Group("", middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey))
		{
			auth.POST("/note", noteHandler.Create)
			auth.PUT("/note", noteHandler.Update)
			auth.DELETE("/note", noteHandler.Delete)
			auth.GET("/note", noteHandler.Get)
			auth.GET("/notes", noteHandler.List)
			auth.GET("/note/links", noteHandler.Links)
			auth.GET("/note/suggest", noteHandler.Suggest)

			auth.GET("/graph", graphHandler.Graph)
			auth.POST("/graph/reindex", graphHandler.Reindex)
		}
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
