package api_router

import (
	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	apperrors "github.com/haierkeys/fast-note-graph-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GraphHandler 图谱 API 路由处理器
type GraphHandler struct {
	*Handler
}

// NewGraphHandler 创建 GraphHandler 实例
func NewGraphHandler(a *app.App) *GraphHandler {
	return &GraphHandler{Handler: NewHandler(a)}
}

// Graph 获取当前用户的完整图谱（节点与边）
func (h *GraphHandler) Graph(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("GraphHandler.Graph err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()
	graph, err := h.App.GraphService.Graph(ctx, uid)
	if err != nil {
		h.logError(ctx, "GraphHandler.Graph", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(graph))
}

// Reindex 重新解析当前用户全部笔记（或 noteId 指定的单条笔记）的链接
func (h *GraphHandler) Reindex(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.GraphReindexRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("GraphHandler.Reindex.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("GraphHandler.Reindex err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.GraphService.Reindex(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "GraphHandler.Reindex", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}
