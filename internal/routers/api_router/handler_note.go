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

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{
		Handler: NewHandler(a),
	}
}

// bind 绑定参数并取出用户 ID，失败时已写出响应
func (h *NoteHandler) bind(c *gin.Context, method string, params any) (int64, bool) {
	response := pkgapp.NewResponse(c)

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error(method+".BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return 0, false
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error(method + " err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return 0, false
	}
	return uid, true
}

// Create 创建笔记
// 写入内容后立即解析 [[标题]] 并建立出链
func (h *NoteHandler) Create(c *gin.Context) {
	params := &dto.NoteCreateRequest{}
	uid, ok := h.bind(c, "NoteHandler.Create", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessCreate.WithData(note))
}

// Update 重命名笔记和/或写入内容
func (h *NoteHandler) Update(c *gin.Context) {
	params := &dto.NoteUpdateRequest{}
	uid, ok := h.bind(c, "NoteHandler.Update", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Update(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(note))
}

// Delete 删除笔记，同时删除所有指向它和由它发出的链接
func (h *NoteHandler) Delete(c *gin.Context) {
	params := &dto.NoteGetRequest{}
	uid, ok := h.bind(c, "NoteHandler.Delete", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.App.NoteService.Delete(ctx, uid, params.ID); err != nil {
		h.logError(ctx, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessDelete)
}

// Get 获取笔记详情及其双向链接
func (h *NoteHandler) Get(c *gin.Context) {
	params := &dto.NoteGetRequest{}
	uid, ok := h.bind(c, "NoteHandler.Get", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Get(ctx, uid, params.ID)
	if err != nil {
		h.logError(ctx, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(note))
}

// List 分页获取笔记列表
func (h *NoteHandler) List(c *gin.Context) {
	params := &dto.NoteListRequest{}
	uid, ok := h.bind(c, "NoteHandler.List", params)
	if !ok {
		return
	}

	pager := &pkgapp.Pager{
		Page:     pkgapp.GetPage(c),
		PageSize: pkgapp.GetPageSizeWithConfig(c, h.App.Config().GetPaginationConfig()),
	}

	ctx := c.Request.Context()
	notes, count, err := h.App.NoteService.List(ctx, uid, params, pager)
	if err != nil {
		h.logError(ctx, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponseList(code.Success, notes, pkgapp.NewPager(pager.Page, pager.PageSize, count))
}

// Links 获取出链（direction=from，默认）或反向链接（direction=to）
func (h *NoteHandler) Links(c *gin.Context) {
	params := &dto.NoteLinksRequest{}
	uid, ok := h.bind(c, "NoteHandler.Links", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	notes, err := h.App.NoteService.Links(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Links", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(notes))
}

// Suggest 标题联想，用于编辑器补全 [[
func (h *NoteHandler) Suggest(c *gin.Context) {
	params := &dto.NoteSuggestRequest{}
	uid, ok := h.bind(c, "NoteHandler.Suggest", params)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	notes, err := h.App.NoteService.Suggest(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Suggest", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(notes))
}
