package code

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	Failed  = NewError(0, lang{en: "Failed", zh_cn: "失败"})

	SuccessCreate = NewSuss(2, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessUpdate = NewSuss(3, lang{en: "Updated successfully", zh_cn: "更新成功"})
	SuccessDelete = NewSuss(4, lang{en: "Deleted successfully", zh_cn: "删除成功"})

	ErrorServerInternal       = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI          = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorInvalidParams        = NewError(400, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests      = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorRequestTimeout       = NewError(408, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorNotUserAuthToken     = NewError(401, lang{en: "Missing authorization token", zh_cn: "缺少授权令牌"})
	ErrorInvalidUserAuthToken = NewError(402, lang{en: "Invalid authorization token", zh_cn: "授权令牌无效"})
	ErrorInvalidAuthToken     = NewError(403, lang{en: "Authorization token expired or revoked", zh_cn: "授权令牌已过期或失效"})

	ErrorDBQuery = NewError(1001, lang{en: "Database query failed", zh_cn: "数据库查询失败"})

	ErrorNoteNotFound     = NewError(2001, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNoteTitleExists  = NewError(2002, lang{en: "A note with this title already exists", zh_cn: "同名笔记已存在"})
	ErrorNoteSaveFailed   = NewError(2003, lang{en: "Failed to save note", zh_cn: "笔记保存失败"})
	ErrorNoteDeleteFailed = NewError(2004, lang{en: "Failed to delete note", zh_cn: "笔记删除失败"})
	ErrorNoteTitleEmpty   = NewError(2005, lang{en: "Note title must not be empty", zh_cn: "笔记标题不能为空"})

	ErrorGraphReindexFailed = NewError(3001, lang{en: "Graph reindex failed", zh_cn: "图谱重建失败"})
	ErrorGraphBusy          = NewError(3002, lang{en: "Graph is busy, try again later", zh_cn: "图谱繁忙，请稍后再试"})
)
