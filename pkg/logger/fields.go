package logger

// Shared log field names, keep them stable for log queries
// 统一的日志字段命名常量，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldTitle 笔记标题字段
	FieldTitle = "title"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldInserted 新增边数量
	FieldInserted = "inserted"

	// FieldDeleted 删除边数量
	FieldDeleted = "deleted"

	// FieldKept 保留边数量
	FieldKept = "kept"

	// FieldUnresolved 未解析标题数量
	FieldUnresolved = "unresolved"

	// FieldTask 定时任务名称
	FieldTask = "task"
)
