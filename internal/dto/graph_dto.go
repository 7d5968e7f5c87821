package dto

// GraphReindexRequest Reindex parameters
// 图谱重建参数
type GraphReindexRequest struct {
	// NoteID reindexes a single note when set
	// NoteID 非空时仅重建该笔记
	NoteID string `json:"noteId" form:"noteId"`
}

// GraphReindexResult Reindex summary
// GraphReindexResult 图谱重建结果
type GraphReindexResult struct {
	Notes    int `json:"notes"`
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}

// ResolveRequest title resolution request
// ResolveRequest 标题解析请求
type ResolveRequest struct {
	Body string `json:"body" form:"body"`
}

// ResolveResult tokens found in a body and how they resolved
// ResolveResult 内容中的链接及其解析结果
type ResolveResult struct {
	Tokens     []string          `json:"tokens"`
	Resolved   map[string]string `json:"resolved"`
	Unresolved []string          `json:"unresolved"`
}
