// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/haierkeys/fast-note-graph-service/pkg/timex"
)

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID        string     `json:"id" form:"id"`
	Title     string     `json:"title" form:"title"`
	Body      string     `json:"body" form:"body"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// NoteNoBodyDTO Note DTO without body, used in lists and link lists
// NoteNoBodyDTO 不包含内容的笔记 DTO，用于列表与链接列表
type NoteNoBodyDTO struct {
	ID        string     `json:"id" form:"id"`
	Title     string     `json:"title" form:"title"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// NoteWithLinksDTO a note together with its adjacency
// NoteWithLinksDTO 笔记及其双向链接
type NoteWithLinksDTO struct {
	NoteDTO
	LinksFrom  []*NoteNoBodyDTO `json:"linksFrom"`
	LinksTo    []*NoteNoBodyDTO `json:"linksTo"`
	Unresolved []string         `json:"unresolved,omitempty"`
}

// NoteCreateRequest Request parameters for creating a note
// 创建笔记的请求参数
type NoteCreateRequest struct {
	Title string `json:"title" form:"title" binding:"required,min=1,max=255,linktitle"`
	Body  string `json:"body" form:"body"`
}

// NoteUpdateRequest Request parameters for renaming a note and/or writing its body.
// A nil field is left unchanged.
// 重命名笔记和/或写入内容的请求参数，nil 字段保持不变
type NoteUpdateRequest struct {
	ID    string  `json:"id" form:"id" binding:"required"`
	Title *string `json:"title" form:"title" binding:"omitempty,min=1,max=255,linktitle"`
	Body  *string `json:"body" form:"body"`
}

// NoteGetRequest Request parameters for getting or deleting a note
// 获取或删除笔记的请求参数
type NoteGetRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

// NoteListRequest Pagination and filter parameters for note list
// 笔记列表分页与过滤参数
type NoteListRequest struct {
	Keyword string `json:"keyword" form:"keyword"`
}

// NoteLinksRequest Graph accessor query
// 链接查询参数，direction 为 from（出链）或 to（反向链接）
type NoteLinksRequest struct {
	ID        string `json:"id" form:"id" binding:"required"`
	Direction string `json:"direction" form:"direction" binding:"omitempty,oneof=from to"`
}

// NoteSuggestRequest Title autocomplete parameters
// 标题联想参数
type NoteSuggestRequest struct {
	Prefix string `json:"prefix" form:"prefix"`
	Limit  int    `json:"limit" form:"limit" binding:"omitempty,min=1,max=50"`
}
