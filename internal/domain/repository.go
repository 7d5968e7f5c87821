package domain

import "context"

// Transactor runs fn in one database transaction.
// Repository calls made with the ctx passed to fn join that transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoteRepository 笔记仓储接口
type NoteRepository interface {
	// GetByID 根据ID获取笔记，不存在时返回 ErrNoteNotFound
	GetByID(ctx context.Context, id string, uid int64) (*Note, error)

	// GetByIDForUpdate 获取笔记并锁定该行直到事务结束
	GetByIDForUpdate(ctx context.Context, id string, uid int64) (*Note, error)

	// Create 创建笔记，标题冲突时返回 ErrNoteTitleExists
	Create(ctx context.Context, note *Note) (*Note, error)

	// UpdateTitle 重命名笔记
	UpdateTitle(ctx context.Context, id, title string, uid int64) error

	// UpdateBody 更新笔记内容
	UpdateBody(ctx context.Context, id, body string, uid int64) error

	// Delete 物理删除笔记
	Delete(ctx context.Context, id string, uid int64) error

	// ListByTitles 按标题批量查找笔记（精确匹配，区分大小写）
	ListByTitles(ctx context.Context, titles []string, uid int64) ([]*Note, error)

	// List 分页获取笔记列表（不含内容）
	List(ctx context.Context, page, pageSize int, keyword string, uid int64) ([]*Note, error)

	// ListCount 获取笔记数量
	ListCount(ctx context.Context, keyword string, uid int64) (int64, error)

	// SuggestTitles 按标题前缀联想
	SuggestTitles(ctx context.Context, prefix string, limit int, uid int64) ([]*Note, error)

	// ListNodes 获取所有笔记的 ID 与标题
	ListNodes(ctx context.Context, uid int64) ([]*Note, error)

	// ListOwners 获取所有拥有笔记的用户
	ListOwners(ctx context.Context) ([]int64, error)
}

// NoteLinkRepository 笔记链接仓储接口
type NoteLinkRepository interface {
	// TargetsOf 获取源笔记当前的所有链接目标
	TargetsOf(ctx context.Context, sourceID string, uid int64) ([]string, error)

	// Insert 插入链接，已存在的边被忽略，返回实际插入数
	Insert(ctx context.Context, sourceID string, targetIDs []string, uid int64) (int, error)

	// DeletePairs 删除源笔记指向 targetIDs 的链接
	DeletePairs(ctx context.Context, sourceID string, targetIDs []string, uid int64) (int, error)

	// DeleteByNote 删除以该笔记为源或目标的所有链接
	DeleteByNote(ctx context.Context, noteID string, uid int64) (int, error)

	// LinksFrom 获取笔记链接到的笔记
	LinksFrom(ctx context.Context, noteID string, uid int64) ([]*Note, error)

	// LinksTo 获取链接到该笔记的笔记
	LinksTo(ctx context.Context, noteID string, uid int64) ([]*Note, error)

	// ListByOwner 获取用户的所有链接
	ListByOwner(ctx context.Context, uid int64) ([]*NoteLink, error)

	// DeleteDangling 删除端点缺失或跨用户的链接
	DeleteDangling(ctx context.Context) (int64, error)
}
