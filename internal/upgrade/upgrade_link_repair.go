package upgrade

import (
	"context"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LinkRepairMigrate 清理删除笔记时遗留的链接
// 0.3.0 之前删除笔记与删除链接不在同一事务中
type LinkRepairMigrate struct{}

func (m *LinkRepairMigrate) Version() string {
	return "0.3.0"
}

func (m *LinkRepairMigrate) Description() string {
	return "Remove note_link rows whose source or target note no longer exists"
}

func (m *LinkRepairMigrate) Up(ctx context.Context, tx *gorm.DB, zl *zap.Logger) error {
	removed, err := dao.NewNoteLinkRepository(dao.New(tx, dao.WithLogger(zl))).DeleteDangling(ctx)
	if err != nil {
		return err
	}
	zl.Info("link repair", zap.Int64("removed", removed))
	return nil
}
