package upgrade

import (
	"context"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/service"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LinkBackfillMigrate 为链接表出现之前创建的笔记补建出链
type LinkBackfillMigrate struct{}

func (m *LinkBackfillMigrate) Version() string {
	return "0.2.0"
}

func (m *LinkBackfillMigrate) Description() string {
	return "Build note_link rows from the bodies of existing notes"
}

// Up 逐个用户、逐条笔记解析 [[标题]] 并写入链接
func (m *LinkBackfillMigrate) Up(ctx context.Context, tx *gorm.DB, zl *zap.Logger) error {
	d := dao.New(tx, dao.WithLogger(zl))
	noteRepo := dao.NewNoteRepository(d)
	linkSvc := service.NewNoteLinkService(noteRepo, dao.NewNoteLinkRepository(d), zl)

	uids, err := noteRepo.ListOwners(ctx)
	if err != nil {
		return err
	}

	for _, uid := range uids {
		nodes, err := noteRepo.ListNodes(ctx, uid)
		if err != nil {
			return err
		}

		inserted := 0
		for _, node := range nodes {
			note, err := noteRepo.GetByID(ctx, node.ID, uid)
			if err != nil {
				return err
			}
			res, _, err := linkSvc.SyncLinks(ctx, uid, note.ID, note.Body)
			if err != nil {
				return err
			}
			inserted += res.Inserted
		}

		zl.Info("link backfill",
			zap.Int64(logger.FieldUID, uid),
			zap.Int("notes", len(nodes)),
			zap.Int(logger.FieldInserted, inserted))
	}
	return nil
}
