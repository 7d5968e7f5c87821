package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/convert"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/validator"
	"github.com/haierkeys/fast-note-graph-service/pkg/writequeue"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WriteLanes serializes writes that share a key
type WriteLanes interface {
	Execute(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 创建笔记并建立链接
	Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteWithLinksDTO, error)

	// Update 重命名和/或写入内容，写入内容时重新计算出链
	Update(ctx context.Context, uid int64, params *dto.NoteUpdateRequest) (*dto.NoteWithLinksDTO, error)

	// Delete 删除笔记及其所有链接
	Delete(ctx context.Context, uid int64, id string) error

	// Get 获取笔记及其出链和反向链接
	Get(ctx context.Context, uid int64, id string) (*dto.NoteWithLinksDTO, error)

	// List 获取笔记列表
	List(ctx context.Context, uid int64, params *dto.NoteListRequest, pager *app.Pager) ([]*dto.NoteNoBodyDTO, int, error)

	// Links 按方向获取链接笔记
	Links(ctx context.Context, uid int64, params *dto.NoteLinksRequest) ([]*dto.NoteNoBodyDTO, error)

	// Suggest 标题联想
	Suggest(ctx context.Context, uid int64, params *dto.NoteSuggestRequest) ([]*dto.NoteNoBodyDTO, error)
}

// noteService 实现 NoteService 接口
type noteService struct {
	tx       domain.Transactor
	noteRepo domain.NoteRepository
	linkSvc  NoteLinkService
	lanes    WriteLanes
	notifier domain.GraphNotifier
	config   *ServiceConfig
	logger   *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(
	tx domain.Transactor,
	noteRepo domain.NoteRepository,
	linkSvc NoteLinkService,
	lanes WriteLanes,
	notifier domain.GraphNotifier,
	config *ServiceConfig,
	zl *zap.Logger,
) NoteService {
	if notifier == nil {
		notifier = domain.NopGraphNotifier{}
	}
	if zl == nil {
		zl = zap.NewNop()
	}
	return &noteService{
		tx:       tx,
		noteRepo: noteRepo,
		linkSvc:  linkSvc,
		lanes:    lanes,
		notifier: notifier,
		config:   config.withDefaults(),
		logger:   zl,
	}
}

// laneKey one lane per note, owners never share lanes
func laneKey(uid int64, noteID string) string {
	return fmt.Sprintf("%d/%s", uid, noteID)
}

// domainToDTO 将领域模型转换为 DTO
func domainToDTO(note *domain.Note) dto.NoteDTO {
	var out dto.NoteDTO
	// 同名字段复制，time.Time 按底层类型转换为 timex.Time
	_ = convert.StructAssign(note, &out)
	return out
}

// domainToNoBodyDTO 将领域模型转换为不含内容的 DTO
func domainToNoBodyDTO(note *domain.Note) *dto.NoteNoBodyDTO {
	out := &dto.NoteNoBodyDTO{}
	_ = convert.StructAssign(note, out)
	return out
}

func domainToNoBodyDTOList(notes []*domain.Note) []*dto.NoteNoBodyDTO {
	out := make([]*dto.NoteNoBodyDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, domainToNoBodyDTO(n))
	}
	return out
}

// checkTitle 标题必须能被 [[title]] 引用
func checkTitle(title string) error {
	if title == "" {
		return code.ErrorNoteTitleEmpty
	}
	if utf8.RuneCountInString(title) > 255 || !validator.IsLinkableTitle(title) {
		return code.ErrorInvalidParams.WithDetails("title")
	}
	return nil
}

// noteError maps domain and write lane errors to response codes.
// Errors that already carry a code pass through unchanged.
func noteError(err error, fallback *code.Code) error {
	if err == nil {
		return nil
	}

	var c *code.Code
	switch {
	case errors.Is(err, domain.ErrNoteNotFound):
		return code.ErrorNoteNotFound
	case errors.Is(err, domain.ErrNoteTitleExists):
		return code.ErrorNoteTitleExists
	case errors.Is(err, writequeue.ErrWriteQueueFull):
		return code.ErrorTooManyRequests
	case errors.Is(err, writequeue.ErrWriteTimeout), errors.Is(err, writequeue.ErrWriteQueueClosed):
		return code.ErrorNoteSaveFailed.WithDetails(err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return code.ErrorRequestTimeout
	case errors.As(err, &c):
		return c
	}
	return fallback.WithDetails(err.Error())
}

// notify 提交后推送图谱变更，失败不影响写入
func (s *noteService) notify(ctx context.Context, event domain.GraphChangedEvent) {
	s.notifier.NotifyGraphChanged(context.WithoutCancel(ctx), event)
}

// Create 创建笔记
// The new note has no prior edges, so reconcile only inserts. A body linking to
// its own title resolves to the new id and stores a self-loop.
func (s *noteService) Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteWithLinksDTO, error) {
	if err := checkTitle(params.Title); err != nil {
		return nil, err
	}

	var (
		created    *domain.Note
		res        *domain.ReconcileResult
		resolution *domain.LinkResolution
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.noteRepo.Create(ctx, &domain.Note{
			OwnerID: uid,
			Title:   params.Title,
			Body:    params.Body,
		})
		if err != nil {
			return err
		}
		res, resolution, err = s.linkSvc.SyncLinks(ctx, uid, created.ID, created.Body)
		return err
	})
	if err != nil {
		return nil, noteError(err, code.ErrorNoteSaveFailed)
	}

	s.logger.Info("note created",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldNoteID, created.ID),
		zap.String(logger.FieldTitle, created.Title),
		zap.Int(logger.FieldInserted, res.Inserted))

	s.notify(ctx, domain.GraphChangedEvent{
		OwnerID:  uid,
		NoteID:   created.ID,
		Action:   domain.GraphActionCreate,
		Inserted: res.Inserted,
	})

	return s.withLinks(ctx, uid, created, resolution)
}

// Update 更新笔记
// A title change is a rename: edges reference ids, so nothing in the graph moves.
// A body write re-derives the outgoing edges in the same transaction.
func (s *noteService) Update(ctx context.Context, uid int64, params *dto.NoteUpdateRequest) (*dto.NoteWithLinksDTO, error) {
	if params.Title != nil {
		if err := checkTitle(*params.Title); err != nil {
			return nil, err
		}
	}
	if params.Title == nil && params.Body == nil {
		return s.Get(ctx, uid, params.ID)
	}

	var (
		updated    *domain.Note
		renamed    bool
		res        *domain.ReconcileResult
		resolution *domain.LinkResolution
	)
	err := s.lanes.Execute(ctx, laneKey(uid, params.ID), func(ctx context.Context) error {
		return s.tx.Transaction(ctx, func(ctx context.Context) error {
			note, err := s.noteRepo.GetByIDForUpdate(ctx, params.ID, uid)
			if err != nil {
				return err
			}

			if params.Title != nil && *params.Title != note.Title {
				if err := s.noteRepo.UpdateTitle(ctx, note.ID, *params.Title, uid); err != nil {
					return err
				}
				renamed = true
			}

			if params.Body != nil {
				if err := s.noteRepo.UpdateBody(ctx, note.ID, *params.Body, uid); err != nil {
					return err
				}
				res, resolution, err = s.linkSvc.SyncLinks(ctx, uid, note.ID, *params.Body)
				if err != nil {
					return err
				}
			}

			updated, err = s.noteRepo.GetByID(ctx, note.ID, uid)
			return err
		})
	})
	if err != nil {
		return nil, noteError(err, code.ErrorNoteSaveFailed)
	}

	if res.Changed() || renamed {
		event := domain.GraphChangedEvent{
			OwnerID: uid,
			NoteID:  updated.ID,
			Action:  domain.GraphActionUpdate,
		}
		if res != nil {
			event.Inserted = res.Inserted
			event.Deleted = res.Deleted
		}
		s.notify(ctx, event)
	}

	return s.withLinks(ctx, uid, updated, resolution)
}

// Delete 删除笔记
// Edges in both directions go first, then the row, in one transaction.
func (s *noteService) Delete(ctx context.Context, uid int64, id string) error {
	var removed int
	err := s.lanes.Execute(ctx, laneKey(uid, id), func(ctx context.Context) error {
		return s.tx.Transaction(ctx, func(ctx context.Context) error {
			if _, err := s.noteRepo.GetByIDForUpdate(ctx, id, uid); err != nil {
				return err
			}
			var err error
			if removed, err = s.linkSvc.OnNoteDeleted(ctx, uid, id); err != nil {
				return err
			}
			return s.noteRepo.Delete(ctx, id, uid)
		})
	})
	if err != nil {
		return noteError(err, code.ErrorNoteDeleteFailed)
	}

	s.logger.Info("note deleted",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldNoteID, id),
		zap.Int(logger.FieldDeleted, removed))

	s.notify(ctx, domain.GraphChangedEvent{
		OwnerID: uid,
		NoteID:  id,
		Action:  domain.GraphActionDelete,
		Deleted: removed,
	})
	return nil
}

// Get 获取笔记
func (s *noteService) Get(ctx context.Context, uid int64, id string) (*dto.NoteWithLinksDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, id, uid)
	if err != nil {
		return nil, noteError(err, code.ErrorDBQuery)
	}
	return s.withLinks(ctx, uid, note, nil)
}

// withLinks loads both directions concurrently
func (s *noteService) withLinks(ctx context.Context, uid int64, note *domain.Note, resolution *domain.LinkResolution) (*dto.NoteWithLinksDTO, error) {
	var from, to []*domain.Note

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		from, err = s.linkSvc.LinksFrom(gctx, uid, note.ID)
		return err
	})
	g.Go(func() error {
		var err error
		to, err = s.linkSvc.LinksTo(gctx, uid, note.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, noteError(err, code.ErrorDBQuery)
	}

	out := &dto.NoteWithLinksDTO{
		NoteDTO:   domainToDTO(note),
		LinksFrom: domainToNoBodyDTOList(from),
		LinksTo:   domainToNoBodyDTOList(to),
	}
	if resolution != nil {
		out.Unresolved = resolution.Unresolved
	}
	return out, nil
}

// List 获取笔记列表
func (s *noteService) List(ctx context.Context, uid int64, params *dto.NoteListRequest, pager *app.Pager) ([]*dto.NoteNoBodyDTO, int, error) {
	var (
		notes []*domain.Note
		count int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = s.noteRepo.List(gctx, pager.Page, pager.PageSize, params.Keyword, uid)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.noteRepo.ListCount(gctx, params.Keyword, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, noteError(err, code.ErrorDBQuery)
	}

	return domainToNoBodyDTOList(notes), int(count), nil
}

// Links 按方向获取链接，默认出链
func (s *noteService) Links(ctx context.Context, uid int64, params *dto.NoteLinksRequest) ([]*dto.NoteNoBodyDTO, error) {
	if _, err := s.noteRepo.GetByID(ctx, params.ID, uid); err != nil {
		return nil, noteError(err, code.ErrorDBQuery)
	}

	var (
		notes []*domain.Note
		err   error
	)
	if params.Direction == "to" {
		notes, err = s.linkSvc.LinksTo(ctx, uid, params.ID)
	} else {
		notes, err = s.linkSvc.LinksFrom(ctx, uid, params.ID)
	}
	if err != nil {
		return nil, noteError(err, code.ErrorDBQuery)
	}
	return domainToNoBodyDTOList(notes), nil
}

// Suggest 标题联想
func (s *noteService) Suggest(ctx context.Context, uid int64, params *dto.NoteSuggestRequest) ([]*dto.NoteNoBodyDTO, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = s.config.App.SuggestLimit
	}

	notes, err := s.noteRepo.SuggestTitles(ctx, params.Prefix, limit, uid)
	if err != nil {
		return nil, noteError(err, code.ErrorDBQuery)
	}
	return domainToNoBodyDTOList(notes), nil
}

// Ensure noteService implements NoteService interface
var _ NoteService = (*noteService)(nil)
