package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/metrics"
	"github.com/haierkeys/fast-note-graph-service/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TaskPool runs fn on a bounded set of workers and waits for it
type TaskPool interface {
	Submit(ctx context.Context, fn func(ctx context.Context) error) error
}

// GraphService 图谱服务接口
type GraphService interface {
	// Graph 获取用户的完整链接图谱
	Graph(ctx context.Context, uid int64) (*domain.NoteGraph, error)

	// Reindex 重新解析用户全部笔记（或单条笔记）的链接
	Reindex(ctx context.Context, uid int64, params *dto.GraphReindexRequest) (*dto.GraphReindexResult, error)

	// ReindexAll 重新解析所有用户的笔记
	ReindexAll(ctx context.Context) (*dto.GraphReindexResult, error)

	// Audit 清理端点缺失或跨用户的链接
	Audit(ctx context.Context) (int64, error)

	// Resolve 解析内容中的链接但不写入
	Resolve(ctx context.Context, uid int64, params *dto.ResolveRequest) (*dto.ResolveResult, error)
}

// graphService 实现 GraphService 接口
type graphService struct {
	tx           domain.Transactor
	noteRepo     domain.NoteRepository
	noteLinkRepo domain.NoteLinkRepository
	linkSvc      NoteLinkService
	lanes        WriteLanes
	pool         TaskPool
	notifier     domain.GraphNotifier
	sf           *singleflight.Group
	reindexing   sync.Map // uid -> struct{}, one full reindex per owner at a time
	config       *ServiceConfig
	logger       *zap.Logger
}

// NewGraphService 创建 GraphService 实例
func NewGraphService(
	tx domain.Transactor,
	noteRepo domain.NoteRepository,
	noteLinkRepo domain.NoteLinkRepository,
	linkSvc NoteLinkService,
	lanes WriteLanes,
	pool TaskPool,
	notifier domain.GraphNotifier,
	config *ServiceConfig,
	zl *zap.Logger,
) GraphService {
	if notifier == nil {
		notifier = domain.NopGraphNotifier{}
	}
	if zl == nil {
		zl = zap.NewNop()
	}
	return &graphService{
		tx:           tx,
		noteRepo:     noteRepo,
		noteLinkRepo: noteLinkRepo,
		linkSvc:      linkSvc,
		lanes:        lanes,
		pool:         pool,
		notifier:     notifier,
		sf:           &singleflight.Group{},
		config:       config.withDefaults(),
		logger:       zl,
	}
}

// Graph builds the node and edge lists of uid.
// Identical concurrent requests share one database round trip.
func (s *graphService) Graph(ctx context.Context, uid int64) (*domain.NoteGraph, error) {
	v, err, _ := s.sf.Do("graph:"+strconv.FormatInt(uid, 10), func() (any, error) {
		return s.loadGraph(context.WithoutCancel(ctx), uid)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.NoteGraph), nil
}

func (s *graphService) loadGraph(ctx context.Context, uid int64) (*domain.NoteGraph, error) {
	var (
		notes []*domain.Note
		links []*domain.NoteLink
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = s.noteRepo.ListNodes(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = s.noteLinkRepo.ListByOwner(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	graph := &domain.NoteGraph{
		Nodes: make([]domain.GraphNode, 0, len(notes)),
		Edges: make([]domain.GraphEdge, 0, len(links)),
	}
	ids := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		ids[n.ID] = struct{}{}
		graph.Nodes = append(graph.Nodes, domain.GraphNode{ID: n.ID, Title: n.Title})
	}
	// the two reads are not one snapshot; drop edges whose endpoint vanished in between
	for _, l := range links {
		_, okSrc := ids[l.SourceNoteID]
		_, okDst := ids[l.TargetNoteID]
		if okSrc && okDst {
			graph.Edges = append(graph.Edges, domain.GraphEdge{Source: l.SourceNoteID, Target: l.TargetNoteID})
		}
	}
	return graph, nil
}

// Reindex re-runs tokenize, resolve and reconcile for every note of uid.
// Each note is rewritten in its own transaction on its own lane, so a failing
// note does not roll back the others.
func (s *graphService) Reindex(ctx context.Context, uid int64, params *dto.GraphReindexRequest) (*dto.GraphReindexResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.App.ReindexTimeout)
	defer cancel()

	var ids []string
	if params != nil && params.NoteID != "" {
		if _, err := s.noteRepo.GetByID(ctx, params.NoteID, uid); err != nil {
			return nil, noteError(err, code.ErrorDBQuery)
		}
		ids = []string{params.NoteID}
	} else {
		if _, busy := s.reindexing.LoadOrStore(uid, struct{}{}); busy {
			return nil, code.ErrorGraphBusy
		}
		defer s.reindexing.Delete(uid)

		notes, err := s.noteRepo.ListNodes(ctx, uid)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		ids = make([]string, 0, len(notes))
		for _, n := range notes {
			ids = append(ids, n.ID)
		}
	}

	start := time.Now()
	var inserted, deleted, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.App.ReindexConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := s.pool.Submit(gctx, func(ctx context.Context) error {
				res, err := s.reindexNote(ctx, uid, id)
				if errors.Is(err, domain.ErrNoteNotFound) {
					// deleted after listing
					return nil
				}
				if err != nil {
					return err
				}
				inserted.Add(int64(res.Inserted))
				deleted.Add(int64(res.Deleted))
				return nil
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				s.logger.Warn("reindex note failed",
					zap.Int64(logger.FieldUID, uid),
					zap.String(logger.FieldNoteID, id),
					zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, code.ErrorGraphReindexFailed.WithDetails(err.Error())
	}

	result := &dto.GraphReindexResult{
		Notes:    len(ids),
		Inserted: int(inserted.Load()),
		Deleted:  int(deleted.Load()),
		Failed:   int(failed.Load()),
	}

	s.logger.Info("graph reindexed",
		zap.Int64(logger.FieldUID, uid),
		zap.Int("notes", result.Notes),
		zap.Int(logger.FieldInserted, result.Inserted),
		zap.Int(logger.FieldDeleted, result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Duration(logger.FieldDuration, time.Since(start)))

	if result.Inserted > 0 || result.Deleted > 0 {
		event := domain.GraphChangedEvent{
			OwnerID:  uid,
			Action:   domain.GraphActionReindex,
			Inserted: result.Inserted,
			Deleted:  result.Deleted,
		}
		if len(ids) == 1 {
			event.NoteID = ids[0]
		}
		s.notifier.NotifyGraphChanged(context.WithoutCancel(ctx), event)
	}
	return result, nil
}

func (s *graphService) reindexNote(ctx context.Context, uid int64, id string) (*domain.ReconcileResult, error) {
	var res *domain.ReconcileResult
	err := s.lanes.Execute(ctx, laneKey(uid, id), func(ctx context.Context) error {
		return s.tx.Transaction(ctx, func(ctx context.Context) error {
			note, err := s.noteRepo.GetByIDForUpdate(ctx, id, uid)
			if err != nil {
				return err
			}
			res, _, err = s.linkSvc.SyncLinks(ctx, uid, note.ID, note.Body)
			return err
		})
	})
	return res, err
}

// ReindexAll 依次重建每个用户的图谱
func (s *graphService) ReindexAll(ctx context.Context) (*dto.GraphReindexResult, error) {
	uids, err := s.noteRepo.ListOwners(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	total := &dto.GraphReindexResult{}
	for _, uid := range uids {
		res, err := s.Reindex(ctx, uid, nil)
		if err != nil {
			return total, err
		}
		total.Notes += res.Notes
		total.Inserted += res.Inserted
		total.Deleted += res.Deleted
		total.Failed += res.Failed
	}
	return total, nil
}

// Audit 删除悬空链接
func (s *graphService) Audit(ctx context.Context) (int64, error) {
	var removed int64
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.noteLinkRepo.DeleteDangling(ctx)
		return err
	})
	if err != nil {
		return 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	metrics.AuditRemoved.Add(float64(removed))
	if removed > 0 {
		s.logger.Warn("graph audit removed dangling links", zap.Int64("removed", removed))
	}
	return removed, nil
}

// Resolve 只读解析，不修改图谱
func (s *graphService) Resolve(ctx context.Context, uid int64, params *dto.ResolveRequest) (*dto.ResolveResult, error) {
	tokens := util.Tokenize(params.Body)
	resolution, err := s.linkSvc.Resolve(ctx, uid, tokens)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(resolution.Resolved))
	for _, rt := range resolution.Resolved {
		resolved[rt.Title] = rt.NoteID
	}
	return &dto.ResolveResult{
		Tokens:     tokens,
		Resolved:   resolved,
		Unresolved: resolution.Unresolved,
	}, nil
}

// Ensure graphService implements GraphService interface
var _ GraphService = (*graphService)(nil)
