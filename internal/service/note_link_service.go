package service

import (
	"context"
	"sort"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/metrics"
	"github.com/haierkeys/fast-note-graph-service/pkg/util"

	"go.uber.org/zap"
)

// NoteLinkService maintains the link graph derived from [[Title]] references.
// Write methods must be called with a ctx obtained from domain.Transactor so they
// commit or roll back together with the note content.
type NoteLinkService interface {
	// Resolve maps link titles to notes of uid, exact and case-sensitive
	Resolve(ctx context.Context, uid int64, titles []string) (*domain.LinkResolution, error)

	// Reconcile makes the stored targets of sourceID equal to targetIDs
	Reconcile(ctx context.Context, uid int64, sourceID string, targetIDs []string) (*domain.ReconcileResult, error)

	// SyncLinks runs tokenize, resolve and reconcile for a freshly written body
	SyncLinks(ctx context.Context, uid int64, sourceID, body string) (*domain.ReconcileResult, *domain.LinkResolution, error)

	// LinksFrom notes that noteID links to
	LinksFrom(ctx context.Context, uid int64, noteID string) ([]*domain.Note, error)

	// LinksTo notes that link to noteID
	LinksTo(ctx context.Context, uid int64, noteID string) ([]*domain.Note, error)

	// OnNoteDeleted removes every edge touching noteID and returns how many were removed
	OnNoteDeleted(ctx context.Context, uid int64, noteID string) (int, error)
}

// noteLinkService implements NoteLinkService interface
type noteLinkService struct {
	noteRepo     domain.NoteRepository
	noteLinkRepo domain.NoteLinkRepository
	logger       *zap.Logger
}

// NewNoteLinkService creates a NoteLinkService instance
func NewNoteLinkService(noteRepo domain.NoteRepository, noteLinkRepo domain.NoteLinkRepository, zl *zap.Logger) NoteLinkService {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &noteLinkService{
		noteRepo:     noteRepo,
		noteLinkRepo: noteLinkRepo,
		logger:       zl,
	}
}

// Resolve looks every distinct title up in one batched query.
// Titles without a match are reported in Unresolved, in first occurrence order.
func (s *noteLinkService) Resolve(ctx context.Context, uid int64, titles []string) (*domain.LinkResolution, error) {
	res := &domain.LinkResolution{
		Resolved:   []domain.ResolvedTitle{},
		Unresolved: []string{},
	}

	unique := util.UniqueTitles(titles)
	if len(unique) == 0 {
		return res, nil
	}

	notes, err := s.noteRepo.ListByTitles(ctx, unique, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	byTitle := make(map[string]string, len(notes))
	for _, n := range notes {
		byTitle[n.Title] = n.ID
	}

	for _, title := range unique {
		if id, ok := byTitle[title]; ok {
			res.Resolved = append(res.Resolved, domain.ResolvedTitle{Title: title, NoteID: id})
		} else {
			res.Unresolved = append(res.Unresolved, title)
		}
	}
	return res, nil
}

// DiffTargets splits the change from current to next into the ids to delete,
// the ids to insert and the ids already in place. Inputs may hold duplicates;
// outputs are sorted and duplicate free.
func DiffTargets(current, next []string) (toDelete, toInsert, kept []string) {
	cur := make(map[string]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	nxt := make(map[string]struct{}, len(next))
	for _, id := range next {
		nxt[id] = struct{}{}
	}

	toDelete = []string{}
	toInsert = []string{}
	kept = []string{}
	for id := range cur {
		if _, ok := nxt[id]; ok {
			kept = append(kept, id)
		} else {
			toDelete = append(toDelete, id)
		}
	}
	for id := range nxt {
		if _, ok := cur[id]; !ok {
			toInsert = append(toInsert, id)
		}
	}

	sort.Strings(toDelete)
	sort.Strings(toInsert)
	sort.Strings(kept)
	return toDelete, toInsert, kept
}

// Reconcile applies the minimal delete and insert set.
// Edges in both the old and new set are never touched.
func (s *noteLinkService) Reconcile(ctx context.Context, uid int64, sourceID string, targetIDs []string) (*domain.ReconcileResult, error) {
	current, err := s.noteLinkRepo.TargetsOf(ctx, sourceID, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	toDelete, toInsert, kept := DiffTargets(current, targetIDs)
	res := &domain.ReconcileResult{Kept: len(kept)}

	if len(toDelete) > 0 {
		n, err := s.noteLinkRepo.DeletePairs(ctx, sourceID, toDelete, uid)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		res.Deleted = n
	}

	if len(toInsert) > 0 {
		n, err := s.noteLinkRepo.Insert(ctx, sourceID, toInsert, uid)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		res.Inserted = n
	}

	return res, nil
}

// SyncLinks tokenize -> resolve -> reconcile
func (s *noteLinkService) SyncLinks(ctx context.Context, uid int64, sourceID, body string) (res *domain.ReconcileResult, resolution *domain.LinkResolution, err error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ObserveReconcile(0, 0, 0, 0, err)
			return
		}
		metrics.ObserveReconcile(res.Inserted, res.Deleted, res.Kept, len(resolution.Unresolved), nil)
	}()

	resolution, err = s.Resolve(ctx, uid, util.Tokenize(body))
	if err != nil {
		return nil, nil, err
	}

	res, err = s.Reconcile(ctx, uid, sourceID, resolution.TargetIDs())
	if err != nil {
		return nil, nil, err
	}

	if res.Changed() {
		s.logger.Debug("note links reconciled",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldNoteID, sourceID),
			zap.Int(logger.FieldInserted, res.Inserted),
			zap.Int(logger.FieldDeleted, res.Deleted),
			zap.Int(logger.FieldKept, res.Kept),
			zap.Int(logger.FieldUnresolved, len(resolution.Unresolved)))
	}
	return res, resolution, nil
}

// LinksFrom 获取出链
func (s *noteLinkService) LinksFrom(ctx context.Context, uid int64, noteID string) ([]*domain.Note, error) {
	notes, err := s.noteLinkRepo.LinksFrom(ctx, noteID, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return notes, nil
}

// LinksTo 获取反向链接
func (s *noteLinkService) LinksTo(ctx context.Context, uid int64, noteID string) ([]*domain.Note, error) {
	notes, err := s.noteLinkRepo.LinksTo(ctx, noteID, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return notes, nil
}

// OnNoteDeleted drops inbound and outbound edges. The caller deletes the note row
// in the same transaction afterwards.
func (s *noteLinkService) OnNoteDeleted(ctx context.Context, uid int64, noteID string) (int, error) {
	n, err := s.noteLinkRepo.DeleteByNote(ctx, noteID, uid)
	if err != nil {
		return 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	metrics.EdgesDeleted.Add(float64(n))
	return n, nil
}

// Ensure noteLinkService implements NoteLinkService interface
var _ NoteLinkService = (*noteLinkService)(nil)
