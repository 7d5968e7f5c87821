package dao

import (
	"context"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/model"
	"github.com/haierkeys/fast-note-graph-service/pkg/timex"

	"gorm.io/gorm/clause"
)

const linkInsertBatch = 200

// noteLinkRepository implements domain.NoteLinkRepository.
// Every query is scoped by owner_id so edges never cross owners.
type noteLinkRepository struct {
	dao *Dao
}

// NewNoteLinkRepository creates a NoteLinkRepository instance
func NewNoteLinkRepository(dao *Dao) domain.NoteLinkRepository {
	return &noteLinkRepository{dao: dao}
}

func (r *noteLinkRepository) toDomain(m *model.NoteLink) *domain.NoteLink {
	if m == nil {
		return nil
	}
	return &domain.NoteLink{
		SourceNoteID: m.SourceNoteID,
		TargetNoteID: m.TargetNoteID,
		OwnerID:      m.OwnerID,
		CreatedAt:    time.Time(m.CreatedAt),
	}
}

// TargetsOf returns the current target ids of sourceID
func (r *noteLinkRepository) TargetsOf(ctx context.Context, sourceID string, uid int64) ([]string, error) {
	ids := []string{}
	err := r.dao.conn(ctx).Model(&model.NoteLink{}).
		Where("source_note_id = ? AND owner_id = ?", sourceID, uid).
		Order("target_note_id ASC").
		Pluck("target_note_id", &ids).Error
	return ids, err
}

// Insert adds sourceID -> target edges. A pair that already exists is skipped,
// so a racing duplicate insert is a no-op rather than an error.
func (r *noteLinkRepository) Insert(ctx context.Context, sourceID string, targetIDs []string, uid int64) (int, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}

	now := timex.Now()
	models := make([]*model.NoteLink, 0, len(targetIDs))
	for _, target := range targetIDs {
		models = append(models, &model.NoteLink{
			SourceNoteID: sourceID,
			TargetNoteID: target,
			OwnerID:      uid,
			CreatedAt:    now,
		})
	}

	res := r.dao.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(models, linkInsertBatch)
	return int(res.RowsAffected), res.Error
}

// DeletePairs removes the edges sourceID -> targetIDs
func (r *noteLinkRepository) DeletePairs(ctx context.Context, sourceID string, targetIDs []string, uid int64) (int, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res := r.dao.conn(ctx).
		Where("owner_id = ? AND source_note_id = ? AND target_note_id IN ?", uid, sourceID, targetIDs).
		Delete(&model.NoteLink{})
	return int(res.RowsAffected), res.Error
}

// DeleteByNote removes every edge that has noteID as either endpoint
func (r *noteLinkRepository) DeleteByNote(ctx context.Context, noteID string, uid int64) (int, error) {
	res := r.dao.conn(ctx).
		Where("owner_id = ? AND (source_note_id = ? OR target_note_id = ?)", uid, noteID, noteID).
		Delete(&model.NoteLink{})
	return int(res.RowsAffected), res.Error
}

// LinksFrom returns the notes noteID links to, ordered by title then id
func (r *noteLinkRepository) LinksFrom(ctx context.Context, noteID string, uid int64) ([]*domain.Note, error) {
	targets := r.dao.conn(ctx).Model(&model.NoteLink{}).
		Select("target_note_id").
		Where("source_note_id = ? AND owner_id = ?", noteID, uid)
	return r.adjacent(ctx, targets, uid)
}

// LinksTo returns the notes linking to noteID, ordered by title then id
func (r *noteLinkRepository) LinksTo(ctx context.Context, noteID string, uid int64) ([]*domain.Note, error) {
	sources := r.dao.conn(ctx).Model(&model.NoteLink{}).
		Select("source_note_id").
		Where("target_note_id = ? AND owner_id = ?", noteID, uid)
	return r.adjacent(ctx, sources, uid)
}

func (r *noteLinkRepository) adjacent(ctx context.Context, ids any, uid int64) ([]*domain.Note, error) {
	var list []*model.Note
	err := r.dao.conn(ctx).Select(nodeColumns).
		Where("owner_id = ? AND id IN (?)", uid, ids).
		Order("title ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Note, 0, len(list))
	for _, m := range list {
		out = append(out, &domain.Note{
			ID:        m.ID,
			OwnerID:   m.OwnerID,
			Title:     m.Title,
			CreatedAt: time.Time(m.CreatedAt),
			UpdatedAt: time.Time(m.UpdatedAt),
		})
	}
	return out, nil
}

// ListByOwner returns every edge of uid
func (r *noteLinkRepository) ListByOwner(ctx context.Context, uid int64) ([]*domain.NoteLink, error) {
	var list []*model.NoteLink
	err := r.dao.conn(ctx).
		Where("owner_id = ?", uid).
		Order("source_note_id ASC, target_note_id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.NoteLink, 0, len(list))
	for _, m := range list {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// DeleteDangling removes edges whose source or target is gone or owned by someone else
func (r *noteLinkRepository) DeleteDangling(ctx context.Context) (int64, error) {
	res := r.dao.conn(ctx).
		Where("NOT EXISTS (SELECT 1 FROM " + model.TableNameNote + " s WHERE s.id = " + model.TableNameNoteLink + ".source_note_id AND s.owner_id = " + model.TableNameNoteLink + ".owner_id)").
		Or("NOT EXISTS (SELECT 1 FROM " + model.TableNameNote + " t WHERE t.id = " + model.TableNameNoteLink + ".target_note_id AND t.owner_id = " + model.TableNameNoteLink + ".owner_id)").
		Delete(&model.NoteLink{})
	return res.RowsAffected, res.Error
}

// Ensure noteLinkRepository implements domain.NoteLinkRepository interface
var _ domain.NoteLinkRepository = (*noteLinkRepository)(nil)
