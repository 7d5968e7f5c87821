package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/model"
	"github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/timex"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// titleLookupChunk keeps IN lists below the bind parameter limits of every driver
const titleLookupChunk = 500

// nodeColumns everything but the body
var nodeColumns = []string{"id", "owner_id", "title", "created_at", "updated_at"}

// noteRepository implements domain.NoteRepository
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository creates a NoteRepository instance
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	return &domain.Note{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Title:     m.Title,
		Body:      m.Body,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

func (r *noteRepository) toDomainList(list []*model.Note) []*domain.Note {
	out := make([]*domain.Note, 0, len(list))
	for _, m := range list {
		out = append(out, r.toDomain(m))
	}
	return out
}

// GetByID returns the note or domain.ErrNoteNotFound
func (r *noteRepository) GetByID(ctx context.Context, id string, uid int64) (*domain.Note, error) {
	var m model.Note
	err := r.dao.conn(ctx).Where("id = ? AND owner_id = ?", id, uid).Take(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return r.toDomain(&m), nil
}

// GetByIDForUpdate reads the note with a row lock held until the transaction ends.
// SQLite relies on the immediate transaction lock taken at BEGIN.
func (r *noteRepository) GetByIDForUpdate(ctx context.Context, id string, uid int64) (*domain.Note, error) {
	db := r.dao.conn(ctx)
	if !r.dao.isSQLite() {
		db = db.Clauses(dbresolver.Write, clause.Locking{Strength: "UPDATE"})
	}
	var m model.Note
	if err := db.Where("id = ? AND owner_id = ?", id, uid).Take(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.toDomain(&m), nil
}

// Create inserts the note, assigning an id when empty
func (r *noteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	now := timex.Now()
	m := &model.Note{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Body:      note.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if err := r.dao.conn(ctx).Create(m).Error; err != nil {
		return nil, titleConflict(err)
	}
	return r.toDomain(m), nil
}

// UpdateTitle renames a note
func (r *noteRepository) UpdateTitle(ctx context.Context, id, title string, uid int64) error {
	res := r.dao.conn(ctx).Model(&model.Note{}).
		Where("id = ? AND owner_id = ?", id, uid).
		Updates(map[string]any{"title": title, "updated_at": timex.Now()})
	if res.Error != nil {
		return titleConflict(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// UpdateBody replaces the note body
func (r *noteRepository) UpdateBody(ctx context.Context, id, body string, uid int64) error {
	res := r.dao.conn(ctx).Model(&model.Note{}).
		Where("id = ? AND owner_id = ?", id, uid).
		Updates(map[string]any{"body": body, "updated_at": timex.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// Delete removes the note row
func (r *noteRepository) Delete(ctx context.Context, id string, uid int64) error {
	res := r.dao.conn(ctx).Where("id = ? AND owner_id = ?", id, uid).Delete(&model.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// ListByTitles looks titles up in as few queries as the bind limit allows.
// Rows are filtered again in Go so case-insensitive collations cannot widen a match.
// Inside a transaction the matched rows are share locked, so a concurrent delete
// of a target either waits for this write or is seen as already gone.
func (r *noteRepository) ListByTitles(ctx context.Context, titles []string, uid int64) ([]*domain.Note, error) {
	if len(titles) == 0 {
		return []*domain.Note{}, nil
	}
	lock := r.dao.inTx(ctx) && !r.dao.isSQLite()

	want := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		want[t] = struct{}{}
	}

	out := make([]*domain.Note, 0, len(titles))
	for start := 0; start < len(titles); start += titleLookupChunk {
		end := min(start+titleLookupChunk, len(titles))

		db := r.dao.conn(ctx)
		if lock {
			db = db.Clauses(clause.Locking{Strength: "SHARE"})
		}
		var list []*model.Note
		err := db.Select(nodeColumns).
			Where("owner_id = ? AND title IN ?", uid, titles[start:end]).
			Find(&list).Error
		if err != nil {
			return nil, err
		}
		for _, m := range list {
			if _, ok := want[m.Title]; ok {
				out = append(out, r.toDomain(m))
			}
		}
	}
	return out, nil
}

// List returns one page of notes without bodies, most recently updated first
func (r *noteRepository) List(ctx context.Context, page, pageSize int, keyword string, uid int64) ([]*domain.Note, error) {
	var list []*model.Note
	err := r.listQuery(ctx, keyword, uid).
		Select(nodeColumns).
		Order("updated_at DESC, id ASC").
		Limit(pageSize).
		Offset(app.GetPageOffset(page, pageSize)).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(list), nil
}

// ListCount counts the notes List would page through
func (r *noteRepository) ListCount(ctx context.Context, keyword string, uid int64) (int64, error) {
	var count int64
	err := r.listQuery(ctx, keyword, uid).Model(&model.Note{}).Count(&count).Error
	return count, err
}

func (r *noteRepository) listQuery(ctx context.Context, keyword string, uid int64) *gorm.DB {
	db := r.dao.conn(ctx).Where("owner_id = ?", uid)
	if keyword != "" {
		db = db.Where("title LIKE ? ESCAPE '!'", "%"+escapeLike(keyword)+"%")
	}
	return db
}

// SuggestTitles returns notes whose title starts with prefix, alphabetically
func (r *noteRepository) SuggestTitles(ctx context.Context, prefix string, limit int, uid int64) ([]*domain.Note, error) {
	var list []*model.Note
	db := r.dao.conn(ctx).Select(nodeColumns).Where("owner_id = ?", uid)
	if prefix != "" {
		db = db.Where("title LIKE ? ESCAPE '!'", escapeLike(prefix)+"%")
	}
	err := db.Order("title ASC, id ASC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(list), nil
}

// ListNodes returns every note of uid without bodies
func (r *noteRepository) ListNodes(ctx context.Context, uid int64) ([]*domain.Note, error) {
	var list []*model.Note
	err := r.dao.conn(ctx).Select(nodeColumns).
		Where("owner_id = ?", uid).
		Order("title ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(list), nil
}

// ListOwners returns every owner id that has at least one note
func (r *noteRepository) ListOwners(ctx context.Context) ([]int64, error) {
	var uids []int64
	err := r.dao.conn(ctx).Model(&model.Note{}).
		Distinct("owner_id").
		Order("owner_id ASC").
		Pluck("owner_id", &uids).Error
	return uids, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNoteNotFound
	}
	return err
}

// titleConflict maps a unique index violation on (owner_id, title) to domain.ErrNoteTitleExists.
// Drivers without error translation are matched on their message.
func titleConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrNoteTitleExists
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") {
		return domain.ErrNoteTitleExists
	}
	return err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike escapes LIKE wildcards using '!' so the clause is portable across dialects
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Ensure noteRepository implements domain.NoteRepository interface
var _ domain.NoteRepository = (*noteRepository)(nil)
