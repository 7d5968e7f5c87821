package upgrade

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, *dao.Dao) {
	t.Helper()
	cfg := dao.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "upgrade.sqlite3")}
	db, err := dao.NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	d := dao.New(db, dao.WithConfig(&cfg))
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.AutoMigrate(context.Background()))
	return db, d
}

func appliedVersions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var versions []string
	require.NoError(t, db.Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error)
	return versions
}

func TestMigrationManager_Run(t *testing.T) {
	ctx := context.Background()
	db, d := setupDB(t)
	notes := dao.NewNoteRepository(d)
	links := dao.NewNoteLinkRepository(d)

	// notes written before links were tracked
	a, err := notes.Create(ctx, &domain.Note{OwnerID: 1, Title: "A", Body: "[[B]] [[Nope]]"})
	require.NoError(t, err)
	b, err := notes.Create(ctx, &domain.Note{OwnerID: 1, Title: "B", Body: "[[A]]"})
	require.NoError(t, err)
	_, err = notes.Create(ctx, &domain.Note{OwnerID: 2, Title: "C", Body: "[[A]]"})
	require.NoError(t, err)

	// an edge to a note that was deleted without its links
	_, err = links.Insert(ctx, b.ID, []string{"deleted-note"}, 1)
	require.NoError(t, err)

	require.NoError(t, Execute(ctx, db, zap.NewNop(), "0.3.0"))
	assert.Equal(t, []string{"v0.2.0", "v0.3.0"}, appliedVersions(t, db))

	edges, err := links.ListByOwner(ctx, 1)
	require.NoError(t, err)
	got := map[string]string{}
	for _, e := range edges {
		got[e.SourceNoteID] = e.TargetNoteID
	}
	assert.Equal(t, map[string]string{a.ID: b.ID, b.ID: a.ID}, got)

	// owner 2 has no note titled A
	edges, err = links.ListByOwner(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, edges)

	// a second run applies nothing
	require.NoError(t, Execute(ctx, db, zap.NewNop(), "0.3.0"))
	assert.Equal(t, []string{"v0.2.0", "v0.3.0"}, appliedVersions(t, db))
}

func TestMigrationManager_SkipsNewerScripts(t *testing.T) {
	ctx := context.Background()
	db, _ := setupDB(t)

	require.NoError(t, Execute(ctx, db, zap.NewNop(), "v0.2.5"))
	assert.Equal(t, []string{"v0.2.0"}, appliedVersions(t, db))

	require.NoError(t, Execute(ctx, db, zap.NewNop(), "v0.3.1"))
	assert.Equal(t, []string{"v0.2.0", "v0.3.0"}, appliedVersions(t, db))
}

func TestExecute_RequiresDependencies(t *testing.T) {
	assert.Error(t, Execute(context.Background(), nil, zap.NewNop(), "0.3.0"))
	db, _ := setupDB(t)
	assert.Error(t, Execute(context.Background(), db, nil, "0.3.0"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "v1.2.3", normalize("1.2.3"))
	assert.Equal(t, "v1.2.3", normalize(" v1.2.3 "))
	assert.Equal(t, "", normalize(""))
}
