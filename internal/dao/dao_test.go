package dao

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestDao opens a migrated SQLite database in a temp dir
func newTestDao(t *testing.T) *Dao {
	t.Helper()
	cfg := DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "db", "graph.sqlite3"),
		MaxOpenConns: 8,
	}
	db, err := NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	d := New(db, WithConfig(&cfg), WithLogger(zap.NewNop()))
	require.NoError(t, d.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func mustCreate(t *testing.T, repo domain.NoteRepository, uid int64, title, body string) *domain.Note {
	t.Helper()
	n, err := repo.Create(context.Background(), &domain.Note{OwnerID: uid, Title: title, Body: body})
	require.NoError(t, err)
	return n
}
