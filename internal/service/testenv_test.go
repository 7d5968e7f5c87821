package service

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	"github.com/haierkeys/fast-note-graph-service/pkg/workerpool"
	"github.com/haierkeys/fast-note-graph-service/pkg/writequeue"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNotifier keeps every event it receives
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.GraphChangedEvent
}

func (n *recordingNotifier) NotifyGraphChanged(_ context.Context, event domain.GraphChangedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []domain.GraphChangedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.GraphChangedEvent(nil), n.events...)
}

type testEnv struct {
	dao      *dao.Dao
	noteRepo domain.NoteRepository
	linkRepo domain.NoteLinkRepository
	links    NoteLinkService
	notes    NoteService
	graph    GraphService
	notifier *recordingNotifier
}

// newTestEnv wires the services on a migrated SQLite database in a temp dir
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "graph.sqlite3"),
		MaxOpenConns: 8,
	}
	db, err := dao.NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	d := dao.New(db, dao.WithConfig(&cfg))
	require.NoError(t, d.AutoMigrate(context.Background()))

	lanes := writequeue.New(&writequeue.Config{
		QueueCapacity: 64,
		WriteTimeout:  20 * time.Second,
		IdleTimeout:   time.Minute,
	}, zap.NewNop())
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 4, QueueSize: 64}, zap.NewNop())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
		_ = lanes.Shutdown(ctx)
		_ = d.Close()
	})

	svcCfg := &ServiceConfig{App: AppServiceConfig{ReindexConcurrency: 2}}
	noteRepo := dao.NewNoteRepository(d)
	linkRepo := dao.NewNoteLinkRepository(d)
	notifier := &recordingNotifier{}
	links := NewNoteLinkService(noteRepo, linkRepo, zap.NewNop())

	return &testEnv{
		dao:      d,
		noteRepo: noteRepo,
		linkRepo: linkRepo,
		links:    links,
		notes:    NewNoteService(d, noteRepo, links, lanes, notifier, svcCfg, zap.NewNop()),
		graph:    NewGraphService(d, noteRepo, linkRepo, links, lanes, pool, notifier, svcCfg, zap.NewNop()),
		notifier: notifier,
	}
}

func (e *testEnv) create(t *testing.T, uid int64, title, body string) *dto.NoteWithLinksDTO {
	t.Helper()
	n, err := e.notes.Create(context.Background(), uid, &dto.NoteCreateRequest{Title: title, Body: body})
	require.NoError(t, err)
	return n
}

func (e *testEnv) writeBody(t *testing.T, uid int64, id, body string) *dto.NoteWithLinksDTO {
	t.Helper()
	n, err := e.notes.Update(context.Background(), uid, &dto.NoteUpdateRequest{ID: id, Body: &body})
	require.NoError(t, err)
	return n
}

// titlesOf returns sorted titles of a link list
func titlesOf(list []*dto.NoteNoBodyDTO) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Title)
	}
	sort.Strings(out)
	return out
}

func noteTitles(list []*domain.Note) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Title)
	}
	sort.Strings(out)
	return out
}

func strPtr(s string) *string {
	return &s
}
