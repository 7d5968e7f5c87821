package routers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/validator"

	"github.com/bytedance/sonic"
	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	engine *gin.Engine
	app    *app.App
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uni, err := validator.Setup()
	require.NoError(t, err)

	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "graph.sqlite3")
	cfg.Limiter.Enabled = false

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), zap.NewNop())
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	require.NoError(t, a.Dao.AutoMigrate(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	token, err := a.TokenManager.Generate(1, "tester", "127.0.0.1")
	require.NoError(t, err)

	return &testServer{engine: NewRouter(a, uni), app: a, token: token}
}

type envelope[T any] struct {
	Code   int  `json:"code"`
	Status bool `json:"status"`
	Data   T    `json:"data"`
}

func call[T any](t *testing.T, s *testServer, method, path, body string) envelope[T] {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out envelope[T]
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNoteLifecycle(t *testing.T) {
	s := newTestServer(t)

	y := call[dto.NoteWithLinksDTO](t, s, http.MethodPost, "/api/note", `{"title":"Y","body":""}`)
	require.Equal(t, code.SuccessCreate.Code(), y.Code)

	x := call[dto.NoteWithLinksDTO](t, s, http.MethodPost, "/api/note", `{"title":"X","body":"See [[Y]] and [[Z]]"}`)
	require.Equal(t, code.SuccessCreate.Code(), x.Code)
	require.Len(t, x.Data.LinksFrom, 1)
	assert.Equal(t, y.Data.ID, x.Data.LinksFrom[0].ID)
	assert.Equal(t, []string{"Z"}, x.Data.Unresolved)

	backlinks := call[[]dto.NoteNoBodyDTO](t, s, http.MethodGet, "/api/note/links?direction=to&id="+y.Data.ID, "")
	require.Equal(t, code.Success.Code(), backlinks.Code)
	require.Len(t, backlinks.Data, 1)
	assert.Equal(t, "X", backlinks.Data[0].Title)

	graph := call[domain.NoteGraph](t, s, http.MethodGet, "/api/graph", "")
	require.Equal(t, code.Success.Code(), graph.Code)
	assert.Len(t, graph.Data.Nodes, 2)
	assert.Equal(t, []domain.GraphEdge{{Source: x.Data.ID, Target: y.Data.ID}}, graph.Data.Edges)

	// 写入空内容后出链清空
	updated := call[dto.NoteWithLinksDTO](t, s, http.MethodPut, "/api/note", `{"id":"`+x.Data.ID+`","body":""}`)
	require.Equal(t, code.SuccessUpdate.Code(), updated.Code)
	assert.Empty(t, updated.Data.LinksFrom)

	call[dto.NoteWithLinksDTO](t, s, http.MethodPut, "/api/note", `{"id":"`+x.Data.ID+`","body":"[[Y]]"}`)

	deleted := call[any](t, s, http.MethodDelete, "/api/note?id="+y.Data.ID, "")
	require.Equal(t, code.SuccessDelete.Code(), deleted.Code)

	got := call[dto.NoteWithLinksDTO](t, s, http.MethodGet, "/api/note?id="+x.Data.ID, "")
	require.Equal(t, code.Success.Code(), got.Code)
	assert.Equal(t, "[[Y]]", got.Data.Body)
	assert.Empty(t, got.Data.LinksFrom)

	missing := call[any](t, s, http.MethodGet, "/api/note?id="+y.Data.ID, "")
	assert.Equal(t, code.ErrorNoteNotFound.Code(), missing.Code)
}

func TestNoteValidation(t *testing.T) {
	s := newTestServer(t)

	res := call[any](t, s, http.MethodPost, "/api/note", `{"title":"bad ]] title"}`)
	assert.Equal(t, code.ErrorInvalidParams.Code(), res.Code)

	res = call[any](t, s, http.MethodPost, "/api/note", `{"body":"no title"}`)
	assert.Equal(t, code.ErrorInvalidParams.Code(), res.Code)

	res = call[any](t, s, http.MethodGet, "/api/note/links?id=a&direction=sideways", "")
	assert.Equal(t, code.ErrorInvalidParams.Code(), res.Code)

	call[any](t, s, http.MethodPost, "/api/note", `{"title":"Dup"}`)
	res = call[any](t, s, http.MethodPost, "/api/note", `{"title":"Dup"}`)
	assert.Equal(t, code.ErrorNoteTitleExists.Code(), res.Code)
}

func TestListSuggestAndReindex(t *testing.T) {
	s := newTestServer(t)
	call[any](t, s, http.MethodPost, "/api/note", `{"title":"Alpha","body":"[[Beta]]"}`)
	call[any](t, s, http.MethodPost, "/api/note", `{"title":"Beta"}`)
	call[any](t, s, http.MethodPost, "/api/note", `{"title":"Gamma"}`)

	list := call[pkgapp.ListRes](t, s, http.MethodGet, "/api/notes?page=1&pageSize=2", "")
	require.Equal(t, code.Success.Code(), list.Code)
	assert.Equal(t, 3, list.Data.Pager.TotalRows)
	assert.Equal(t, 2, list.Data.Pager.PageSize)

	suggest := call[[]dto.NoteNoBodyDTO](t, s, http.MethodGet, "/api/note/suggest?prefix=Al", "")
	require.Len(t, suggest.Data, 1)
	assert.Equal(t, "Alpha", suggest.Data[0].Title)

	// Alpha 创建时 Beta 还不存在，重建后补上
	reindex := call[dto.GraphReindexResult](t, s, http.MethodPost, "/api/graph/reindex", "")
	require.Equal(t, code.Success.Code(), reindex.Code)
	assert.Equal(t, dto.GraphReindexResult{Notes: 3, Inserted: 1}, reindex.Data)
}

func TestAuthAndPublicRoutes(t *testing.T) {
	s := newTestServer(t)
	anon := &testServer{engine: s.engine, app: s.app}

	res := call[any](t, anon, http.MethodGet, "/api/graph", "")
	assert.Equal(t, code.ErrorNotUserAuthToken.Code(), res.Code)

	bad := &testServer{engine: s.engine, app: s.app, token: "garbage"}
	res = call[any](t, bad, http.MethodGet, "/api/graph", "")
	assert.Equal(t, code.ErrorInvalidUserAuthToken.Code(), res.Code)

	version := call[pkgapp.VersionInfo](t, anon, http.MethodGet, "/api/version", "")
	assert.Equal(t, app.Version, version.Data.Version)

	health := call[map[string]any](t, anon, http.MethodGet, "/api/health", "")
	assert.Equal(t, code.Success.Code(), health.Code)
	assert.Equal(t, "healthy", health.Data["status"])

	res = call[any](t, anon, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, code.ErrorNotFoundAPI.Code(), res.Code)
}

func TestPrivateRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tt := range []struct {
		mode  string
		path  string
		wants int
	}{
		{mode: "release", path: "/metrics", wants: http.StatusOK},
		{mode: "release", path: "/debug/vars", wants: http.StatusOK},
		{mode: "release", path: "/debug/pprof/", wants: http.StatusNotFound},
		{mode: "debug", path: "/debug/pprof/", wants: http.StatusOK},
	} {
		t.Run(tt.mode+tt.path, func(t *testing.T) {
			r := NewPrivateRouterWithLogger(tt.mode, zap.NewNop())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wants, w.Code)
		})
	}
}
