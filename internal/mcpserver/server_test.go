package mcpserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"

	"github.com/bytedance/sonic"
	"github.com/creasty/defaults"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "mcp.sqlite3")

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
	return a
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "%v", res.Content)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var out T
	require.NoError(t, sonic.UnmarshalString(text.Text, &out))
	return out
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	b, err := a.NoteService.Create(ctx, 7, &dto.NoteCreateRequest{Title: "B"})
	require.NoError(t, err)
	x, err := a.NoteService.Create(ctx, 7, &dto.NoteCreateRequest{Title: "A", Body: "[[B]] and [[C]]"})
	require.NoError(t, err)
	// another owner's note with the same title stays invisible
	_, err = a.NoteService.Create(ctx, 8, &dto.NoteCreateRequest{Title: "B"})
	require.NoError(t, err)

	tools := NewTools(a.NoteService, a.GraphService, 7, zap.NewNop())

	res, err := tools.LinksFrom(ctx, callTool("note_links_from", map[string]any{"id": x.ID}))
	require.NoError(t, err)
	from := decode[[]dto.NoteNoBodyDTO](t, res)
	require.Len(t, from, 1)
	assert.Equal(t, b.ID, from[0].ID)

	res, err = tools.LinksTo(ctx, callTool("note_links_to", map[string]any{"title": "B"}))
	require.NoError(t, err)
	to := decode[[]dto.NoteNoBodyDTO](t, res)
	require.Len(t, to, 1)
	assert.Equal(t, "A", to[0].Title)

	res, err = tools.Graph(ctx, callTool("note_graph", nil))
	require.NoError(t, err)
	g := decode[domain.NoteGraph](t, res)
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, []domain.GraphEdge{{Source: x.ID, Target: b.ID}}, g.Edges)

	res, err = tools.Resolve(ctx, callTool("note_resolve", map[string]any{"body": "[[A]] [[b]] [[A]]"}))
	require.NoError(t, err)
	r := decode[dto.ResolveResult](t, res)
	assert.Equal(t, map[string]string{"A": x.ID}, r.Resolved)
	assert.Equal(t, []string{"b"}, r.Unresolved)
}

func TestToolErrors(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	tools := NewTools(a.NoteService, a.GraphService, 1, zap.NewNop())

	for _, tt := range []struct {
		name string
		call func() (*mcp.CallToolResult, error)
	}{
		{"no id or title", func() (*mcp.CallToolResult, error) {
			return tools.LinksFrom(ctx, callTool("note_links_from", nil))
		}},
		{"unknown title", func() (*mcp.CallToolResult, error) {
			return tools.LinksTo(ctx, callTool("note_links_to", map[string]any{"title": "Missing"}))
		}},
		{"unknown id", func() (*mcp.CallToolResult, error) {
			return tools.LinksFrom(ctx, callTool("note_links_from", map[string]any{"id": "missing"}))
		}},
		{"resolve without body", func() (*mcp.CallToolResult, error) {
			return tools.Resolve(ctx, callTool("note_resolve", nil))
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	a := newTestApp(t)
	s := NewServer(NewTools(a.NoteService, a.GraphService, 1, zap.NewNop()), app.Version)
	require.NotNil(t, s)

	tools := s.ListTools()
	for _, name := range []string{"note_links_from", "note_links_to", "note_graph", "note_resolve"} {
		assert.Contains(t, tools, name)
	}
}
