// Package mcpserver 通过 MCP 协议暴露笔记图谱的只读查询工具
package mcpserver

import (
	"context"
	"fmt"

	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	"github.com/haierkeys/fast-note-graph-service/internal/service"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const serverName = "fast-note-graph"

const instructions = `Read-only access to one user's wiki-link note graph.
Notes link to each other with [[Title]] references in their bodies.
Use note_resolve to see which titles a body would link to,
note_links_from / note_links_to to walk outgoing links and backlinks,
and note_graph to fetch every node and edge at once.`

// Tools 绑定到单个用户的图谱工具集
type Tools struct {
	notes  service.NoteService
	graph  service.GraphService
	uid    int64
	logger *zap.Logger
}

// NewTools 创建工具集，uid 为所有查询的归属用户
func NewTools(notes service.NoteService, graph service.GraphService, uid int64, logger *zap.Logger) *Tools {
	return &Tools{notes: notes, graph: graph, uid: uid, logger: logger}
}

// NewServer 创建 MCP 服务并注册全部工具
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.AddTool(linksTool("note_links_from", "List the notes that the given note links to."), t.LinksFrom)
	s.AddTool(linksTool("note_links_to", "List the notes that link to the given note (backlinks)."), t.LinksTo)
	s.AddTool(mcp.NewTool("note_graph",
		mcp.WithDescription("Return every note and every link edge of the user's graph."),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.Graph)
	s.AddTool(mcp.NewTool("note_resolve",
		mcp.WithDescription("Extract [[Title]] links from a body and resolve them against existing note titles without writing anything."),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note body to scan for [[Title]] links")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.Resolve)

	return s
}

func linksTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("id", mcp.Description("Note ID. Either id or title is required")),
		mcp.WithString("title", mcp.Description("Exact, case-sensitive note title, used when id is empty")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// LinksFrom note_links_from
func (t *Tools) LinksFrom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.links(ctx, req, "from")
}

// LinksTo note_links_to
func (t *Tools) LinksTo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.links(ctx, req, "to")
}

func (t *Tools) links(ctx context.Context, req mcp.CallToolRequest, direction string) (*mcp.CallToolResult, error) {
	id, err := t.noteID(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := t.notes.Links(ctx, t.uid, &dto.NoteLinksRequest{ID: id, Direction: direction})
	if err != nil {
		return t.fail(req, err), nil
	}
	return jsonResult(list)
}

// Graph note_graph
func (t *Tools) Graph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := t.graph.Graph(ctx, t.uid)
	if err != nil {
		return t.fail(req, err), nil
	}
	return jsonResult(g)
}

// Resolve note_resolve
func (t *Tools) Resolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.graph.Resolve(ctx, t.uid, &dto.ResolveRequest{Body: body})
	if err != nil {
		return t.fail(req, err), nil
	}
	return jsonResult(res)
}

// noteID 取 id 参数，缺省时按标题精确解析
func (t *Tools) noteID(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("id", ""); id != "" {
		return id, nil
	}
	title := req.GetString("title", "")
	if title == "" {
		return "", fmt.Errorf("either id or title is required")
	}
	res, err := t.graph.Resolve(ctx, t.uid, &dto.ResolveRequest{Body: "[[" + title + "]]"})
	if err != nil {
		return "", err
	}
	if len(res.Tokens) == 1 {
		title = res.Tokens[0]
	}
	id, ok := res.Resolved[title]
	if !ok {
		return "", fmt.Errorf("no note titled %q", title)
	}
	return id, nil
}

func (t *Tools) fail(req mcp.CallToolRequest, err error) *mcp.CallToolResult {
	t.logger.Warn("mcp tool failed",
		zap.String("tool", req.Params.Name),
		zap.Int64("uid", t.uid),
		zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	text, err := sonic.MarshalString(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(text), nil
}
