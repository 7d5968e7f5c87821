package routers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsRecorder struct {
	gws.BuiltinEventHandler
	messages chan string
}

func (r *wsRecorder) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	r.messages <- message.Data.String()
}

// reply waits for the next frame of the given action, skipping pushes
func reply[T any](t *testing.T, r *wsRecorder, action string) envelope[T] {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case raw := <-r.messages:
			msg, ok := pkgapp.ParseWebSocketMessage(raw)
			require.True(t, ok, raw)
			if msg.Type != action {
				continue
			}
			var out envelope[T]
			require.NoError(t, sonic.Unmarshal(msg.Data, &out), raw)
			return out
		case <-deadline:
			t.Fatalf("no %s reply", action)
			return envelope[T]{}
		}
	}
}

func dialGraphSocket(t *testing.T, s *testServer) (*gws.Conn, *wsRecorder) {
	t.Helper()
	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	rec := &wsRecorder{messages: make(chan string, 16)}
	conn, _, err := gws.NewClient(rec, &gws.ClientOption{
		Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/graph/ws",
	})
	require.NoError(t, err)
	go conn.ReadLoop()
	t.Cleanup(func() { _ = conn.WriteClose(1000, nil) })

	require.NoError(t, conn.WriteString(pkgapp.WebSocketAuthorization+"|"+s.token))
	auth := reply[any](t, rec, pkgapp.WebSocketAuthorization)
	require.True(t, auth.Status)
	return conn, rec
}

func TestGraphSocketRequests(t *testing.T) {
	s := newTestServer(t)

	b := call[dto.NoteWithLinksDTO](t, s, http.MethodPost, "/api/note", `{"title":"B","body":""}`)
	a := call[dto.NoteWithLinksDTO](t, s, http.MethodPost, "/api/note", `{"title":"A","body":"[[B]]"}`)
	require.Equal(t, code.SuccessCreate.Code(), a.Code)

	conn, rec := dialGraphSocket(t, s)

	require.NoError(t, conn.WriteString(app.GraphAction+"|"))
	graph := reply[domain.NoteGraph](t, rec, app.GraphAction)
	require.True(t, graph.Status)
	assert.Len(t, graph.Data.Nodes, 2)
	assert.Equal(t, []domain.GraphEdge{{Source: a.Data.ID, Target: b.Data.ID}}, graph.Data.Edges)

	require.NoError(t, conn.WriteString(app.NoteLinksAction+`|{"id":"`+b.Data.ID+`","direction":"to"}`))
	back := reply[[]dto.NoteNoBodyDTO](t, rec, app.NoteLinksAction)
	require.True(t, back.Status)
	require.Len(t, back.Data, 1)
	assert.Equal(t, "A", back.Data[0].Title)

	require.NoError(t, conn.WriteString(app.NoteLinksAction+`|{"id":"`+b.Data.ID+`","direction":"sideways"}`))
	bad := reply[any](t, rec, app.NoteLinksAction)
	assert.False(t, bad.Status)
	assert.Equal(t, code.ErrorInvalidParams.Code(), bad.Code)

	require.NoError(t, conn.WriteString(app.NoteLinksAction+`|{"id":"missing"}`))
	missing := reply[any](t, rec, app.NoteLinksAction)
	assert.Equal(t, code.ErrorNoteNotFound.Code(), missing.Code)
}

func TestHealthReportsWriteLanes(t *testing.T) {
	s := newTestServer(t)
	anon := &testServer{engine: s.engine, app: s.app}

	health := call[map[string]any](t, anon, http.MethodGet, "/api/health", "")
	require.Equal(t, code.Success.Code(), health.Code)
	lanes, ok := health.Data["writeLanes"].(map[string]any)
	require.True(t, ok, health.Data)
	assert.Equal(t, false, lanes["isClosed"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.app.WriteQueueManager().Shutdown(ctx))

	health = call[map[string]any](t, anon, http.MethodGet, "/api/health", "")
	assert.Equal(t, code.Failed.Code(), health.Code)
	assert.Equal(t, "unhealthy", health.Data["status"])
	lanes, ok = health.Data["writeLanes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, lanes["isClosed"])
}
