package app

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/domain"
	"github.com/haierkeys/fast-note-graph-service/internal/dto"
	"github.com/haierkeys/fast-note-graph-service/internal/service"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// GraphChangedAction websocket message type pushed after a graph change
const GraphChangedAction = "GraphChanged"

// wsGraphNotifier 通过 WebSocket 推送图谱变更
type wsGraphNotifier struct {
	wss    *pkgapp.WebsocketServer
	logger *zap.Logger
}

// NewGraphNotifier returns a domain.GraphNotifier that broadcasts to the owner's connections
func NewGraphNotifier(wss *pkgapp.WebsocketServer, zl *zap.Logger) domain.GraphNotifier {
	if wss == nil {
		return domain.NopGraphNotifier{}
	}
	return &wsGraphNotifier{wss: wss, logger: zl}
}

func (n *wsGraphNotifier) NotifyGraphChanged(_ context.Context, event domain.GraphChangedEvent) {
	sent, err := n.wss.BroadcastToUser(event.OwnerID, GraphChangedAction, event)
	if err != nil {
		n.logger.Warn("graph change broadcast failed",
			zap.Int64(logger.FieldUID, event.OwnerID),
			zap.String(logger.FieldNoteID, event.NoteID),
			zap.String(logger.FieldAction, string(event.Action)),
			zap.Error(err))
		return
	}
	if sent > 0 {
		n.logger.Debug("graph change broadcast",
			zap.Int64(logger.FieldUID, event.OwnerID),
			zap.String(logger.FieldAction, string(event.Action)),
			zap.Int("connections", sent))
	}
}

// Websocket request actions answered on the same connection
const (
	GraphAction     = "Graph"
	NoteLinksAction = "NoteLinks"
)

// wsRequestTimeout bounds one websocket request
const wsRequestTimeout = 30 * time.Second

// registerGraphHandlers 注册客户端可通过 WebSocket 发起的图谱查询
// "Graph|" 返回完整图谱，"NoteLinks|{"id":"...","direction":"to"}" 返回单个笔记的链接
func registerGraphHandlers(wss *pkgapp.WebsocketServer, notes service.NoteService, graph service.GraphService, zl *zap.Logger) {
	wss.Use(GraphAction, func(c *pkgapp.WebsocketClient, _ *pkgapp.WebSocketMessage) {
		ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
		defer cancel()

		g, err := graph.Graph(ctx, c.User.UID)
		if err != nil {
			zl.Warn("websocket graph failed", zap.Int64(logger.FieldUID, c.User.UID), zap.Error(err))
			c.ToResponse(wsErrorCode(err), GraphAction)
			return
		}
		c.ToResponse(code.Success.WithData(g), GraphAction)
	})

	wss.Use(NoteLinksAction, func(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
		params := &dto.NoteLinksRequest{}
		if err := sonic.Unmarshal(msg.Data, params); err != nil || params.ID == "" {
			c.ToResponse(code.ErrorInvalidParams.WithDetails("id"), NoteLinksAction)
			return
		}
		if params.Direction != "" && params.Direction != "from" && params.Direction != "to" {
			c.ToResponse(code.ErrorInvalidParams.WithDetails("direction"), NoteLinksAction)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
		defer cancel()

		list, err := notes.Links(ctx, c.User.UID, params)
		if err != nil {
			c.ToResponse(wsErrorCode(err), NoteLinksAction)
			return
		}
		c.ToResponse(code.Success.WithData(list), NoteLinksAction)
	})
}

func wsErrorCode(err error) *code.Code {
	var c *code.Code
	if errors.As(err, &c) {
		return c
	}
	return code.ErrorDBQuery.WithDetails(err.Error())
}
