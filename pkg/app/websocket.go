package app

import (
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-graph-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// WebSocketAuthorization first message a client must send: "Authorization|<token>"
	// WebSocketAuthorization 客户端需要发送的首条消息
	WebSocketAuthorization = "Authorization"
)

// WebSocketMessage "Type|payload" text frame
// WebSocketMessage 形如 "Type|payload" 的文本消息
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// ParseWebSocketMessage splits a text frame at the first "|"
// ParseWebSocketMessage 在第一个 "|" 处拆分消息
func ParseWebSocketMessage(raw string) (*WebSocketMessage, bool) {
	index := strings.Index(raw, "|")
	if index <= 0 {
		return nil, false
	}
	return &WebSocketMessage{Type: raw[:index], Data: []byte(raw[index+1:])}, true
}

// EncodeWebSocketMessage builds the "Type|json" frame
// EncodeWebSocketMessage 构建 "Type|json" 消息
func EncodeWebSocketMessage(actionType string, content any) ([]byte, error) {
	body, err := sonic.Marshal(content)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(actionType)+1+len(body))
	out = append(out, actionType...)
	out = append(out, '|')
	return append(out, body...), nil
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
	// SecretKey token key used by the Authorization message
	// SecretKey 用于校验 Authorization 消息的 Token 密钥
	SecretKey string
}

// WebsocketClient one websocket connection
// WebsocketClient 存储每个 WebSocket 连接及其状态
type WebsocketClient struct {
	conn      *gws.Conn
	done      chan struct{}
	closeOnce sync.Once
	User      *UserEntity
	server    *WebsocketServer
}

// PingLoop keeps the connection alive until it closes
// PingLoop 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				c.server.logger.Warn("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse sends codeObj to this client as "action|{...}"
// ToResponse 将结果以 "action|{...}" 形式发送给当前客户端
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action string) {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	payload, err := EncodeWebSocketMessage(action, content)
	if err != nil {
		c.server.logger.Error("websocket encode failed", zap.Error(err))
		return
	}
	_ = c.conn.WriteMessage(gws.OpcodeText, payload)
}

func (c *WebsocketClient) stop() {
	c.closeOnce.Do(func() { close(c.done) })
}

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer tracks connections per owner and pushes messages to them
// WebsocketServer 按所有者管理连接并推送消息
type WebsocketServer struct {
	logger      *zap.Logger
	handlers    map[string]WebsocketHandler
	clients     ConnStorage
	userClients map[int64]ConnStorage
	mu          sync.RWMutex
	up          *gws.Upgrader
	config      WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WebsocketServer{
		logger:      logger,
		handlers:    make(map[string]WebsocketHandler),
		clients:     make(ConnStorage),
		userClients: make(map[int64]ConnStorage),
		config:      c,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Run gin handler upgrading the request
// Run 升级请求为 WebSocket 连接的 gin 处理器
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		w.addClient(&WebsocketClient{conn: socket, done: make(chan struct{}), server: w})
		go socket.ReadLoop()
	}
}

// WebsocketHandler handles one message type from an authorized connection
type WebsocketHandler func(c *WebsocketClient, msg *WebSocketMessage)

// Use registers a handler for an authorized message type
// Use 注册消息处理器
func (w *WebsocketServer) Use(action string, handler WebsocketHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[action] = handler
}

func (w *WebsocketServer) handler(action string) (WebsocketHandler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[action]
	return h, ok
}

// BroadcastToUser sends "action|json(content)" to every authorized connection of uid
// BroadcastToUser 向 uid 的所有已授权连接广播消息
func (w *WebsocketServer) BroadcastToUser(uid int64, action string, content any) (int, error) {
	payload, err := EncodeWebSocketMessage(action, content)
	if err != nil {
		return 0, err
	}

	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.userClients[uid]))
	for conn := range w.userClients[uid] {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()

	if len(conns) == 0 {
		return 0, nil
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	sent := 0
	for _, conn := range conns {
		if err := b.Broadcast(conn); err == nil {
			sent++
		}
	}
	return sent, nil
}

// UserConnCount returns authorized connections of uid
// UserConnCount 返回 uid 的已授权连接数
func (w *WebsocketServer) UserConnCount(uid int64) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.userClients[uid])
}

// authorize binds the connection to the token's uid. A connection is authorized at most once.
func (w *WebsocketServer) authorize(c *WebsocketClient, msg *WebSocketMessage) {
	if w.clientUser(c) != nil {
		c.ToResponse(code.ErrorInvalidParams.WithDetails("already authorized"), WebSocketAuthorization)
		return
	}

	user, err := ParseTokenWithKey(string(msg.Data), w.config.SecretKey)
	if err != nil {
		w.logger.Warn("websocket authorization failed", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, WebSocketAuthorization)
		_ = c.conn.WriteClose(1000, []byte("AuthorizationFailed"))
		return
	}

	w.mu.Lock()
	// 并行消息处理下两条授权消息可能同时到达
	if c.User != nil {
		w.mu.Unlock()
		c.ToResponse(code.ErrorInvalidParams.WithDetails("already authorized"), WebSocketAuthorization)
		return
	}
	c.User = user
	if w.userClients[user.UID] == nil {
		w.userClients[user.UID] = make(ConnStorage)
	}
	w.userClients[user.UID][c.conn] = c
	count := len(w.userClients[user.UID])
	w.mu.Unlock()

	c.ToResponse(code.Success, WebSocketAuthorization)
	w.logger.Info("websocket user enters", zap.Int64("uid", user.UID), zap.Int("count", count))
	go c.PingLoop(w.config.PingInterval)
}

func (w *WebsocketServer) clientUser(c *WebsocketClient) *UserEntity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return c.User
}

func (w *WebsocketServer) getClient(conn *gws.Conn) *WebsocketClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clients[conn]
}

func (w *WebsocketServer) addClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) removeClient(conn *gws.Conn) (*WebsocketClient, *UserEntity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.clients[conn]
	delete(w.clients, conn)
	if c == nil || c.User == nil {
		return c, nil
	}
	delete(w.userClients[c.User.UID], conn)
	if len(w.userClients[c.User.UID]) == 0 {
		delete(w.userClients, c.User.UID)
	}
	return c, c.User
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c, user := w.removeClient(conn)
	if c == nil {
		return
	}
	c.stop()
	if user != nil {
		w.logger.Info("websocket user leaves", zap.Int64("uid", user.UID))
	}
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	raw := message.Data.String()
	if raw == "close" {
		_ = conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.getClient(conn)
	if c == nil {
		return
	}

	msg, ok := ParseWebSocketMessage(raw)
	if !ok {
		w.logger.Warn("websocket illegal message")
		return
	}

	if msg.Type == WebSocketAuthorization {
		w.authorize(c, msg)
		return
	}

	if w.clientUser(c) == nil {
		c.ToResponse(code.ErrorNotUserAuthToken, msg.Type)
		return
	}

	if handler, exists := w.handler(msg.Type); exists {
		handler(c, msg)
		return
	}
	w.logger.Warn("websocket unknown message type", zap.String("type", msg.Type))
}
