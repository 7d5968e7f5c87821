// Package writequeue provides keyed write lanes
// Package writequeue 提供按键串行化的写通道
// Writes sharing a lane key run one at a time in FIFO order, different keys run in parallel
// 相同键的写操作按 FIFO 顺序逐个执行，不同键之间并行执行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrWriteQueueFull returned when the lane buffer is full
	// ErrWriteQueueFull 当写通道缓冲已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned when the manager is closed
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when the operation did not finish in time
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-lane buffer, default 100
	// QueueCapacity 每个写通道的缓冲容量，默认 100
	QueueCapacity int
	// WriteTimeout upper bound for waiting plus running, default 30 seconds
	// WriteTimeout 排队加执行的最长时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout idle lanes are reclaimed after this, default 10 minutes
	// IdleTimeout 空闲写通道的回收时间，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// lane is guarded by Manager.mu except for ch, which only its worker reads.
// ch is closed once refs drops to zero on a reclaimed or shut down lane.
type lane struct {
	key      string
	ch       chan writeOp
	refs     int
	lastUsed time.Time
}

// Manager owns every write lane
// Manager 管理所有写通道
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	workerWg    sync.WaitGroup
	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New creates write queue manager
// New 创建写队列管理器
func New(cfg *Config, logger *zap.Logger) *Manager {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:      *cfg,
		logger:      logger,
		lanes:       make(map[string]*lane),
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleLanes()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", cfg.QueueCapacity),
		zap.Duration("writeTimeout", cfg.WriteTimeout),
		zap.Duration("idleTimeout", cfg.IdleTimeout))

	return m
}

// Execute runs fn on the lane named key and waits for its result.
// fn receives a context that is cancelled when the caller stops waiting, so a
// timed out write can still roll back instead of committing unseen.
// Execute 在 key 对应的写通道上执行 fn 并等待结果
func (m *Manager) Execute(ctx context.Context, key string, fn func(context.Context) error) error {
	l, err := m.acquire(key)
	if err != nil {
		return err
	}
	defer m.release(l)

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	select {
	case l.ch <- writeOp{ctx: opCtx, fn: fn, result: result}:
	default:
		return ErrWriteQueueFull
	}

	select {
	case err := <-result:
		if err != nil && opCtx.Err() != nil && ctx.Err() == nil {
			return ErrWriteTimeout
		}
		return err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrWriteTimeout
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

// acquire returns the lane for key, creating it and its worker lazily
// acquire 获取写通道，必要时懒加载创建
func (m *Manager) acquire(key string) (*lane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrWriteQueueClosed
	}

	l, ok := m.lanes[key]
	if !ok {
		l = &lane{
			key: key,
			ch:  make(chan writeOp, m.config.QueueCapacity),
		}
		m.lanes[key] = l

		m.workerWg.Add(1)
		go m.worker(l)

		m.logger.Debug("created write lane",
			zap.String("key", key),
			zap.Int("capacity", m.config.QueueCapacity))
	}
	l.refs++
	l.lastUsed = time.Now()
	return l, nil
}

func (m *Manager) release(l *lane) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	l.lastUsed = time.Now()
	if m.closed && l.refs == 0 {
		m.closeLaneLocked(l)
	}
}

// closeLaneLocked must be called with m.mu held and l.refs == 0
func (m *Manager) closeLaneLocked(l *lane) {
	if cur, ok := m.lanes[l.key]; ok && cur == l {
		delete(m.lanes, l.key)
		close(l.ch)
	}
}

// worker drains the lane until its channel is closed
// worker 持续处理写通道直到通道关闭
func (m *Manager) worker(l *lane) {
	defer m.workerWg.Done()
	defer m.logger.Debug("write lane worker stopped", zap.String("key", l.key))

	for op := range l.ch {
		m.executeOp(op)
	}
}

func (m *Manager) executeOp(op writeOp) {
	// Caller already gave up
	// 调用方已放弃等待
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}

	op.result <- op.fn(op.ctx)
}

// cleanupIdleLanes periodically reclaims unused lanes
// cleanupIdleLanes 定期回收空闲写通道
func (m *Manager) cleanupIdleLanes() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup(time.Now())
		}
	}
}

func (m *Manager) doCleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, l := range m.lanes {
		if l.refs > 0 || now.Sub(l.lastUsed) <= m.config.IdleTimeout {
			continue
		}
		m.logger.Debug("cleaning up idle write lane",
			zap.String("key", l.key),
			zap.Duration("idleTime", now.Sub(l.lastUsed)))
		m.closeLaneLocked(l)
		removed++
	}
	return removed
}

// Shutdown stops accepting writes and waits for queued ones to finish
// Shutdown 停止接收写操作，并等待已排队的操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, l := range m.lanes {
		if l.refs == 0 {
			m.closeLaneLocked(l)
		}
	}
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")

	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		m.workerWg.Wait()
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		m.cancel()
		return ctx.Err()
	}
}

// Metrics write lane snapshot
// Metrics 写通道状态快照
type Metrics struct {
	QueueCapacity int  `json:"queueCapacity"`
	ActiveQueues  int  `json:"activeQueues"` // live lanes
	Queued        int  `json:"queued"`       // operations waiting across all lanes
	IsClosed      bool `json:"isClosed"`
}

// GetMetrics gets current metrics
// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued := 0
	for _, l := range m.lanes {
		queued += len(l.ch)
	}
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  len(m.lanes),
		Queued:        queued,
		IsClosed:      m.closed,
	}
}
