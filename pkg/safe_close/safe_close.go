// Package safe_close coordinates graceful shutdown of long running parts
// Package safe_close 协调长期运行组件的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and waits for them
// SafeClose 向所有挂载的 worker 广播关闭信号并等待其退出
type SafeClose struct {
	closeOnce   sync.Once
	closeSignal chan struct{}
	wg          sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewSafeClose creates a SafeClose
// NewSafeClose 创建 SafeClose
func NewSafeClose() *SafeClose {
	return &SafeClose{closeSignal: make(chan struct{})}
}

// Attach runs fn in its own goroutine; fn must call done when it has stopped
// Attach 在独立 goroutine 中运行 fn，fn 停止后必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	go fn(func() { once.Do(s.wg.Done) }, s.closeSignal)
}

// SendCloseSignal closes the signal channel, the first non-nil err is kept
// SendCloseSignal 发送关闭信号，保留第一个非空错误
func (s *SafeClose) SendCloseSignal(err error) {
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	s.closeOnce.Do(func() { close(s.closeSignal) })
}

// CloseSignal exposes the signal channel
// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until every attached worker called done
// WaitClosed 阻塞直到所有 worker 调用 done
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
