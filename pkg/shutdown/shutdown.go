package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Handler 关闭处理函数
type Handler func(ctx context.Context)

// Manager 优雅关闭管理器：注册的回调并发执行，整体受 ctx 超时约束
type Manager struct {
	mu        sync.Mutex
	callbacks []Handler
}

// NewManager 创建关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, handler)
	m.mu.Unlock()
}

// Shutdown 执行所有关闭回调（阻塞直到完成或 ctx 超时）
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	callbacks := append([]Handler(nil), m.callbacks...)
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	log.Infof("shutting down, %d callbacks", len(callbacks))

	var wg sync.WaitGroup
	wg.Add(len(callbacks))
	for _, cb := range callbacks {
		go func(h Handler) {
			defer wg.Done()
			h(ctx)
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("all shutdown callbacks finished")
	case <-ctx.Done():
		log.Warnf("shutdown timed out: %v", ctx.Err())
	}
}
