package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager 协调后台服务的启动登记与停机等待。
// 它由上层模块（shutdown）持有，并向各个后台服务分发 Handle。
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		services: make(map[string]bool),
		log:      log.Named("lifecycle"),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle 为一个服务注册并返回它的 Handle。同名服务只能注册一次。
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.services[name] {
		return nil, fmt.Errorf("service %q is already registered", name)
	}
	m.services[name] = true
	m.wg.Add(1)
	m.log.Debug("service registered", zap.String("service", name))

	return &Handle{
		name: name,
		ctx:  m.ctx,
		Close: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if !m.services[name] {
				return
			}
			delete(m.services, name)
			m.wg.Done()
			m.log.Debug("service stopped", zap.String("service", name))
		},
	}, nil
}

// Shutdown broadcasts the stop signal to every handle.
func (m *Manager) Shutdown() {
	m.log.Info("broadcasting shutdown")
	m.cancel()
}

// WaitWithTimeout 等待所有已注册的服务退出，超时后返回仍在运行的服务名
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.services))
		for name := range m.services {
			remaining = append(remaining, name)
		}
		sort.Strings(remaining)
		return remaining
	}
}
