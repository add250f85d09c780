package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的生命周期控制器，由 Manager 创建。
type Handle struct {
	name string
	ctx  context.Context
	// Close 通知Manager该服务已经退出，应在服务Goroutine中 defer 调用。
	// 重复调用是安全的。
	Close func()
}

// Name returns the service name the handle was registered under.
func (h *Handle) Name() string {
	return h.name
}

// Ctx 返回在停机时被取消的上下文
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 在管理器广播停机信号时关闭
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep waits for d, returning early with the handle's error on shutdown.
func (h *Handle) Sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
