package shutdown

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/aurora-feed-backend/pkg/lifecycle"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout       = 15 * time.Second
	defaultBackgroundTimeout = 10 * time.Second
)

// Closer releases a backing connection once everything else has stopped.
type Closer struct {
	Name  string
	Close func() error
}

// Coordinator 负责编排应用程序的优雅停机流程：
// 先关闭HTTP服务器，再停止后台服务，最后释放数据库和Redis连接。
type Coordinator struct {
	Manager           *lifecycle.Manager
	HTTPTimeout       time.Duration
	BackgroundTimeout time.Duration

	closers []Closer
	log     *zap.Logger
}

func NewCoordinator(mgr *lifecycle.Manager, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		Manager:           mgr,
		HTTPTimeout:       defaultHTTPTimeout,
		BackgroundTimeout: defaultBackgroundTimeout,
		log:               log,
	}
}

// OnClose registers a resource to release last. Closers run in reverse order.
func (c *Coordinator) OnClose(name string, fn func() error) {
	c.closers = append(c.closers, Closer{Name: name, Close: fn})
}

// ListenForSignalsAndShutdown 阻塞直到收到 SIGINT/SIGTERM，然后执行停机流程
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	c.log.Info("shutdown signal received")
	return c.Shutdown(server)
}

// Shutdown runs the shutdown sequence and returns the joined errors.
func (c *Coordinator) Shutdown(server *http.Server) error {
	var errs []error

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.HTTPTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			c.log.Error("http server shutdown failed", zap.Error(err))
			errs = append(errs, err)
		} else {
			c.log.Info("http server stopped")
		}
	}

	if c.Manager != nil {
		c.Manager.Shutdown()
		if remaining := c.Manager.WaitWithTimeout(c.BackgroundTimeout); len(remaining) > 0 {
			c.log.Warn("background services did not stop in time", zap.Strings("services", remaining))
		}
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.Close(); err != nil {
			c.log.Error("close failed", zap.String("resource", cl.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	c.log.Info("shutdown complete")
	return errors.Join(errs...)
}
