package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is anything the checker can probe: the reaction table, the blob store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker 定期探测各个后端依赖，并把结论写入 Status
type Checker struct {
	status   *Status
	probes   map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewChecker(status *Status, probes map[string]Pinger, cfg config.HealthConfig, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		status:   status,
		probes:   probes,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		log:      log,
	}
}

// Check pings every probe concurrently and assesses the results.
func (c *Checker) Check(ctx context.Context) State {
	results := make(map[string]error, len(c.probes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, p := range c.probes {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			err := p.Ping(pctx)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	return c.status.Assess(results)
}

// Run 是健康检查器的后台循环：立即检查一次，然后每隔 interval 检查，直到停机
func (c *Checker) Run(h *lifecycle.Handle) {
	defer h.Close()
	log := c.log.With(zap.String("service", h.Name()))
	log.Info("health checker started", zap.Duration("interval", c.interval))

	for {
		c.Check(h.Ctx())
		if err := h.Sleep(c.interval); err != nil {
			log.Info("health checker stopped")
			return
		}
	}
}

// Handler 返回 /healthz 的处理函数
func Handler(status *Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := status.State()
		if state != StateHealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  state.String(),
				"failing": status.Failing(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": state.String()})
	}
}
