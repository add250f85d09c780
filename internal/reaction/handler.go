package reaction

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Incrementer is what the HTTP endpoint needs from the store client.
type Incrementer interface {
	IncrementCount(ctx context.Context, articleID string) (int64, error)
}

// Handler 把 POST /articles/:id/react 映射到一次 IncrementCount
type Handler struct {
	counter Incrementer
	timeout time.Duration
	log     *zap.Logger
}

func NewHandler(counter Incrementer, timeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{counter: counter, timeout: timeout, log: log}
}

// React 处理一次反应请求。
// 空ID返回400且不访问存储；存储层的任何失败都返回500，细节只写日志。
func (h *Handler) React(c *gin.Context) {
	articleID := c.Param("id")
	if strings.TrimSpace(articleID) == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	count, err := h.counter.IncrementCount(ctx, articleID)
	if err != nil {
		h.log.Error("failed to process reaction",
			zap.String("article_id", articleID),
			zap.Error(err),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, ReactResponse{UpliftCount: count})
}

// RegisterRoutes mounts the reaction endpoint on a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/articles/:id/react", h.React)
}
