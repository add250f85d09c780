package feed

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Source is what the handler needs to serve today's feed.
type Source interface {
	Today(ctx context.Context) ([]byte, error)
}

type Handler struct {
	source Source
	log    *zap.Logger
}

func NewHandler(source Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{source: source, log: log}
}

// GetDailyContent 原样返回当天的 content.json
func (h *Handler) GetDailyContent(c *gin.Context) {
	data, err := h.source.Today(c.Request.Context())
	switch {
	case errors.Is(err, ErrContentNotFound):
		h.log.Warn("daily content missing", zap.Error(err))
		c.AbortWithStatus(http.StatusNotFound)
		return
	case err != nil:
		h.log.Error("failed to load daily content", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/GetDailyContent", h.GetDailyContent)
}
