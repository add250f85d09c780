package api

import (
	"time"

	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/health"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/logger"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/metrics"
	"github.com/SlpAus/aurora-feed-backend/internal/reaction"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 汇总各模块的HTTP端点
type Handlers struct {
	Reactions *reaction.Handler
	Feed      *feed.Handler
	Health    *health.Status
}

// NewRouter 创建gin引擎，挂载中间件和项目的所有API路由
func NewRouter(cfg config.ServerConfig, log *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinMiddleware(log), metrics.GinMiddleware())
	// 未配置来源时不启用CORS（cors.New 会拒绝空的来源列表）
	if len(cfg.Cors.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Cors.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	root := r.Group(cfg.RoutePrefix)
	{
		root.GET("/healthz", health.Handler(h.Health))
		root.GET("/metrics", metrics.Handler())

		h.Feed.RegisterRoutes(root)
		h.Reactions.RegisterRoutes(root)
	}
	return r
}
