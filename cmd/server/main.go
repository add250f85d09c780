package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/SlpAus/aurora-feed-backend/api"
	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/health"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/logger"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/shutdown"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/startup"
	"github.com/SlpAus/aurora-feed-backend/internal/reaction"
	"github.com/SlpAus/aurora-feed-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	// 1. 打开外部连接
	backends, err := startup.OpenBackends(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to open backends", zap.Error(err))
	}

	// 2. 初始化各个模块
	_, reactionHandler, err := reaction.Setup(ctx, backends.Table, cfg.Reactions, zlog.Named("reaction"))
	if err != nil {
		zlog.Fatal("reaction module setup failed", zap.Error(err))
	}
	_, feedHandler := feed.Setup(backends.Blobs, cfg.Content, zlog.Named("feed"))

	// 3. 后台健康检查
	mgr := lifecycle.NewManager(zlog)
	status := health.NewStatus(zlog.Named("health"))
	checker := health.NewChecker(status, map[string]health.Pinger{
		"reactions": backends.Table,
		"content":   backends.Blobs,
	}, cfg.Health, zlog.Named("health"))
	handle, err := mgr.NewServiceHandle("health")
	if err != nil {
		zlog.Fatal("failed to register health checker", zap.Error(err))
	}
	go checker.Run(handle)

	router := api.NewRouter(cfg.Server, zlog, api.Handlers{
		Reactions: reactionHandler,
		Feed:      feedHandler,
		Health:    status,
	})
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	coordinator := shutdown.NewCoordinator(mgr, zlog)
	coordinator.OnClose("backends", backends.Close)

	go func() {
		zlog.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	if err := coordinator.ListenForSignalsAndShutdown(server); err != nil {
		zlog.Error("shutdown finished with errors", zap.Error(err))
	}
}
