// Command seed prepares local storage: it creates the Reactions table and
// uploads a feed document into the configured content container.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/logger"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/startup"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "seed/content.json", "local feed document to upload")
	configDir := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	if err := run(context.Background(), cfg, *file, zlog); err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, file string, log *zap.Logger) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", file, err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%s: %w", file, feed.ErrInvalidContent)
	}
	var doc feed.ContentFeed
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s is not a content feed: %w", file, err)
	}

	backends, err := startup.OpenBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	if err := backends.Table.EnsureExists(ctx); err != nil {
		return fmt.Errorf("无法创建Reactions表: %w", err)
	}
	log.Info("reactions table ready", zap.String("driver", cfg.Storage.Driver))

	if cfg.Content.Source == config.SourceFile {
		if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
			return err
		}
	}
	if err := backends.Blobs.Upload(ctx, cfg.Content.Container, cfg.Content.BlobName, data); err != nil {
		return fmt.Errorf("上传 %s 失败: %w", cfg.Content.BlobName, err)
	}
	log.Info("content uploaded",
		zap.String("container", cfg.Content.Container),
		zap.String("blob", cfg.Content.BlobName),
		zap.Int("daily_picks", len(doc.DailyPicks)),
	)
	return nil
}
