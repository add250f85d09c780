package feed

import (
	"fmt"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenBlobStore 根据 content.source 选择blob存储的实现
func OpenBlobStore(cfg config.ContentConfig, rdb redis.UniversalClient) (BlobStore, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileBlobStore(cfg.Dir), nil
	case config.SourceRedis:
		if rdb == nil {
			return nil, fmt.Errorf("content source %q needs a redis client", cfg.Source)
		}
		return NewRedisBlobStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Source)
	}
}

// Setup 组装每日内容服务和HTTP端点
func Setup(store BlobStore, cfg config.ContentConfig, log *zap.Logger) (*Service, *Handler) {
	if log == nil {
		log = zap.NewNop()
	}
	svc := NewService(store, cfg, log)
	log.Info("feed module ready",
		zap.String("source", cfg.Source),
		zap.String("container", cfg.Container),
		zap.String("blob", cfg.BlobName),
	)
	return svc, NewHandler(svc, log)
}
