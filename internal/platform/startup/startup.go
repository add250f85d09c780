package startup

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/database"
	"github.com/SlpAus/aurora-feed-backend/internal/reaction"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backends 持有启动时打开的所有外部连接，以及建立在它们之上的存储
type Backends struct {
	Redis *redis.Client
	DB    *gorm.DB
	Table reaction.Table
	Blobs feed.BlobStore
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Storage.Driver == config.DriverRedis || cfg.Content.Source == config.SourceRedis
}

func needsSQL(cfg *config.Config) bool {
	return cfg.Storage.Driver == config.DriverSqlite || cfg.Storage.Driver == config.DriverPostgres
}

// OpenBackends 只打开配置实际用到的连接：Redis 和/或 SQL 数据库
func OpenBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backends, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backends{}

	if needsRedis(cfg) {
		rdb, err := database.OpenRedis(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		b.Redis = rdb
		log.Info("redis connected", zap.String("address", cfg.Storage.Redis.Address))
	}

	if needsSQL(cfg) {
		db, err := database.OpenDB(cfg.Storage)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.DB = db
		log.Info("database connected", zap.String("driver", cfg.Storage.Driver))
	}

	// 接口变量不能直接接收nil *redis.Client
	var rdb redis.UniversalClient
	if b.Redis != nil {
		rdb = b.Redis
	}

	table, err := reaction.OpenTable(cfg.Storage.Driver, rdb, b.DB)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Table = table

	blobs, err := feed.OpenBlobStore(cfg.Content, rdb)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Blobs = blobs

	return b, nil
}

// Close 释放所有已打开的连接
func (b *Backends) Close() error {
	var errs []error
	if b.DB != nil {
		if err := database.CloseDB(b.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
