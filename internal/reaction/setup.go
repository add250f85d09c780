package reaction

import (
	"context"
	"fmt"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenTable 根据 storage.driver 选择反应表的实现。
// redis 驱动需要 rdb，sqlite/postgres 驱动需要 db。
func OpenTable(driver string, rdb redis.UniversalClient, db *gorm.DB) (Table, error) {
	switch driver {
	case config.DriverMemory:
		return NewMemoryTable(), nil
	case config.DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("storage driver %q needs a redis client", driver)
		}
		return NewRedisTable(rdb), nil
	case config.DriverSqlite, config.DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("storage driver %q needs a database handle", driver)
		}
		return NewGormTable(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Setup 确保Reactions表存在，并组装存储客户端和HTTP端点
func Setup(ctx context.Context, table Table, cfg config.ReactionsConfig, log *zap.Logger) (*Service, *Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := table.EnsureExists(ctx); err != nil {
		return nil, nil, fmt.Errorf("无法初始化%s表: %w", TableName, err)
	}
	svc := NewService(table, cfg.MaxAttempts, log)
	log.Info("reaction module ready", zap.Int("max_attempts", svc.maxAttempts))
	return svc, NewHandler(svc, cfg.Timeout, log), nil
}
