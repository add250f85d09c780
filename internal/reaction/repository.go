package reaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTable stores rows in the SQL table "reactions" (SQLite or PostgreSQL).
type GormTable struct {
	db *gorm.DB
}

func NewGormTable(db *gorm.DB) *GormTable {
	return &GormTable{db: db}
}

// EnsureExists 自动迁移 reactions 表结构
func (t *GormTable) EnsureExists(ctx context.Context) error {
	if err := t.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("无法迁移reactions表: %w", err)
	}
	return nil
}

func (t *GormTable) Get(ctx context.Context, partitionKey, rowKey string) (Record, error) {
	var rec Record
	err := t.db.WithContext(ctx).
		Where("partition_key = ? AND row_key = ?", partitionKey, rowKey).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("查询反应记录失败: %w", err)
	}
	return rec, nil
}

func (t *GormTable) Upsert(ctx context.Context, rec Record, ifMatch ETag) (Record, error) {
	rec.ETag = NewETag()
	rec.Timestamp = time.Now().UTC()
	db := t.db.WithContext(ctx)

	switch ifMatch {
	case ETagAny:
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partition_key"}, {Name: "row_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"uplift_count", "etag", "timestamp"}),
		}).Create(&rec).Error
		if err != nil {
			return Record{}, fmt.Errorf("写入反应记录失败: %w", err)
		}
		return rec, nil

	case "":
		// 行已存在时 DO NOTHING，RowsAffected 为 0 即视为冲突
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return Record{}, fmt.Errorf("创建反应记录失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return Record{}, ErrConflict
		}
		return rec, nil

	default:
		res := db.Model(&Record{}).
			Where("partition_key = ? AND row_key = ? AND etag = ?", rec.PartitionKey, rec.RowKey, string(ifMatch)).
			Updates(map[string]interface{}{
				"uplift_count": rec.UpliftCount,
				"etag":         string(rec.ETag),
				"timestamp":    rec.Timestamp,
			})
		if res.Error != nil {
			return Record{}, fmt.Errorf("更新反应记录失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return Record{}, ErrConflict
		}
		return rec, nil
	}
}

func (t *GormTable) Ping(ctx context.Context) error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
