package reaction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis Hash 字段名，每个反应记录是一个Hash
// Key:   Reactions:<PartitionKey>:<RowKey>
// Field: upliftCount / etag / timestamp
const (
	fieldUpliftCount = "upliftCount"
	fieldETag        = "etag"
	fieldTimestamp   = "timestamp"
)

// RedisTable stores each row as a Redis hash and implements conditional
// writes with WATCH/MULTI/EXEC.
type RedisTable struct {
	rdb redis.UniversalClient
}

func NewRedisTable(rdb redis.UniversalClient) *RedisTable {
	return &RedisTable{rdb: rdb}
}

func redisKey(partitionKey, rowKey string) string {
	return TableName + ":" + partitionKey + ":" + rowKey
}

// EnsureExists is a no-op: Redis keys come into existence on first write.
func (t *RedisTable) EnsureExists(ctx context.Context) error {
	return nil
}

func (t *RedisTable) Get(ctx context.Context, partitionKey, rowKey string) (Record, error) {
	fields, err := t.rdb.HGetAll(ctx, redisKey(partitionKey, rowKey)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("从Redis读取反应记录失败: %w", err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}
	return decodeRedisRecord(partitionKey, rowKey, fields)
}

func decodeRedisRecord(partitionKey, rowKey string, fields map[string]string) (Record, error) {
	rec := Record{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		ETag:         ETag(fields[fieldETag]),
	}
	count, err := strconv.ParseInt(fields[fieldUpliftCount], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("解析 %s 的 upliftCount 失败: %w", rowKey, err)
	}
	rec.UpliftCount = count
	if ts := fields[fieldTimestamp]; ts != "" {
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Record{}, fmt.Errorf("解析 %s 的 timestamp 失败: %w", rowKey, err)
		}
	}
	return rec, nil
}

func (t *RedisTable) Upsert(ctx context.Context, rec Record, ifMatch ETag) (Record, error) {
	key := redisKey(rec.PartitionKey, rec.RowKey)
	rec.ETag = NewETag()
	rec.Timestamp = time.Now().UTC()

	write := func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUpliftCount, rec.UpliftCount,
			fieldETag, string(rec.ETag),
			fieldTimestamp, rec.Timestamp.Format(time.RFC3339Nano),
		)
		return nil
	}

	if ifMatch == ETagAny {
		if _, err := t.rdb.TxPipelined(ctx, write); err != nil {
			return Record{}, fmt.Errorf("写入反应记录到Redis失败: %w", err)
		}
		return rec, nil
	}

	// WATCH 住这一行：如果在检查etag和EXEC之间有其他写入，EXEC会失败
	err := t.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldETag).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
		} else if err != nil {
			return fmt.Errorf("从Redis读取etag失败: %w", err)
		}

		if ifMatch == "" && current != "" {
			return ErrConflict
		}
		if ifMatch != "" && current != string(ifMatch) {
			return ErrConflict
		}

		if _, err := tx.TxPipelined(ctx, write); err != nil {
			return err
		}
		return nil
	}, key)

	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return Record{}, ErrConflict
	default:
		return Record{}, fmt.Errorf("写入反应记录到Redis失败: %w", err)
	}
}

func (t *RedisTable) Ping(ctx context.Context) error {
	return t.rdb.Ping(ctx).Err()
}
