package reaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/metrics"
	"go.uber.org/zap"
)

// ErrTooManyConflicts is returned when every attempt of IncrementCount lost
// the race to a concurrent writer.
var ErrTooManyConflicts = errors.New("reaction increment retry budget exhausted")

// DefaultMaxAttempts bounds the read-increment-write cycles of one increment.
const DefaultMaxAttempts = 5

// Service 是反应计数器的存储客户端。
// 它持有进程级共享的 Table 句柄，本身不需要额外加锁。
type Service struct {
	table       Table
	maxAttempts int
	log         *zap.Logger
}

func NewService(table Table, maxAttempts int, log *zap.Logger) *Service {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{table: table, maxAttempts: maxAttempts, log: log}
}

// lookup turns the table's not-found error into an explicit found flag.
func (s *Service) lookup(ctx context.Context, articleID string) (Record, bool, error) {
	rec, err := s.table.Get(ctx, Partition, articleID)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// GetCount returns the uplift count of an article; an article nobody reacted
// to yet has a count of zero.
func (s *Service) GetCount(ctx context.Context, articleID string) (int64, error) {
	rec, found, err := s.lookup(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("读取文章 %s 的反应计数失败: %w", articleID, err)
	}
	if !found {
		return 0, nil
	}
	return rec.UpliftCount, nil
}

// IncrementCount adds one uplift to an article and returns the new count.
//
// Each attempt reads the row, increments in memory and writes back
// conditionally on the etag it read (create-only when the row was absent).
// A version conflict restarts the cycle; after maxAttempts conflicts the call
// fails with ErrTooManyConflicts. Any other store error is returned at once.
func (s *Service) IncrementCount(ctx context.Context, articleID string) (int64, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			metrics.Increments.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("文章 %s 的反应请求已取消: %w", articleID, err)
		}

		count, err := s.tryIncrement(ctx, articleID)
		if err == nil {
			metrics.Increments.WithLabelValues("ok").Inc()
			return count, nil
		}
		if !errors.Is(err, ErrConflict) {
			metrics.Increments.WithLabelValues("error").Inc()
			return 0, err
		}

		metrics.Conflicts.Inc()
		s.log.Debug("reaction write conflict, retrying",
			zap.String("article_id", articleID),
			zap.Int("attempt", attempt),
		)
	}

	metrics.Increments.WithLabelValues("exhausted").Inc()
	return 0, fmt.Errorf("文章 %s 在 %d 次尝试后仍然写入冲突: %w", articleID, s.maxAttempts, ErrTooManyConflicts)
}

func (s *Service) tryIncrement(ctx context.Context, articleID string) (int64, error) {
	rec, found, err := s.lookup(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("读取文章 %s 的反应记录失败: %w", articleID, err)
	}

	ifMatch := rec.ETag
	if !found {
		// 首次反应：新建记录，只允许创建
		rec = Record{PartitionKey: Partition, RowKey: articleID}
		ifMatch = ""
	}
	rec.UpliftCount++

	written, err := s.table.Upsert(ctx, rec, ifMatch)
	if err != nil {
		return 0, fmt.Errorf("写入文章 %s 的反应记录失败: %w", articleID, err)
	}
	return written.UpliftCount, nil
}
