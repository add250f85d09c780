package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/metrics"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrContentNotFound means there is no content document for today.
	ErrContentNotFound = errors.New("daily content not found")
	// ErrInvalidContent means the stored document is not valid JSON.
	ErrInvalidContent = errors.New("daily content is not valid JSON")
)

// DefaultTimeout bounds one shared download when content.timeout is unset.
const DefaultTimeout = 30 * time.Second

// Service 从对象存储读取每日的 content.json，遇到临时故障时按指数退避重试
type Service struct {
	store      BlobStore
	container  string
	blobName   string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	log        *zap.Logger

	group singleflight.Group
}

func NewService(store BlobStore, cfg config.ContentConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:      store,
		timeout:    timeout,
		container:  cfg.Container,
		blobName:   cfg.BlobName,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        log,
	}
}

// Today returns the raw content document. Concurrent callers share one
// download, which runs detached from any single caller and is bounded by the
// service timeout; each caller stops waiting when its own ctx ends.
func (s *Service) Today(ctx context.Context) ([]byte, error) {
	ch := s.group.DoChan(s.container+"/"+s.blobName, func() (interface{}, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.download(dctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (s *Service) download(ctx context.Context) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		data, err := s.store.Download(ctx, s.container, s.blobName)
		if err == nil {
			metrics.FeedDownloads.WithLabelValues("ok").Inc()
			return s.validate(data)
		}
		if errors.Is(err, ErrBlobNotFound) {
			metrics.FeedDownloads.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: %s/%s", ErrContentNotFound, s.container, s.blobName)
		}

		metrics.FeedDownloads.WithLabelValues("error").Inc()
		if attempt >= s.maxRetries {
			return nil, fmt.Errorf("下载 %s/%s 失败，已重试 %d 次: %w", s.container, s.blobName, attempt, err)
		}

		delay := s.retryDelay << attempt
		s.log.Warn("content download failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (s *Service) validate(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidContent, s.container, s.blobName)
	}
	s.log.Debug("daily content loaded",
		zap.Int("bytes", len(data)),
		zap.Int64("daily_picks", gjson.GetBytes(data, "DailyPicks.#").Int()),
		zap.String("vibe", gjson.GetBytes(data, "VibeOfTheDay.Title").String()),
	)
	return data, nil
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
