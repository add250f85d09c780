package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// ErrBlobNotFound is returned by BlobStore.Download for a missing blob.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the object store holding the daily content document.
type BlobStore interface {
	Download(ctx context.Context, container, name string) ([]byte, error)
	Upload(ctx context.Context, container, name string, data []byte) error
	Ping(ctx context.Context) error
}

// FileBlobStore maps containers to directories under a root, for local runs.
type FileBlobStore struct {
	root string
}

func NewFileBlobStore(root string) *FileBlobStore {
	return &FileBlobStore{root: root}
}

func (s *FileBlobStore) path(container, name string) (string, error) {
	rel := filepath.Join(container, name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid blob path %q", rel)
	}
	return filepath.Join(s.root, rel), nil
}

func (s *FileBlobStore) Download(ctx context.Context, container, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(container, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", p, err)
	}
	return data, nil
}

func (s *FileBlobStore) Upload(ctx context.Context, container, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(container, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("创建容器目录失败: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *FileBlobStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.root)
	}
	return nil
}

// blobKeyPrefix 是Redis中存放blob的String键前缀
// Key: blob:<container>/<name>
const blobKeyPrefix = "blob:"

// RedisBlobStore keeps each blob as a Redis string.
type RedisBlobStore struct {
	rdb redis.UniversalClient
}

func NewRedisBlobStore(rdb redis.UniversalClient) *RedisBlobStore {
	return &RedisBlobStore{rdb: rdb}
}

func blobKey(container, name string) string {
	return blobKeyPrefix + container + "/" + name
}

func (s *RedisBlobStore) Download(ctx context.Context, container, name string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, blobKey(container, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("从Redis读取blob失败: %w", err)
	}
	return data, nil
}

func (s *RedisBlobStore) Upload(ctx context.Context, container, name string, data []byte) error {
	return s.rdb.Set(ctx, blobKey(container, name), data, 0).Err()
}

func (s *RedisBlobStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
