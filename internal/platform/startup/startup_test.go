package startup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/reaction"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Content: config.ContentConfig{Source: config.SourceFile, Dir: t.TempDir()},
	}
}

func TestOpenBackends_Memory(t *testing.T) {
	b, err := OpenBackends(context.Background(), baseConfig(t), nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Redis)
	assert.Nil(t, b.DB)
	assert.IsType(t, &reaction.MemoryTable{}, b.Table)
	assert.IsType(t, &feed.FileBlobStore{}, b.Blobs)
}

func TestOpenBackends_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig(t)
	cfg.Storage.Driver = config.DriverRedis
	cfg.Storage.Redis.Address = mr.Addr()
	cfg.Content.Source = config.SourceRedis

	b, err := OpenBackends(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Redis)
	assert.IsType(t, &reaction.RedisTable{}, b.Table)
	assert.IsType(t, &feed.RedisBlobStore{}, b.Blobs)
}

func TestOpenBackends_Sqlite(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Storage.Driver = config.DriverSqlite
	cfg.Storage.Sqlite.Path = filepath.Join(t.TempDir(), "reactions.db")

	b, err := OpenBackends(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.NotNil(t, b.DB)
	assert.IsType(t, &reaction.GormTable{}, b.Table)
	assert.NoError(t, b.Close())
}

func TestOpenBackends_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig(t)
	cfg.Storage.Driver = config.DriverRedis
	cfg.Storage.Redis.Address = addr

	_, err := OpenBackends(context.Background(), cfg, nil)
	assert.Error(t, err)
}
