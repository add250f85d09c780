package reaction

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SlpAus/aurora-feed-backend/internal/platform/config"
	"github.com/SlpAus/aurora-feed-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTable(t *testing.T) (*RedisTable, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisTable(rdb), mr
}

func newGormTable(t *testing.T) *GormTable {
	t.Helper()
	db, err := database.OpenDB(config.StorageConfig{
		Driver: config.DriverSqlite,
		Sqlite: config.SqliteConfig{Path: filepath.Join(t.TempDir(), "reactions.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	table := NewGormTable(db)
	require.NoError(t, table.EnsureExists(context.Background()))
	return table
}

func tableBackends() map[string]func(t *testing.T) Table {
	return map[string]func(t *testing.T) Table{
		"memory": func(t *testing.T) Table { return NewMemoryTable() },
		"redis": func(t *testing.T) Table {
			table, _ := newRedisTable(t)
			return table
		},
		"gorm": func(t *testing.T) Table { return newGormTable(t) },
	}
}

func TestTableContract(t *testing.T) {
	for name, newTable := range tableBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			table := newTable(t)
			require.NoError(t, table.EnsureExists(ctx))
			require.NoError(t, table.Ping(ctx))

			_, err := table.Get(ctx, Partition, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			// create-only
			created, err := table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "a1", UpliftCount: 1}, "")
			require.NoError(t, err)
			assert.NotEmpty(t, created.ETag)
			assert.False(t, created.Timestamp.IsZero())

			got, err := table.Get(ctx, Partition, "a1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.UpliftCount)
			assert.Equal(t, created.ETag, got.ETag)
			assert.Equal(t, Partition, got.PartitionKey)
			assert.Equal(t, "a1", got.RowKey)

			_, err = table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "a1", UpliftCount: 1}, "")
			assert.ErrorIs(t, err, ErrConflict, "create-only must not overwrite")

			// replace if match
			got.UpliftCount = 2
			replaced, err := table.Upsert(ctx, got, got.ETag)
			require.NoError(t, err)
			assert.NotEqual(t, got.ETag, replaced.ETag)

			stale := got
			stale.UpliftCount = 99
			_, err = table.Upsert(ctx, stale, got.ETag)
			assert.ErrorIs(t, err, ErrConflict, "stale etag must be rejected")

			after, err := table.Get(ctx, Partition, "a1")
			require.NoError(t, err)
			assert.Equal(t, int64(2), after.UpliftCount)
			assert.Equal(t, replaced.ETag, after.ETag)

			_, err = table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "ghost", UpliftCount: 1}, NewETag())
			assert.ErrorIs(t, err, ErrConflict, "replace of a missing row")
			_, err = table.Get(ctx, Partition, "ghost")
			assert.ErrorIs(t, err, ErrNotFound)

			// unconditional
			_, err = table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "a1", UpliftCount: 7}, ETagAny)
			require.NoError(t, err)
			_, err = table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "b2", UpliftCount: 3}, ETagAny)
			require.NoError(t, err)

			a1, err := table.Get(ctx, Partition, "a1")
			require.NoError(t, err)
			assert.Equal(t, int64(7), a1.UpliftCount)
			b2, err := table.Get(ctx, Partition, "b2")
			require.NoError(t, err)
			assert.Equal(t, int64(3), b2.UpliftCount)
		})
	}
}

func TestRedisTable_Layout(t *testing.T) {
	table, mr := newRedisTable(t)
	ctx := context.Background()

	_, err := table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "story-7", UpliftCount: 4}, "")
	require.NoError(t, err)

	key := "Reactions:Content:story-7"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, "4", mr.HGet(key, "upliftCount"))
	assert.NotEmpty(t, mr.HGet(key, "etag"))
	assert.NotEmpty(t, mr.HGet(key, "timestamp"))
}

func TestRedisTable_CorruptRow(t *testing.T) {
	table, mr := newRedisTable(t)
	mr.HSet("Reactions:Content:bad", "upliftCount", "many", "etag", "x")

	_, err := table.Get(context.Background(), Partition, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisTable_Unavailable(t *testing.T) {
	table, mr := newRedisTable(t)
	mr.Close()
	ctx := context.Background()

	_, err := table.Get(ctx, Partition, "a1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "a1", UpliftCount: 1}, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)

	assert.Error(t, table.Ping(ctx))
}

func TestMemoryTable_Cancelled(t *testing.T) {
	table := NewMemoryTable()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := table.Upsert(ctx, Record{PartitionKey: Partition, RowKey: "a1", UpliftCount: 1}, "")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = table.Get(context.Background(), Partition, "a1")
	assert.ErrorIs(t, err, ErrNotFound, "a cancelled write leaves nothing behind")
}

func TestOpenTable(t *testing.T) {
	table, err := OpenTable(config.DriverMemory, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryTable{}, table)

	_, err = OpenTable(config.DriverRedis, nil, nil)
	assert.Error(t, err)

	_, err = OpenTable(config.DriverSqlite, nil, nil)
	assert.Error(t, err)

	_, err = OpenTable("dynamo", nil, nil)
	assert.Error(t, err)
}
