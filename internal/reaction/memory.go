package reaction

import (
	"context"
	"sync"
	"time"
)

// MemoryTable keeps rows in process memory. It backs the "memory" storage
// driver for local runs and is the reference Table in tests.
type MemoryTable struct {
	mu   sync.Mutex
	rows map[string]Record
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rows: make(map[string]Record)}
}

func memoryKey(partitionKey, rowKey string) string {
	return partitionKey + "\x00" + rowKey
}

func (t *MemoryTable) EnsureExists(ctx context.Context) error {
	return ctx.Err()
}

func (t *MemoryTable) Get(ctx context.Context, partitionKey, rowKey string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[memoryKey(partitionKey, rowKey)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (t *MemoryTable) Upsert(ctx context.Context, rec Record, ifMatch ETag) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := memoryKey(rec.PartitionKey, rec.RowKey)
	current, exists := t.rows[key]
	switch {
	case ifMatch == ETagAny:
	case ifMatch == "":
		if exists {
			return Record{}, ErrConflict
		}
	default:
		if !exists || current.ETag != ifMatch {
			return Record{}, ErrConflict
		}
	}

	rec.ETag = NewETag()
	rec.Timestamp = time.Now().UTC()
	t.rows[key] = rec
	return rec, nil
}

func (t *MemoryTable) Ping(ctx context.Context) error {
	return ctx.Err()
}
