package reaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Table.Get when no row exists for the key.
	ErrNotFound = errors.New("reaction record not found")
	// ErrConflict is returned by a conditional Upsert whose precondition failed:
	// the row already exists on create, or its etag no longer matches.
	ErrConflict = errors.New("reaction record version conflict")
)

// Table is a row-oriented key-value table with optimistic concurrency.
// Implementations must be safe for concurrent use.
type Table interface {
	// EnsureExists creates the backing table if the store needs one.
	EnsureExists(ctx context.Context) error

	// Get reads one row. A missing row yields ErrNotFound.
	Get(ctx context.Context, partitionKey, rowKey string) (Record, error)

	// Upsert writes rec and returns it with the freshly minted ETag and Timestamp.
	//
	//   ifMatch == ETagAny  create or replace unconditionally
	//   ifMatch == ""       create only; ErrConflict if the row exists
	//   otherwise           replace only if the stored etag equals ifMatch, else ErrConflict
	//
	// The write is atomic: on error nothing is stored.
	Upsert(ctx context.Context, rec Record, ifMatch ETag) (Record, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// NewETag mints a fresh version token.
func NewETag() ETag {
	id, err := uuid.NewV7()
	if err != nil {
		return ETag(uuid.NewString())
	}
	return ETag(id.String())
}
