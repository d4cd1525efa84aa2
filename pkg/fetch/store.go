// pkg/fetch/store.go
package fetch

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the minimal object-storage surface the batch fetcher
// needs. S3Store implements it; tests use an in-memory fake.
type ObjectStore interface {
	// List returns the objects under prefix in lexicographic key order
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Get returns the full body of one object
	Get(ctx context.Context, key string) ([]byte, error)
}
