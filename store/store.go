// Package store defines the object store interface pubgate publishes from.
// Keys are the same normalized forward-slash paths used by the access
// engine; the store holds both the published tree and the derived
// thumbnail namespace.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Listing is one level of the object tree: the immediate sub-prefixes
// (directories) and the objects directly under the listed prefix.
type Listing struct {
	CommonPrefixes []string
	Objects        []ObjectInfo
}

// Store is the object store contract the core depends on. Implementations
// must be safe for concurrent use.
type Store interface {
	// List returns one directory level under prefix, using "/" as the
	// delimiter. Pagination is handled internally.
	List(ctx context.Context, prefix string) (*Listing, error)

	// ListAll returns every object under prefix, recursively.
	ListAll(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Open returns a stream of the object's bytes, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put stores an object under key.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// Head returns the object's metadata, or ErrNotFound.
	Head(ctx context.Context, key string) (*ObjectInfo, error)
}
