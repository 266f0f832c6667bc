// Package localfs implements the store.Store interface on a local
// directory tree. It is mainly useful for development and for publishing
// from a mounted filesystem; object keys map directly onto relative paths
// under the configured root.
package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pubgate/pubgate/store"
)

// Adapter implements store.Store for a local directory.
type Adapter struct {
	rootPath string
}

// NewAdapter creates a local filesystem store rooted at rootPath.
func NewAdapter(rootPath string) (*Adapter, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root path %s: %w", rootPath, err)
	}
	if _, err := os.Stat(rootPath); err != nil {
		return nil, fmt.Errorf("root path %s is not accessible: %w", rootPath, err)
	}
	return &Adapter{rootPath: rootPath}, nil
}

// fullPath maps a key onto the filesystem, refusing anything that would
// escape the root. Keys are already normalized by the HTTP layer; this is
// a second line of defense.
func (a *Adapter) fullPath(key string) (string, error) {
	joined := filepath.Join(a.rootPath, filepath.FromSlash(key))
	rel, err := filepath.Rel(a.rootPath, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", store.ErrNotFound
	}
	return joined, nil
}

// List returns one directory level under prefix.
func (a *Adapter) List(ctx context.Context, prefix string) (*store.Listing, error) {
	dir, err := a.fullPath(prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &store.Listing{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", prefix, err)
	}

	listing := &store.Listing{}
	for _, entry := range entries {
		if entry.IsDir() {
			listing.CommonPrefixes = append(listing.CommonPrefixes, prefix+entry.Name()+"/")
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		listing.Objects = append(listing.Objects, store.ObjectInfo{
			Key:          prefix + entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	sort.Strings(listing.CommonPrefixes)
	sort.Slice(listing.Objects, func(i, j int) bool {
		return listing.Objects[i].Key < listing.Objects[j].Key
	})

	return listing, nil
}

// ListAll returns every object under prefix, recursively.
func (a *Adapter) ListAll(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	root, err := a.fullPath(prefix)
	if err != nil {
		return nil, err
	}

	var objects []store.ObjectInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(a.rootPath, path)
		if err != nil {
			return nil
		}
		objects = append(objects, store.ObjectInfo{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Open opens an object for reading.
func (a *Adapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := a.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return file, nil
}

// Put stores an object under key, creating parent directories as needed.
func (a *Adapter) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	path, err := a.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Head returns the object's metadata.
func (a *Adapter) Head(ctx context.Context, key string) (*store.ObjectInfo, error) {
	path, err := a.fullPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	if info.IsDir() {
		return nil, store.ErrNotFound
	}

	return &store.ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}
