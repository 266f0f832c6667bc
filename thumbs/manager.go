package thumbs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/config"
	"github.com/pubgate/pubgate/metrics"
	"github.com/pubgate/pubgate/store"
)

const cacheSuffix = ".jpg"

// CacheKey derives the cache entry key for a source path. The key is a
// pure function of path identity: a digest of the path, then the path
// itself, then the thumbnail suffix. Content never participates, so
// staleness is decided by timestamps alone.
func CacheKey(sourcePath string) string {
	sum := sha256.Sum256([]byte(sourcePath))
	return base64.RawURLEncoding.EncodeToString(sum[:]) + "/" + sourcePath + cacheSuffix
}

// Manager keeps cached thumbnails in a dedicated namespace of the object
// store fresh with respect to their source objects.
type Manager struct {
	store      store.Store
	prefix     string
	maxDim     int
	timeout    time.Duration
	converters map[Family]Converter
	logger     *zap.Logger
}

// NewManager creates a thumbnail cache manager.
func NewManager(st store.Store, cfg config.ThumbnailConfig, converters map[Family]Converter, logger *zap.Logger) *Manager {
	return &Manager{
		store:      st,
		prefix:     cfg.Prefix,
		maxDim:     cfg.MaxDimension,
		timeout:    cfg.ConvertTimeout,
		converters: converters,
		logger:     logger,
	}
}

// CacheObjectKey returns the full object store key of a source path's
// cached thumbnail, namespace included.
func (m *Manager) CacheObjectKey(sourcePath string) string {
	return m.prefix + CacheKey(sourcePath)
}

// EnsureFresh regenerates the cached thumbnail for sourcePath when the
// cache entry is absent or strictly older than sourceLastModified. It
// reports whether a conversion ran. Re-running it is harmless: concurrent
// refreshes of the same path both write a plausible fresh artifact and
// last-writer-wins.
func (m *Manager) EnsureFresh(ctx context.Context, sourcePath string, sourceLastModified time.Time, conv Converter) (bool, error) {
	cacheKey := m.CacheObjectKey(sourcePath)

	cached, err := m.store.Head(ctx, cacheKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("head cache entry: %w", err)
	}
	if cached != nil && !cached.LastModified.Before(sourceLastModified) {
		metrics.ThumbnailRefreshesTotal.WithLabelValues("fresh").Inc()
		return false, nil
	}

	src, err := m.store.Open(ctx, sourcePath)
	if err != nil {
		return false, fmt.Errorf("open source object: %w", err)
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return false, fmt.Errorf("read source object: %w", err)
	}

	convertCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		convertCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	artifact, err := conv.Convert(convertCtx, data, m.maxDim)
	metrics.ConversionDuration.WithLabelValues(conv.Family().String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailRefreshesTotal.WithLabelValues("failed").Inc()
		return false, err
	}

	// A failed put leaves the entry stale for the next run; it never
	// corrupts cache state.
	if err := m.store.Put(ctx, cacheKey, bytes.NewReader(artifact), "image/jpeg"); err != nil {
		return false, fmt.Errorf("store cache entry: %w", err)
	}

	metrics.ThumbnailRefreshesTotal.WithLabelValues("generated").Inc()
	m.logger.Debug("Thumbnail regenerated",
		zap.String("source", sourcePath),
		zap.String("family", conv.Family().String()),
		zap.Int("bytes", len(artifact)))

	return true, nil
}
