package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/config"
	"github.com/pubgate/pubgate/internal/pathutil"
	"github.com/pubgate/pubgate/metrics"
	"github.com/pubgate/pubgate/store"
	"github.com/pubgate/pubgate/thumbs"
)

// Query parameters understood by the browse handler.
const (
	// TokenParam carries the capability token.
	TokenParam = "s"
	// ShowParam is a rendering hint: "list" (default) or "thumbnails".
	ShowParam = "show"

	showThumbnails = "thumbnails"
)

var outcomeLabels = map[access.Outcome]string{
	access.OutcomeGranted:      "granted",
	access.OutcomeNotFound:     "not_found",
	access.OutcomeUnauthorized: "unauthorized",
}

// Browse handles every GET under the published tree: it classifies the
// path, runs the authorization gate, and either renders a directory
// listing or streams the object (or its cached thumbnail).
func Browse(
	gate *access.Gate,
	st store.Store,
	thumbCache *thumbs.Manager,
	cfg *config.ServerConfig,
	realm string,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metrics.HTTPRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		}()

		path, err := pathutil.Normalize(r.URL.Path)
		if err != nil {
			// Non-canonical input gets the same answer as a denied path.
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "404").Inc()
			RespondNotFound(w)
			return
		}

		token := r.URL.Query().Get(TokenParam)
		var creds *access.Credentials
		if username, password, ok := r.BasicAuth(); ok {
			creds = &access.Credentials{Username: username, Password: password}
		}

		decision := gate.Authorize(path, token, creds)
		metrics.AuthDecisionsTotal.WithLabelValues(
			outcomeLabels[decision.Outcome], decision.Level.String()).Inc()

		switch decision.Outcome {
		case access.OutcomeNotFound:
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "404").Inc()
			RespondNotFound(w)
			return
		case access.OutcomeUnauthorized:
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "401").Inc()
			RespondUnauthorized(w, realm)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), cfg.ObjectOpTimeout)
		defer cancel()

		if pathutil.IsDir(path) {
			serveListing(ctx, w, r, st, path, token, logger)
			return
		}
		serveObject(ctx, w, r, st, thumbCache, path, logger)
	}
}

func serveListing(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	st store.Store,
	path, token string,
	logger *zap.Logger,
) {
	metrics.StoreOpsTotal.WithLabelValues("list").Inc()
	listing, err := st.List(ctx, path)
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "500").Inc()
		RespondInternalError(w, logger, fmt.Errorf("list %q: %w", path, err))
		return
	}

	page := buildListingPage(path, token, r.URL.Query().Get(ShowParam), listing)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := listingTemplate.Execute(w, page); err != nil {
		logger.Error("Failed to render listing", zap.String("path", path), zap.Error(err))
		return
	}

	metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "200").Inc()
	logger.Info("Directory listed",
		zap.String("path", path),
		zap.Int("dirs", len(listing.CommonPrefixes)),
		zap.Int("objects", len(listing.Objects)))
}

func serveObject(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	st store.Store,
	thumbCache *thumbs.Manager,
	path string,
	logger *zap.Logger,
) {
	key := path
	contentType := contentTypeFor(path)

	// Under the thumbnails view a leaf request serves the cached derived
	// artifact, falling back to the source when no entry exists yet.
	if r.URL.Query().Get(ShowParam) == showThumbnails {
		thumbKey := thumbCache.CacheObjectKey(path)
		if _, err := st.Head(ctx, thumbKey); err == nil {
			key = thumbKey
			contentType = "image/jpeg"
		}
	}

	metrics.StoreOpsTotal.WithLabelValues("get").Inc()
	reader, err := st.Open(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "404").Inc()
			RespondNotFound(w)
			return
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "500").Inc()
		RespondInternalError(w, logger, fmt.Errorf("open %q: %w", key, err))
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	written, err := io.Copy(w, reader)
	if err != nil {
		logger.Error("Failed to stream object", zap.String("key", key), zap.Error(err))
		return
	}

	metrics.HTTPRequestsTotal.WithLabelValues(r.Method, "200").Inc()
	logger.Info("Object served",
		zap.String("path", path),
		zap.String("key", key),
		zap.Int64("size", written))
}

// contentTypeFor returns the MIME type based on file extension.
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".css":
		return "text/css"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".txt", ".md":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
