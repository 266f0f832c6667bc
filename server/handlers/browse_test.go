package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/config"
	"github.com/pubgate/pubgate/store"
	"github.com/pubgate/pubgate/thumbs"
)

// fakeStore is a minimal in-memory store.Store for handler tests.
type fakeStore struct {
	objects map[string]string
}

func (f *fakeStore) List(ctx context.Context, prefix string) (*store.Listing, error) {
	listing := &store.Listing{}
	seen := map[string]bool{}
	for key := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			sub := prefix + rest[:i+1]
			if !seen[sub] {
				seen[sub] = true
				listing.CommonPrefixes = append(listing.CommonPrefixes, sub)
			}
			continue
		}
		listing.Objects = append(listing.Objects, store.ObjectInfo{
			Key:  key,
			Size: int64(len(f.objects[key])),
		})
	}
	return listing, nil
}

func (f *fakeStore) ListAll(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	var objects []store.ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, store.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return objects, nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = string(data)
	return nil
}

func (f *fakeStore) Head(ctx context.Context, key string) (*store.ObjectInfo, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.ObjectInfo{Key: key, Size: int64(len(body)), LastModified: time.Now()}, nil
}

type browseFixture struct {
	handler http.HandlerFunc
	signer  *access.TokenSigner
	store   *fakeStore
	thumbs  *thumbs.Manager
}

func newBrowseFixture(t *testing.T) *browseFixture {
	t.Helper()

	tree := []access.PolicyNode{{
		Prefix: "",
		Dirs:   access.LevelPrivate,
		Files:  access.LevelPrivate,
		Children: []access.PolicyNode{
			{Prefix: "open/", Dirs: access.LevelNone, Files: access.LevelNone},
			{Prefix: "public/", Dirs: access.LevelSign, Files: access.LevelSign},
			{Prefix: "internal/", Dirs: access.LevelHTTP, Files: access.LevelHTTP},
		},
	}}

	signer := access.NewTokenSigner("browse-test-secret")
	gate := access.NewGate(tree, signer, map[string]string{"alice": "s3cret"})

	st := &fakeStore{objects: map[string]string{
		"open/hello.txt":    "hello world",
		"open/sub/deep.txt": "deep",
		"public/img.jpg":    "jpegbytes",
		"secret/keys.txt":   "nope",
		"internal/doc.pdf":  "pdfbytes",
	}}

	cacheCfg := config.ThumbnailConfig{Prefix: ".thumbnails/", MaxDimension: 64, Workers: 1}
	thumbCache := thumbs.NewManager(st, cacheCfg, nil, zap.NewNop())

	serverCfg := &config.ServerConfig{ObjectOpTimeout: 5 * time.Second}
	handler := Browse(gate, st, thumbCache, serverCfg, "test", zap.NewNop())

	return &browseFixture{handler: handler, signer: signer, store: st, thumbs: thumbCache}
}

func (f *browseFixture) get(t *testing.T, target string, creds *access.Credentials) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}
	rec := httptest.NewRecorder()
	f.handler(rec, req)
	return rec
}

func TestBrowseOpenFile(t *testing.T) {
	f := newBrowseFixture(t)

	rec := f.get(t, "/open/hello.txt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hello world" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("content type = %q, want text/plain", ct)
	}
}

func TestBrowsePrivateAndMissingAreIdentical(t *testing.T) {
	f := newBrowseFixture(t)

	private := f.get(t, "/secret/keys.txt", nil)
	missing := f.get(t, "/open/no-such-file.txt", nil)

	if private.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("statuses = %d, %d, want both 404", private.Code, missing.Code)
	}
	if private.Body.String() != missing.Body.String() {
		t.Error("private and missing responses differ")
	}
}

func TestBrowseInvalidPath(t *testing.T) {
	f := newBrowseFixture(t)
	if rec := f.get(t, "/open/%2e%2e/secret/keys.txt", nil); rec.Code != http.StatusNotFound {
		t.Errorf("traversal status = %d, want 404", rec.Code)
	}
}

func TestBrowseSignedFile(t *testing.T) {
	f := newBrowseFixture(t)

	if rec := f.get(t, "/public/img.jpg", nil); rec.Code != http.StatusNotFound {
		t.Errorf("no token status = %d, want 404", rec.Code)
	}

	token := f.signer.Issue("public/img.jpg")
	rec := f.get(t, "/public/img.jpg?s="+token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "jpegbytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestBrowseHTTPLevel(t *testing.T) {
	f := newBrowseFixture(t)
	token := f.signer.Issue("internal/doc.pdf")

	rec := f.get(t, "/internal/doc.pdf?s="+token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no creds status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}

	rec = f.get(t, "/internal/doc.pdf?s="+token,
		&access.Credentials{Username: "alice", Password: "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("with creds status = %d, want 200", rec.Code)
	}

	// Credentials alone never substitute for the token.
	rec = f.get(t, "/internal/doc.pdf",
		&access.Credentials{Username: "alice", Password: "s3cret"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("creds without token status = %d, want 404", rec.Code)
	}
}

func TestBrowseDirectoryListing(t *testing.T) {
	f := newBrowseFixture(t)

	rec := f.get(t, "/open/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "hello.txt") {
		t.Errorf("listing missing file entry: %s", body)
	}
	if !strings.Contains(body, `href="/open/sub/`) {
		t.Errorf("listing missing subdirectory link: %s", body)
	}
}

func TestBrowseListingPropagatesToken(t *testing.T) {
	f := newBrowseFixture(t)
	token := f.signer.Issue("public/")

	rec := f.get(t, "/public/?s="+token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "s="+token) {
		t.Error("listing entries do not carry the capability token")
	}
}

func TestBrowseThumbnailView(t *testing.T) {
	f := newBrowseFixture(t)
	f.store.objects[f.thumbs.CacheObjectKey("open/hello.txt")] = "thumbbytes"

	rec := f.get(t, "/open/hello.txt?show=thumbnails", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "thumbbytes" {
		t.Errorf("body = %q, want cached thumbnail", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", ct)
	}

	// Without a cache entry the view falls back to the source object.
	rec = f.get(t, "/public/img.jpg?show=thumbnails&s="+f.signer.Issue("public/img.jpg"), nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "jpegbytes" {
		t.Errorf("fallback: status = %d, body = %q", rec.Code, rec.Body.String())
	}
}
