package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
)

func newShareFixture(t *testing.T) (http.HandlerFunc, *access.TokenSigner, []access.PolicyNode) {
	t.Helper()

	tree := []access.PolicyNode{{
		Prefix: "",
		Dirs:   access.LevelPrivate,
		Files:  access.LevelPrivate,
		Children: []access.PolicyNode{
			{Prefix: "open/", Dirs: access.LevelNone, Files: access.LevelNone},
			{Prefix: "public/", Dirs: access.LevelSign, Files: access.LevelSign},
		},
	}}

	signer := access.NewTokenSigner("share-test-secret")
	gate := access.NewGate(tree, signer, map[string]string{"alice": "s3cret"})
	handler := GenerateShareURL(gate, signer, tree, "https://files.example.com", "test", zap.NewNop())

	return handler, signer, tree
}

func postShare(t *testing.T, handler http.HandlerFunc, path string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/share?path="+path, nil)
	if auth {
		req.SetBasicAuth("alice", "s3cret")
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGenerateShareURL(t *testing.T) {
	handler, signer, tree := newShareFixture(t)

	rec := postShare(t, handler, "public/img.jpg", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp ShareURLResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Path != "public/img.jpg" {
		t.Errorf("path = %q", resp.Path)
	}
	if !strings.HasPrefix(resp.URL, "https://files.example.com/public/img.jpg?s=") {
		t.Fatalf("unexpected URL shape: %q", resp.URL)
	}

	token := strings.TrimPrefix(resp.URL, "https://files.example.com/public/img.jpg?s=")
	if !signer.Verify(tree, "public/img.jpg", token) {
		t.Error("issued token does not verify for its path")
	}
}

func TestGenerateShareURLRequiresCredentials(t *testing.T) {
	handler, _, _ := newShareFixture(t)

	rec := postShare(t, handler, "public/img.jpg", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}

func TestGenerateShareURLRejectsUnshareablePaths(t *testing.T) {
	handler, _, _ := newShareFixture(t)

	for _, path := range []string{"open/free.txt", "secret/keys.txt"} {
		if rec := postShare(t, handler, path, true); rec.Code != http.StatusBadRequest {
			t.Errorf("share %q status = %d, want 400", path, rec.Code)
		}
	}
}

func TestShareURLEscapesSegments(t *testing.T) {
	signer := access.NewTokenSigner("share-test-secret")
	url := ShareURL("https://files.example.com", signer, "public/my photo.jpg")
	if !strings.Contains(url, "/public/my%20photo.jpg?") {
		t.Errorf("segments not escaped: %q", url)
	}
}
