package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/internal/pathutil"
	"github.com/pubgate/pubgate/metrics"
)

// ShareURLResponse is the JSON body returned by the share endpoint.
type ShareURLResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ShareURL builds the external URL for a path with its capability token
// appended as the token query parameter.
func ShareURL(externalURL string, signer *access.TokenSigner, path string) string {
	base := strings.TrimSuffix(externalURL, "/")
	return base + "/" + escapePath(path) + "?" + TokenParam + "=" + signer.Issue(path)
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// GenerateShareURL handles POST /share?path=... requests. Minting a share
// URL is gated on identity: the caller must present valid basic
// credentials. The target path must itself sit under a policy level that
// accepts capability tokens, otherwise the URL would be either pointless
// (none) or dead on arrival (private).
func GenerateShareURL(
	gate *access.Gate,
	signer *access.TokenSigner,
	tree []access.PolicyNode,
	externalURL, realm string,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !gate.CredentialsValid(&access.Credentials{Username: username, Password: password}) {
			RespondUnauthorized(w, realm)
			return
		}

		path, err := pathutil.Normalize(r.URL.Query().Get("path"))
		if err != nil {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		switch access.Resolve(tree, path) {
		case access.LevelSign, access.LevelHTTP:
		default:
			http.Error(w, "path is not shareable", http.StatusBadRequest)
			return
		}

		metrics.ShareURLsIssuedTotal.Inc()
		logger.Info("Share URL issued",
			zap.String("path", path),
			zap.String("user", username))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ShareURLResponse{
			Path: path,
			URL:  ShareURL(externalURL, signer, path),
		}); err != nil {
			logger.Error("Failed to encode share URL response", zap.Error(err))
		}
	}
}
