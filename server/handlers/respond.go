// Package handlers implements the HTTP handlers of the pubgate server.
package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// RespondNotFound sends the single not-found page used for every denied or
// missing path. Policy denials, invalid tokens and genuinely absent
// objects are indistinguishable here on purpose.
func RespondNotFound(w http.ResponseWriter) {
	http.Error(w, "404 not found", http.StatusNotFound)
}

// RespondUnauthorized sends a basic-auth challenge. Only reachable under
// http-level policy after a valid capability token.
func RespondUnauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q`, realm))
	http.Error(w, "401 unauthorized", http.StatusUnauthorized)
}

// RespondInternalError logs err and sends an opaque 500 page.
func RespondInternalError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Error("Request failed", zap.Error(err))
	http.Error(w, "500 internal server error", http.StatusInternalServerError)
}
