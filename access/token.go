package access

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pubgate/pubgate/internal/pathutil"
)

// TokenVersion is the only capability token format version this build
// understands. Decoding a token with any other version fails closed, so
// the format can be rotated without old tokens being misinterpreted.
const TokenVersion = 1

const (
	tokenFieldCount = 4
	scopeDir        = "d"
	scopeFile       = "f"
)

// TokenSigner issues and verifies path-scoped capability tokens. A token
// carries a keyed digest over the exact path it was issued for; a token
// issued for a directory additionally authorizes every descendant of that
// directory, subject to the policy tree (see Verify).
type TokenSigner struct {
	key []byte
}

// NewTokenSigner derives the HMAC key from the configured signing secret.
func NewTokenSigner(secret string) *TokenSigner {
	h := sha256.Sum256([]byte(secret))
	return &TokenSigner{key: h[:]}
}

// Issue creates a capability token scoped to path. The result is an opaque
// URL-safe string suitable for use as a query parameter.
func (s *TokenSigner) Issue(path string) string {
	scope := scopeFile
	if pathutil.IsDir(path) {
		scope = scopeDir
	}
	payload := fmt.Sprintf("%d:%s:%d:%s",
		TokenVersion, scope, pathutil.Depth(path), hex.EncodeToString(s.digest(path)))
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Verify reports whether token authorizes access to requestedPath under
// the given policy tree.
//
// A directory-scoped token is valid for its own directory and, by
// delegation, for any path beneath it: the request is truncated back to
// the token's scope depth and the digest is recomputed over that ancestor.
// Delegation is refused when the derived ancestor does not itself resolve
// to a token-accepting level (sign or http), so a token can never reach
// into a subtree whose own policy forbids capability access.
//
// Malformed encodings, wrong field counts, non-integer fields and version
// mismatches all report false; they are never surfaced as distinct
// failures.
func (s *TokenSigner) Verify(tree []PolicyNode, requestedPath, token string) bool {
	scopeIsDir, scopeDepth, digest, err := decodeToken(token)
	if err != nil {
		return false
	}

	scopedPath := requestedPath
	if scopeIsDir {
		reqDepth := pathutil.Depth(requestedPath)
		if scopeDepth < reqDepth || (scopeDepth == reqDepth && !pathutil.IsDir(requestedPath)) {
			scopedPath = pathutil.Ancestor(requestedPath, scopeDepth)
			switch Resolve(tree, scopedPath) {
			case LevelSign, LevelHTTP:
			default:
				return false
			}
		}
	}

	return hmac.Equal(digest, s.digest(scopedPath))
}

func (s *TokenSigner) digest(path string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(path))
	return mac.Sum(nil)
}

func decodeToken(token string) (scopeIsDir bool, scopeDepth int, digest []byte, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false, 0, nil, ErrInvalidToken
	}

	fields := strings.Split(string(raw), ":")
	if len(fields) != tokenFieldCount {
		return false, 0, nil, ErrInvalidToken
	}

	version, err := strconv.Atoi(fields[0])
	if err != nil || version != TokenVersion {
		return false, 0, nil, ErrInvalidToken
	}

	switch fields[1] {
	case scopeDir:
		scopeIsDir = true
	case scopeFile:
		scopeIsDir = false
	default:
		return false, 0, nil, ErrInvalidToken
	}

	scopeDepth, err = strconv.Atoi(fields[2])
	if err != nil || scopeDepth < 0 {
		return false, 0, nil, ErrInvalidToken
	}

	digest, err = hex.DecodeString(fields[3])
	if err != nil || len(digest) != sha256.Size {
		return false, 0, nil, ErrInvalidToken
	}

	return scopeIsDir, scopeDepth, digest, nil
}
