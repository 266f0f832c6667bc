package access

import (
	"strings"

	"github.com/pubgate/pubgate/internal/pathutil"
)

// PolicyNode is one entry of the ordered policy tree. Prefix is matched
// against the full request path on segment boundaries; Dirs and Files are
// the levels required for directory and leaf paths under the prefix.
// Children, if any, are consulted before the node's own levels apply.
//
// The tree is configuration: loaded once, immutable for the process
// lifetime, and threaded explicitly into every call that needs it.
type PolicyNode struct {
	Prefix   string
	Dirs     Level
	Files    Level
	Children []PolicyNode
}

// Resolve walks the policy tree and returns the authorization level
// required for path. Nodes are tried in declaration order and the first
// prefix match wins; a matching node with children recurses into them and
// falls back to its own levels only when no child matches. A path matched
// by no node at the top level resolves to LevelPrivate.
func Resolve(tree []PolicyNode, path string) Level {
	if lvl, ok := resolve(tree, path, pathutil.IsDir(path)); ok {
		return lvl
	}
	return LevelPrivate
}

func resolve(nodes []PolicyNode, path string, isDir bool) (Level, bool) {
	for _, n := range nodes {
		if !prefixMatches(n.Prefix, path) {
			continue
		}
		if len(n.Children) > 0 {
			if lvl, ok := resolve(n.Children, path, isDir); ok {
				return lvl, true
			}
		}
		if isDir {
			return n.Dirs, true
		}
		return n.Files, true
	}
	return 0, false
}

// prefixMatches reports whether prefix covers path, respecting segment
// boundaries: a "/"-terminated prefix matches any path beginning with it,
// a bare prefix matches itself or any path one separator deeper, and the
// empty prefix matches everything.
func prefixMatches(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
