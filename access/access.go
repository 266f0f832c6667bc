// Package access implements the authorization core of pubgate: the ordered
// policy tree mapping path prefixes to required authorization levels, the
// HMAC-signed path-scoped capability tokens, and the gate that combines
// both with HTTP Basic credentials into a per-request decision.
//
// Everything in this package is a pure function of the configuration it was
// constructed with. There is no mutable state, so a single Gate is safe for
// concurrent use by any number of requests.
package access

import (
	"errors"
	"fmt"
)

// Level is a required authorization level, ordered by increasing strictness.
type Level int

const (
	// LevelNone grants access unconditionally.
	LevelNone Level = iota
	// LevelSign requires a valid capability token.
	LevelSign
	// LevelHTTP requires a valid capability token and basic credentials.
	LevelHTTP
	// LevelPrivate denies access unconditionally.
	LevelPrivate
)

// Common authorization errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownLevel = errors.New("unknown authorization level")
)

// String returns the configuration spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSign:
		return "sign"
	case LevelHTTP:
		return "http"
	case LevelPrivate:
		return "private"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a configuration spelling of an authorization level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "none":
		return LevelNone, nil
	case "sign":
		return LevelSign, nil
	case "http":
		return LevelHTTP, nil
	case "private":
		return LevelPrivate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}
