package access

// Outcome is the user-visible result of an authorization decision.
// Internal distinctions (malformed token, wrong scope, policy denial) are
// deliberately collapsed into OutcomeNotFound so that probing cannot
// reveal which paths exist or how the policy tree is shaped.
type Outcome int

const (
	// OutcomeGranted allows the request to proceed.
	OutcomeGranted Outcome = iota
	// OutcomeNotFound denies the request as if the path did not exist.
	OutcomeNotFound
	// OutcomeUnauthorized denies the request with a credential challenge.
	// It is only reached under LevelHTTP after a valid token, where the
	// path's existence is already implied.
	OutcomeUnauthorized
)

// Credentials is a username/password pair from HTTP Basic authentication.
type Credentials struct {
	Username string
	Password string
}

// Gate composes the policy tree, the token signer and the credential map
// into per-request grant/deny decisions. It holds no per-request state.
type Gate struct {
	tree   []PolicyNode
	signer *TokenSigner
	creds  map[string]string
}

// Decision is the result of a single authorization check.
type Decision struct {
	Outcome Outcome
	// Level is the policy level that applied to the path.
	Level Level
}

// NewGate creates a gate over an immutable policy tree, signer and
// credential map.
func NewGate(tree []PolicyNode, signer *TokenSigner, creds map[string]string) *Gate {
	return &Gate{tree: tree, signer: signer, creds: creds}
}

// Authorize decides whether a request for path, carrying an optional
// capability token and optional basic credentials, is granted.
//
//	none    -> granted unconditionally
//	private -> not found
//	sign    -> granted iff the token verifies, else not found
//	http    -> not found without a valid token; unauthorized (challenge)
//	           with a valid token but missing or wrong credentials;
//	           granted when both factors hold
//
// Under http the token scopes which subtree is reachable at all while the
// credentials authenticate who may use that grant; the two factors are
// independent and not interchangeable.
func (g *Gate) Authorize(path, token string, creds *Credentials) Decision {
	level := Resolve(g.tree, path)

	switch level {
	case LevelNone:
		return Decision{Outcome: OutcomeGranted, Level: level}
	case LevelPrivate:
		return Decision{Outcome: OutcomeNotFound, Level: level}
	case LevelSign:
		if g.signer.Verify(g.tree, path, token) {
			return Decision{Outcome: OutcomeGranted, Level: level}
		}
		return Decision{Outcome: OutcomeNotFound, Level: level}
	case LevelHTTP:
		if !g.signer.Verify(g.tree, path, token) {
			return Decision{Outcome: OutcomeNotFound, Level: level}
		}
		if creds == nil || !g.checkCredentials(creds) {
			return Decision{Outcome: OutcomeUnauthorized, Level: level}
		}
		return Decision{Outcome: OutcomeGranted, Level: level}
	default:
		return Decision{Outcome: OutcomeNotFound, Level: level}
	}
}

// checkCredentials compares the supplied pair against the configured map.
// The map holds the passwords as configured; comparison is plain equality.
func (g *Gate) checkCredentials(creds *Credentials) bool {
	want, ok := g.creds[creds.Username]
	return ok && want == creds.Password
}

// CredentialsValid reports whether the supplied basic credentials match a
// configured user. It is used by surfaces that mint share URLs, which are
// gated on identity rather than on a path policy.
func (g *Gate) CredentialsValid(creds *Credentials) bool {
	return creds != nil && g.checkCredentials(creds)
}
