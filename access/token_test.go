package access

import (
	"encoding/base64"
	"strings"
	"testing"
)

func signTree() []PolicyNode {
	return []PolicyNode{
		{
			Prefix: "",
			Dirs:   LevelPrivate,
			Files:  LevelPrivate,
			Children: []PolicyNode{
				{
					Prefix: "public/",
					Dirs:   LevelSign,
					Files:  LevelSign,
					Children: []PolicyNode{
						{Prefix: "public/vault/", Dirs: LevelPrivate, Files: LevelPrivate},
					},
				},
			},
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	tree := signTree()

	paths := []string{"public/", "public/img.jpg", "public/a/b/c.txt", ""}
	for _, p := range paths {
		if !signer.Verify(tree, p, signer.Issue(p)) {
			t.Errorf("round trip failed for %q", p)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tree := signTree()
	token := NewTokenSigner("secret-a").Issue("public/img.jpg")
	if NewTokenSigner("secret-b").Verify(tree, "public/img.jpg", token) {
		t.Error("token issued under a different secret verified")
	}
}

func TestTokenTamperDetection(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	tree := signTree()
	token := signer.Issue("public/img.jpg")

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode issued token: %v", err)
	}

	// Flip one bit in the hex digest portion and re-encode.
	fields := strings.SplitN(string(raw), ":", 4)
	digest := []byte(fields[3])
	for i := range digest {
		flipped := append([]byte(nil), digest...)
		if flipped[i] >= 'a' && flipped[i] <= 'f' {
			flipped[i] = '0'
		} else {
			flipped[i] = 'a'
		}
		tampered := base64.RawURLEncoding.EncodeToString(
			[]byte(fields[0] + ":" + fields[1] + ":" + fields[2] + ":" + string(flipped)))
		if signer.Verify(tree, "public/img.jpg", tampered) {
			t.Fatalf("tampered digest at hex position %d verified", i)
		}
	}
}

func TestTokenDelegation(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	tree := signTree()

	dirToken := signer.Issue("public/")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"descendant leaf", "public/img.jpg", true},
		{"deep descendant", "public/c/d.txt", true},
		{"descendant directory", "public/c/", true},
		{"the scoped directory itself", "public/", true},
		{"outside the scope", "other/img.jpg", false},
		{"parent of the scope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signer.Verify(tree, tt.path, dirToken); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDelegationRequiresSignableAncestor(t *testing.T) {
	// A directory token cannot delegate out of a subtree whose own policy
	// does not accept capability tokens, even when the digest would match.
	signer := NewTokenSigner("test-secret")
	tree := []PolicyNode{
		{
			Prefix: "",
			Dirs:   LevelPrivate,
			Files:  LevelPrivate,
			Children: []PolicyNode{
				{Prefix: "free/", Dirs: LevelNone, Files: LevelNone},
			},
		},
	}

	token := signer.Issue("free/")
	if signer.Verify(tree, "free/img.jpg", token) {
		t.Error("delegated into a subtree that does not require tokens")
	}
	if !signer.Verify(tree, "free/", token) {
		t.Error("exact-scope verification should not consult the policy tree")
	}
}

func TestLeafTokenNeverDelegates(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	tree := signTree()

	leafToken := signer.Issue("public/img.jpg")

	for _, p := range []string{"public/", "public/other.jpg", "public/img.jpg/x", ""} {
		if signer.Verify(tree, p, leafToken) {
			t.Errorf("leaf token verified for %q", p)
		}
	}
	if !signer.Verify(tree, "public/img.jpg", leafToken) {
		t.Error("leaf token failed for its own path")
	}
}

func TestTokenMalformed(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	tree := signTree()

	encode := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}

	digestHex := strings.Repeat("ab", 32)
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!not-base64!!"},
		{"too few fields", encode("1:d:" + digestHex)},
		{"too many fields", encode("1:d:1:x:" + digestHex)},
		{"non-integer version", encode("one:d:1:" + digestHex)},
		{"unsupported version", encode("2:d:1:" + digestHex)},
		{"bad scope flag", encode("1:x:1:" + digestHex)},
		{"non-integer depth", encode("1:d:one:" + digestHex)},
		{"negative depth", encode("1:d:-1:" + digestHex)},
		{"digest not hex", encode("1:d:1:zz" + digestHex[2:])},
		{"digest wrong length", encode("1:d:1:abcd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if signer.Verify(tree, "public/img.jpg", tt.token) {
				t.Errorf("malformed token %q verified", tt.name)
			}
		})
	}
}
