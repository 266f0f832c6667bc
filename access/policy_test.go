package access

import "testing"

func testTree() []PolicyNode {
	return []PolicyNode{
		{
			Prefix: "",
			Dirs:   LevelPrivate,
			Files:  LevelPrivate,
			Children: []PolicyNode{
				{
					Prefix: "pub",
					Dirs:   LevelNone,
					Files:  LevelNone,
					Children: []PolicyNode{
						{Prefix: "pub/secret/", Dirs: LevelPrivate, Files: LevelPrivate},
						{Prefix: "pub/protected/", Dirs: LevelHTTP, Files: LevelHTTP},
					},
				},
				{Prefix: "shared/", Dirs: LevelSign, Files: LevelSign},
				{Prefix: "mixed/", Dirs: LevelSign, Files: LevelHTTP},
			},
		},
	}
}

func TestResolve(t *testing.T) {
	tree := testTree()

	tests := []struct {
		name string
		path string
		want Level
	}{
		{"root falls back to catch-all", "", LevelPrivate},
		{"unmatched leaf", "notes.txt", LevelPrivate},
		{"open tree directory", "pub/", LevelNone},
		{"open tree leaf", "pub/readme.md", LevelNone},
		{"open tree exact prefix leaf", "pub", LevelNone},
		{"most specific child wins over pub", "pub/secret/key.pem", LevelPrivate},
		{"most specific child wins for dirs", "pub/secret/", LevelPrivate},
		{"sibling child", "pub/protected/report.pdf", LevelHTTP},
		{"signed subtree", "shared/photos/cat.jpg", LevelSign},
		{"dir and file levels differ", "mixed/", LevelSign},
		{"dir and file levels differ leaf", "mixed/doc.pdf", LevelHTTP},
		{"prefix must respect segment boundary", "public/readme.md", LevelPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tree, tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveEmptyTree(t *testing.T) {
	if got := Resolve(nil, "anything"); got != LevelPrivate {
		t.Errorf("Resolve on empty tree = %v, want %v", got, LevelPrivate)
	}
}

func TestResolveDeclarationOrder(t *testing.T) {
	// Among siblings the first matching node wins, regardless of
	// specificity.
	tree := []PolicyNode{
		{Prefix: "a/", Dirs: LevelNone, Files: LevelNone},
		{Prefix: "a/b/", Dirs: LevelPrivate, Files: LevelPrivate},
	}
	if got := Resolve(tree, "a/b/x.txt"); got != LevelNone {
		t.Errorf("Resolve = %v, want first-declared sibling level %v", got, LevelNone)
	}
}

func TestParseLevel(t *testing.T) {
	for _, lvl := range []Level{LevelNone, LevelSign, LevelHTTP, LevelPrivate} {
		got, err := ParseLevel(lvl.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", lvl.String(), err)
		}
		if got != lvl {
			t.Errorf("ParseLevel(%q) = %v, want %v", lvl.String(), got, lvl)
		}
	}

	if _, err := ParseLevel("admin"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}
