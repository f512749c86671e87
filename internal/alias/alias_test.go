package alias

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		to   string
		want Kind
	}{
		{"package", "preact/compat", KindPackage},
		{"relative path", "./shim/react.js", KindPath},
		{"parent path", "../shared/shim.js", KindPath},
		{"absolute path", "/opt/shims/react.js", KindPath},
		{"url", "https://cdn.example.com/react.js", KindURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.to); got != tt.want {
				t.Errorf("classify(%q) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestRewritePackageAlias(t *testing.T) {
	entries := Build(map[string]string{"react": "preact/compat"})
	got, ok := Rewrite(entries, "react")
	if !ok || got != "preact/compat" {
		t.Errorf("Rewrite() = (%q, %v), want (\"preact/compat\", true)", got, ok)
	}
}

func TestRewritePathAliasLeavesSpecifierUntouched(t *testing.T) {
	entries := Build(map[string]string{"react": "./shim/react.js"})
	got, ok := Rewrite(entries, "react")
	if ok || got != "react" {
		t.Errorf("Rewrite() = (%q, %v), want (\"react\", false) for path alias", got, ok)
	}
}

func TestRewriteNoMatch(t *testing.T) {
	entries := Build(map[string]string{"react": "preact/compat"})
	got, ok := Rewrite(entries, "lodash")
	if ok || got != "lodash" {
		t.Errorf("Rewrite() = (%q, %v), want (\"lodash\", false) for unmatched specifier", got, ok)
	}
}
