package bundle

import (
	"reflect"
	"testing"

	"webinstall/internal/resolve"
)

func TestSanitizeJSStripsExtension(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"react", "react.js"},
		{"react-dom/client", "react-dom_client.js"},
		{"lodash.debounce", "lodash.debounce.js"},
		{"@scope/pkg", "_scope_pkg.js"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.specifier, resolve.JS); got != tt.want {
			t.Errorf("Sanitize(%q, JS) = %q, want %q", tt.specifier, got, tt.want)
		}
	}
}

func TestSanitizeAssetKeepsExtension(t *testing.T) {
	got := Sanitize("normalize.css", resolve.Asset)
	want := "normalize.css"
	if got != want {
		t.Errorf("Sanitize(%q, Asset) = %q, want %q", "normalize.css", got, want)
	}
}

func TestDetectCollisions(t *testing.T) {
	specifiers := []string{"react-dom/client", "react-dom_client", "lodash"}
	kind := func(string) resolve.Kind { return resolve.JS }
	got := DetectCollisions(specifiers, kind)
	want := map[string][]string{
		"react-dom_client.js": {"react-dom/client", "react-dom_client"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectCollisions() = %+v, want %+v", got, want)
	}
}

func TestDetectCollisionsNoneWhenAllUnique(t *testing.T) {
	specifiers := []string{"react", "lodash", "preact"}
	kind := func(string) resolve.Kind { return resolve.JS }
	got := DetectCollisions(specifiers, kind)
	if len(got) != 0 {
		t.Errorf("DetectCollisions() = %+v, want empty", got)
	}
}
