package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"webinstall/internal/errs"
)

func writePackage(t *testing.T, root, name string, manifest map[string]any, files map[string]string) {
	t.Helper()
	pkgDir := filepath.Join(root, "node_modules", name)
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "package.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	for relPath, content := range files {
		full := filepath.Join(pkgDir, relPath)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func newResolver(t *testing.T, root string) *Resolver {
	t.Helper()
	cache, err := NewManifestCache()
	if err != nil {
		t.Fatal(err)
	}
	return New(root, cache)
}

func TestResolveMainField(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "left-pad", map[string]any{
		"name": "left-pad", "main": "index.js",
	}, map[string]string{"index.js": "module.exports = leftPad;"})

	r := newResolver(t, root)
	loc, err := r.Resolve("left-pad")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Kind != JS || loc.Path != filepath.Join(root, "node_modules", "left-pad", "index.js") {
		t.Errorf("Resolve() = %+v, want main-field index.js", loc)
	}
}

func TestResolveModuleFieldPreferredOverMain(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "pkg", map[string]any{
		"name": "pkg", "main": "index.cjs.js", "module": "index.esm.js",
	}, map[string]string{
		"index.cjs.js": "exports.x = 1;",
		"index.esm.js": "export const x = 1;",
	})

	r := newResolver(t, root)
	loc, err := r.Resolve("pkg")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(root, "node_modules", "pkg", "index.esm.js")
	if loc.Kind != JS || loc.Path != want {
		t.Errorf("Resolve() = %+v, want %q", loc, want)
	}
}

func TestResolveExportMapSubpath(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "react-dom", map[string]any{
		"name": "react-dom",
		"main": "index.js",
		"exports": map[string]any{
			"./client": map[string]any{"import": "./client.js", "default": "./client.js"},
		},
	}, map[string]string{
		"index.js":  "module.exports = {};",
		"client.js": "export function createRoot() {}",
	})

	r := newResolver(t, root)
	loc, err := r.Resolve("react-dom/client")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(root, "node_modules", "react-dom", "client.js")
	if loc.Kind != JS || loc.Path != want {
		t.Errorf("Resolve() = %+v, want %q", loc, want)
	}
}

func TestResolveImplicitIndexIgnoredForTypesOnlyPackage(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "@types/foo", map[string]any{
		"name": "@types/foo", "types": "index.d.ts",
	}, map[string]string{"index.d.ts": "export {};"})

	r := newResolver(t, root)
	loc, err := r.Resolve("@types/foo")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Kind != Ignore {
		t.Errorf("Resolve() = %+v, want Ignore for types-only package", loc)
	}
}

func TestResolveDirectFileReference(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "lodash", map[string]any{"name": "lodash", "main": "lodash.js"}, map[string]string{
		"lodash.js":   "module.exports = {};",
		"debounce.js": "module.exports = function debounce() {};",
	})

	r := newResolver(t, root)
	loc, err := r.Resolve("lodash/debounce.js")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(root, "node_modules", "lodash", "debounce.js")
	if loc.Kind != JS || loc.Path != want {
		t.Errorf("Resolve() = %+v, want %q", loc, want)
	}
}

func TestResolveReservedWorkaroundPackageErrors(t *testing.T) {
	root := t.TempDir()
	r := newResolver(t, root)
	_, err := r.Resolve("@reactesm/react")
	var obsolete *errs.ObsoletePackageError
	if !asObsolete(err, &obsolete) {
		t.Fatalf("Resolve() error = %v, want ObsoletePackageError", err)
	}
}

func TestResolveUnknownPackageFails(t *testing.T) {
	root := t.TempDir()
	r := newResolver(t, root)
	_, err := r.Resolve("does-not-exist")
	if err == nil {
		t.Fatal("Resolve() should fail for a package with no node_modules entry")
	}
}

func asObsolete(err error, target **errs.ObsoletePackageError) bool {
	if e, ok := err.(*errs.ObsoletePackageError); ok {
		*target = e
		return true
	}
	return false
}
