package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"webinstall/internal/importmap"
	"webinstall/internal/resolve"
	"webinstall/internal/scan"
	"webinstall/internal/storage"
)

func TestEmitWritesOutputsAndAssets(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(&storage.StorageOptions{Endpoint: dir})
	if err != nil {
		t.Fatal(err)
	}

	assetPath := filepath.Join(t.TempDir(), "normalize.css")
	if err := os.WriteFile(assetPath, []byte("body{}"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{Store: store}
	result := esbuildBuildResult{OutputFiles: []esbuild.OutputFile{
		{Path: "/react.js", Contents: []byte("export default {}")},
	}}
	assets := []Entry{
		{Target: scan.InstallTarget{Specifier: "normalize.css"}, Location: resolve.DependencyLocation{Kind: resolve.Asset, Path: assetPath}},
	}
	nameOf := map[string]string{"normalize.css": "normalize.css"}

	if err := emit(opts, result, assets, nameOf, nil); err != nil {
		t.Fatalf("emit() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "react.js"))
	if err != nil {
		t.Fatalf("react.js not written: %v", err)
	}
	if string(data) != "export default {}" {
		t.Errorf("react.js contents = %q", string(data))
	}

	data, err = os.ReadFile(filepath.Join(dir, "normalize.css"))
	if err != nil {
		t.Fatalf("normalize.css not written: %v", err)
	}
	if string(data) != "body{}" {
		t.Errorf("normalize.css contents = %q", string(data))
	}
}

func TestEmitNoopWhenStoreNil(t *testing.T) {
	if err := emit(Options{}, esbuildBuildResult{}, nil, nil, nil); err != nil {
		t.Errorf("emit() with nil Store should be a no-op, got error %v", err)
	}
}

func TestEmitWritesImportMap(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(&storage.StorageOptions{Endpoint: dir})
	if err != nil {
		t.Fatal(err)
	}

	im := importmap.New()
	im.Imports.Set("react", "./react.js")

	if err := emit(Options{Store: store}, esbuildBuildResult{}, nil, nil, im); err != nil {
		t.Fatalf("emit() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, importMapFilename))
	if err != nil {
		t.Fatalf("%s not written: %v", importMapFilename, err)
	}
	if !strings.Contains(string(data), `"react": "./react.js"`) {
		t.Errorf("%s contents = %q", importMapFilename, string(data))
	}
}
