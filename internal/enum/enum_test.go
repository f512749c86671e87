package enum

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("// fixture"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEnumerate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.js")
	writeFile(t, root, "src/util.test.js")
	writeFile(t, root, "src/.hidden/secret.js")
	writeFile(t, root, ".env.js")
	writeFile(t, root, "web_modules/react.js")
	writeFile(t, root, "README")

	got, err := Enumerate([]string{root}, []string{"*.test.js"})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	var rels []string
	for _, p := range got {
		rel, _ := filepath.Rel(root, p)
		rels = append(rels, filepath.ToSlash(rel))
	}
	sort.Strings(rels)

	want := []string{"README", "src/app.js"}
	if len(rels) != len(want) {
		t.Fatalf("Enumerate() = %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("rels[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
}

func TestEnumerateDedupesAcrossMounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.js")

	got, err := Enumerate([]string{root, root}, nil)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Enumerate() across duplicate mounts = %v, want 1 entry", got)
	}
}

func TestEnumerateExcludesWebModulesImplicitly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "web_modules/react.js")
	writeFile(t, root, "src/app.js")

	got, err := Enumerate([]string{root}, nil)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	for _, p := range got {
		if filepath.Base(filepath.Dir(p)) == "web_modules" {
			t.Errorf("Enumerate() should never descend into web_modules/, got %s", p)
		}
	}
}
