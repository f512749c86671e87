// Package enum walks a project's configured mount roots and yields the
// ordered, deduplicated set of candidate source files the Source Loader
// should read.
package enum

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Enumerate walks every mount root (disk path -> URL prefix, only the
// keys matter here), applying excludeGlobs and the implicit exclusion
// of any web_modules/ subtree, and returns an ordered, deduplicated list
// of absolute file paths. Hidden (dot-prefixed) path segments are
// skipped entirely, directories along with files.
func Enumerate(mountRoots []string, excludeGlobs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, root := range mountRoots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isHidden(d.Name()) && path != absRoot {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if d.Name() == "web_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			if matchesAny(rel, excludeGlobs) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func matchesAny(relPath string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, relPath); ok {
			return true
		}
		// also match against the base name, so "*.test.js" excludes
		// nested files the same way a flat glob would expect.
		if ok, _ := filepath.Match(g, filepath.Base(relPath)); ok {
			return true
		}
	}
	return false
}
