// Package resolve implements the Specifier Resolver (spec §4.5): it
// turns a bare specifier plus a project root into a DependencyLocation
// by walking node_modules the way Node's own module resolution does,
// consulting a package's exports map and main-field fallback chain
// along the way.
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"webinstall/internal/errs"
	"webinstall/internal/npm"
)

// Kind discriminates what a resolved dependency location refers to.
type Kind int

const (
	// JS is a JavaScript module the bundler must process as an entry.
	JS Kind = iota
	// Asset is a non-JS file (CSS, JSON, image, etc.) copied verbatim.
	Asset
	// Ignore is a types-only package with no JS surface: silently
	// dropped by the aggregator, never bundled.
	Ignore
)

// DependencyLocation is the Specifier Resolver's result for one bare
// specifier.
type DependencyLocation struct {
	Kind Kind
	Path string
}

var jsExts = map[string]bool{".js": true, ".mjs": true, ".cjs": true}

// conditionPriority is the export-map / conditional-exports condition
// order this resolver honors, browser environments first.
var conditionPriority = []string{"browser", "import", "default", "require"}

// Resolver resolves bare specifiers against one project root, reusing
// a shared manifest cache across calls within the same run.
type Resolver struct {
	root  string
	cache *ManifestCache
}

// New builds a Resolver rooted at root, using cache for manifest
// memoization (share one cache across a run; see RunContext).
func New(root string, cache *ManifestCache) *Resolver {
	return &Resolver{root: root, cache: cache}
}

// Resolve implements the four-step cascade of spec §4.5, first match
// wins.
func (r *Resolver) Resolve(specifier string) (DependencyLocation, error) {
	pkgName, subpath := npm.SplitPackageName(specifier)
	if npm.IsReservedWorkaroundPackage(pkgName) {
		return DependencyLocation{}, &errs.ObsoletePackageError{
			Package: pkgName,
			Hint:    "this package is an obsolete ESM workaround; install the official package instead",
		}
	}

	// Step 1: direct file reference — specifier carries a file
	// extension and isn't itself a valid top-level package name.
	if ext := filepath.Ext(specifier); ext != "" && !npm.IsValidTopLevelPackageName(specifier) {
		dir, err := r.locatePackageDir(pkgName)
		if err != nil {
			return DependencyLocation{}, &errs.ResolutionFailureError{Specifier: specifier, Hint: err.Error()}
		}
		full := filepath.Join(dir, filepath.FromSlash(subpath))
		if !fileExists(full) {
			return DependencyLocation{}, &errs.ResolutionFailureError{Specifier: specifier, Hint: full}
		}
		kind := Asset
		if jsExts[strings.ToLower(ext)] {
			kind = JS
		}
		return DependencyLocation{Kind: kind, Path: full}, nil
	}

	pkgDir, err := r.locatePackageDir(pkgName)
	if err != nil {
		// Step 4: raw fallback — no manifest at the specifier path at
		// all; attempt node-style resolution directly.
		resolved, rerr := r.nodeResolveFile(filepath.Join(r.root, "node_modules", filepath.FromSlash(specifier)))
		if rerr != nil {
			return DependencyLocation{}, &errs.ResolutionFailureError{Specifier: specifier, Hint: rerr.Error()}
		}
		return DependencyLocation{Kind: JS, Path: resolved}, nil
	}

	manifest, err := r.loadManifest(pkgDir)
	if err != nil {
		return DependencyLocation{}, &errs.ResolutionFailureError{Specifier: specifier, Hint: err.Error()}
	}

	// Step 2: export map.
	if manifest.Exports.Len() > 0 {
		key := "./" + subpath
		if subpath == "" {
			key = "."
		}
		if entry, ok := manifest.Exports.Get(key); ok {
			value, ok := resolveCondition(entry)
			if !ok {
				return DependencyLocation{}, &errs.ExportMapMismatchError{Package: pkgName, Subpath: subpath}
			}
			return DependencyLocation{Kind: JS, Path: filepath.Join(pkgDir, filepath.FromSlash(value))}, nil
		}
	}

	// Step 3: package manifest lookup.
	entry, implicitIndex := mainFieldEntry(manifest, subpath)
	startPath := filepath.Join(pkgDir, filepath.FromSlash(subpath), filepath.FromSlash(entry))
	resolved, rerr := r.nodeResolveFile(startPath)
	if rerr != nil {
		if implicitIndex && (manifest.Types != "" || manifest.Typings != "") {
			return DependencyLocation{Kind: Ignore}, nil
		}
		return DependencyLocation{}, &errs.ResolutionFailureError{Specifier: specifier, Hint: rerr.Error()}
	}
	return DependencyLocation{Kind: JS, Path: resolved}, nil
}

// resolveCondition walks conditionPriority over an export-map entry
// value (string or nested conditions object) and returns the selected
// path string, if any.
func resolveCondition(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case npm.JSONObject:
		for _, cond := range conditionPriority {
			if inner, ok := v.Get(cond); ok {
				if s, ok := inner.(string); ok {
					return s, true
				}
			}
		}
	}
	return "", false
}

// mainFieldEntry selects a package's entry file per spec §4.5 step 3:
// module -> a whole-package "browser" string override -> main, with
// the browser object's key-probing fallback when none of those name
// an entry, and an implicit "index.js" when nothing is declared.
func mainFieldEntry(manifest *npm.Manifest, subpath string) (entry string, implicitIndex bool) {
	if manifest.Module != "" {
		return manifest.Module, false
	}
	if v, ok := manifest.Browser["."]; ok && v != "" {
		return v, false
	}
	if manifest.Main != "" {
		return manifest.Main, false
	}
	if len(manifest.Browser) > 0 {
		probe := "./" + subpath
		if subpath == "" {
			probe = "."
		}
		for _, key := range []string{probe, "./index.js", "./index", "./", "."} {
			if v, ok := manifest.Browser[key]; ok && v != "" {
				return v, false
			}
		}
	}
	return "index.js", true
}

// locatePackageDir walks up from r.root looking for a node_modules
// directory containing pkgName, the way Node (and the bennypowers
// asimonim resolver) searches for installed packages.
func (r *Resolver) locatePackageDir(pkgName string) (string, error) {
	dir := r.root
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		dir = abs
	}
	start := dir
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(pkgName))
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", &errs.ResolutionFailureError{Specifier: pkgName, Hint: "not found in node_modules starting from " + start}
}

// nodeResolveFile is the pure node-style module lookup used by steps
// 1, 3, and 4: probe the path itself, then with JS extensions
// appended, then (if a directory) its package.json main/module field,
// then its index files.
func (r *Resolver) nodeResolveFile(path string) (string, error) {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return path, nil
		}
		if pkgJSON := filepath.Join(path, "package.json"); fileExists(pkgJSON) {
			data, err := os.ReadFile(pkgJSON)
			if err == nil {
				if manifest, err := npm.ParseManifest(data); err == nil {
					entry := manifest.Module
					if entry == "" {
						entry = manifest.Main
					}
					if entry != "" {
						if resolved, err := r.nodeResolveFile(filepath.Join(path, filepath.FromSlash(entry))); err == nil {
							return resolved, nil
						}
					}
				}
			}
		}
		for _, name := range []string{"index.js", "index.mjs", "index.cjs"} {
			if candidate := filepath.Join(path, name); fileExists(candidate) {
				return candidate, nil
			}
		}
		return "", &errs.ResolutionFailureError{Specifier: path, Hint: "directory has no resolvable entry file"}
	}

	for _, ext := range []string{".js", ".mjs", ".cjs", ".json"} {
		if candidate := path + ext; fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", &errs.ResolutionFailureError{Specifier: path, Hint: "no such file"}
}

// loadManifest reads and parses pkgDir/package.json, memoized in the
// resolver's shared cache.
func (r *Resolver) loadManifest(pkgDir string) (*npm.Manifest, error) {
	if r.cache != nil {
		if m, ok := r.cache.get(pkgDir); ok {
			return m, nil
		}
	}
	data, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return nil, err
	}
	manifest, err := npm.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.set(pkgDir, manifest, int64(len(data)))
	}
	return manifest, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
