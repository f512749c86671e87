package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// requireModeAllowList names packages whose named exports are built up
// dynamically at require-time (computed keys, re-exported submodules)
// so a static regex scan can't enumerate them. For these, InteropDetect
// shells out to node instead of trusting the static scan.
var requireModeAllowList = []string{
	"@babel/types",
	"cheerio",
	"graceful-fs",
	"he",
	"jsbn",
	"netmask",
	"xml2js",
	"keycode",
	"lru_map",
	"lz-string",
	"maplibre-gl",
	"pako",
	"postcss-selector-parser",
	"react-draggable",
	"resolve",
	"safe-buffer",
	"seedrandom",
	"stream-browserify",
	"stream-http",
	"typescript",
	"vscode-oniguruma",
	"web-streams-ponyfill",
}

var (
	reExportsAssign  = regexp.MustCompile(`(?m)^\s*exports\.([A-Za-z_$][\w$]*)\s*=`)
	reDefineProperty = regexp.MustCompile(`Object\.defineProperty\(\s*exports\s*,\s*["']([^"']+)["']`)
	reModuleExports  = regexp.MustCompile(`(?s)module\.exports\s*=\s*\{([^}]*)\}`)
	reObjectKey      = regexp.MustCompile(`(?:^|[,{\n])\s*([A-Za-z_$][\w$]*)\s*:`)
)

// InteropResult mirrors a CJS module's shape once it's been made
// statically analyzable for the wrapper stage: which named bindings it
// exports, and whether it carries a usable default export.
type InteropResult struct {
	HasDefaultExport bool
	NamedExports     []string
}

// usesRequireMode reports whether pkgName or specifier matches an entry
// in requireModeAllowList or extra (installOptions.namedExports: the
// caller's own declared extensions to the built-in list), exactly or as
// a path prefix.
func usesRequireMode(pkgName, specifier string, extra []string) bool {
	for _, name := range requireModeAllowList {
		if pkgName == name || specifier == name || strings.HasPrefix(specifier, name+"/") {
			return true
		}
	}
	for _, name := range extra {
		if pkgName == name || specifier == name || strings.HasPrefix(specifier, name+"/") {
			return true
		}
	}
	return false
}

// detectNamedExports statically scans CommonJS source for the export
// patterns most packages use: `exports.NAME = ...`,
// `Object.defineProperty(exports, "NAME", ...)`, and a top-level
// `module.exports = { ... }` object literal. It's a best-effort scan,
// not a parser: it can both miss dynamically-computed exports and,
// rarely, pick up a false positive inside a string or comment.
func detectNamedExports(source string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || name == "default" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range reExportsAssign.FindAllStringSubmatch(source, -1) {
		add(m[1])
	}
	for _, m := range reDefineProperty.FindAllStringSubmatch(source, -1) {
		add(m[1])
	}
	if m := reModuleExports.FindStringSubmatch(source); m != nil {
		for _, km := range reObjectKey.FindAllStringSubmatch(m[1], -1) {
			add(km[1])
		}
	}
	return names
}

// hasDefaultExportHeuristic reports whether source assigns
// `module.exports =` to something other than a bare object literal
// (handled separately by detectNamedExports), which is this scan's
// signal for "the module itself is the default export".
func hasDefaultExportHeuristic(source string) bool {
	idx := strings.Index(source, "module.exports")
	if idx < 0 {
		return false
	}
	rest := strings.TrimSpace(source[idx+len("module.exports"):])
	if !strings.HasPrefix(rest, "=") {
		return false
	}
	rest = strings.TrimSpace(rest[1:])
	return !strings.HasPrefix(rest, "{")
}

// InteropDetect determines the named exports and default-export
// presence for a CommonJS module so the bundler's wrapper stage can
// synthesize a named-export-compatible ES module around it. Packages on
// requireModeAllowList are handed to nodeRequireDetect, whose dynamic
// `require()` actually executes the module; everything else gets the
// cheaper static scan. If the subprocess path fails for any reason
// (node missing, timeout, non-zero exit), InteropDetect falls back
// silently to the static scan rather than failing the whole bundle.
func InteropDetect(pkgName, specifier, modulePath, source string, extraAllowList []string) InteropResult {
	if usesRequireMode(pkgName, specifier, extraAllowList) {
		if result, ok := nodeRequireDetect(modulePath); ok {
			return result
		}
	}
	return InteropResult{
		HasDefaultExport: hasDefaultExportHeuristic(source),
		NamedExports:     detectNamedExports(source),
	}
}

// nodeRequireDetect shells out to a `node -e` invocation that requires
// modulePath and reports its own keys as JSON, for modules whose
// exports are assembled too dynamically for a static scan to
// enumerate. It runs with a 10-second timeout; the subprocess is not
// sandboxed, so require() runs with the invoking user's access.
func nodeRequireDetect(modulePath string) (InteropResult, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	script := `
		try {
			const mod = require(process.argv[1]);
			const keys = Object.keys(mod).filter(k => k !== "default" && k !== "__esModule");
			const hasDefault = typeof mod === "function" || (mod && mod.__esModule ? "default" in mod : true);
			process.stdout.write(JSON.stringify({ namedExports: keys, hasDefaultExport: !!hasDefault }));
		} catch (e) {
			process.exit(1);
		}
	`
	cmd := exec.CommandContext(ctx, "node", "-e", script, modulePath)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return InteropResult{}, false
	}

	var decoded struct {
		NamedExports     []string `json:"namedExports"`
		HasDefaultExport bool     `json:"hasDefaultExport"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		return InteropResult{}, false
	}
	return InteropResult{HasDefaultExport: decoded.HasDefaultExport, NamedExports: decoded.NamedExports}, true
}
