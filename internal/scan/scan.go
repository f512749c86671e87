package scan

import (
	"regexp"
	"strings"

	"webinstall/internal/npm"
)

var (
	reDefaultImport = regexp.MustCompile(`^\s*import\s+\w+(?:,\s*\{[^}]*\})?\s+from`)
	reNamedBindings = regexp.MustCompile(`\{([^}]*)\}`)
	reImportLooking = regexp.MustCompile(`import\s+[^;]*?from\s*["'][^"']+["']|import\s*\(\s*["'\x60][^"'\x60]*["'\x60]\s*\)`)
	reBabelMacro    = regexp.MustCompile(`[./]macro(\.js)?$`)
	reLineComment   = regexp.MustCompile(`//[^\n]*`)
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Scan parses content (already loaded from path, which carries ext for
// the .jsx/.tsx lexer-skip rule) and returns the InstallTargets it
// imports, merged one-per-specifier.
func Scan(path, ext, content string) []InstallTarget {
	raws := parse(ext, content)

	var targets []InstallTarget
	for _, r := range raws {
		t, ok := classify(r)
		if !ok {
			continue
		}
		targets = append(targets, t)
	}
	return MergeAll(targets)
}

// parse runs the two-phase lex: phase 1 on raw content, unless ext is
// .jsx/.tsx (known to break the lexer), or phase 1 finds nothing, in
// which case phase 2 strips comments, extracts only import-looking
// lines, and re-lexes.
func parse(ext, content string) []rawImport {
	ext = strings.ToLower(ext)
	if ext != ".jsx" && ext != ".tsx" {
		if raws := lex([]byte(content)); len(raws) > 0 {
			return raws
		}
	}
	return lex([]byte(fallbackExtract(content)))
}

// fallbackExtract strips comments and keeps only the lines that look
// like a static or dynamic import, for content the primary lexer
// can't be trusted on (JSX/TSX syntax).
func fallbackExtract(content string) string {
	stripped := reBlockComment.ReplaceAllString(content, "")
	stripped = reLineComment.ReplaceAllString(stripped, "")
	matches := reImportLooking.FindAllString(stripped, -1)
	return strings.Join(matches, "\n")
}

// classify turns a rawImport into an InstallTarget, applying specifier
// classification, shape extraction, and the babel-macro filter. ok is
// false when the rawImport should be dropped entirely.
func classify(r rawImport) (InstallTarget, bool) {
	if r.TypeOnly {
		return InstallTarget{}, false
	}

	spec, ok := classifySpecifier(r.Specifier)
	if !ok {
		return InstallTarget{}, false
	}
	if reBabelMacro.MatchString(spec) {
		return InstallTarget{}, false
	}

	t := InstallTarget{Specifier: spec}
	if r.Dynamic {
		t.All = true
		return t, true
	}

	t.Default = reDefaultImport.MatchString(r.Statement)
	t.Namespace = strings.Contains(r.Statement, "*")
	if m := reNamedBindings.FindStringSubmatch(r.Statement); m != nil {
		t.Named = parseNamedBindings(m[1])
	}
	t.All = !t.Default && !t.Namespace && len(t.Named) == 0

	return t, true
}

// classifySpecifier applies spec §4.3's bare/web_modules/null rules.
// Type-only imports are already filtered via rawImport.TypeOnly before
// this is called.
func classifySpecifier(specifier string) (string, bool) {
	if isBareSpecifier(specifier) {
		return specifier, true
	}

	s := specifier
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}

	const marker = "web_modules/"
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(marker):]

	trimmed := strings.TrimSuffix(strings.TrimSuffix(rest, ".mjs"), ".js")
	if trimmed != rest && npm.IsValidTopLevelPackageName(trimmed) {
		return trimmed, true
	}
	return rest, true
}

// isBareSpecifier reports whether specifier begins with a letter, '_',
// or '@', and contains no "://" (i.e. is neither relative nor a URL).
func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	c := specifier[0]
	bare := c == '@' || c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	if !bare {
		return false
	}
	return !strings.Contains(specifier, "://")
}

// parseNamedBindings splits a `{...}` clause's inner text into trimmed
// binding names, stripping any " as X" alias suffix.
func parseNamedBindings(inner string) []string {
	parts := strings.Split(inner, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if i := strings.Index(p, " as "); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
