// Package alias classifies the configured specifier-rewrite map
// (config "alias" field) into typed entries and applies package-kind
// rewrites before resolution.
package alias

import "strings"

// Kind discriminates what an alias target refers to.
type Kind int

const (
	// KindPackage rewrites one bare specifier to another before
	// resolution; it participates in both target aggregation and the
	// bundler's alias stage.
	KindPackage Kind = iota
	// KindPath points at a local filesystem path; excluded from
	// install targets entirely.
	KindPath
	// KindURL points at an absolute URL; excluded from install
	// targets entirely.
	KindURL
)

// Entry is one resolved alias, classified by what its "to" side is.
type Entry struct {
	From string
	To   string
	Kind Kind
}

// Build classifies a raw from->to map (as decoded from config) into a
// slice of Entry, one per mapping. Order is not significant to
// resolution but is made deterministic (map iteration order is not)
// by the caller sorting if needed.
func Build(raw map[string]string) []Entry {
	entries := make([]Entry, 0, len(raw))
	for from, to := range raw {
		entries = append(entries, Entry{From: from, To: to, Kind: classify(to)})
	}
	return entries
}

// classify determines an alias target's kind: a URL contains "://", a
// path begins with "./", "../", or "/", and everything else is a
// package specifier.
func classify(to string) Kind {
	switch {
	case strings.Contains(to, "://"):
		return KindURL
	case strings.HasPrefix(to, "./"), strings.HasPrefix(to, "../"), strings.HasPrefix(to, "/"):
		return KindPath
	default:
		return KindPackage
	}
}

// Rewrite looks up specifier among entries and, if a package-kind
// match is found, returns its target and true. Path/URL aliases and
// non-matches leave the specifier untouched.
func Rewrite(entries []Entry, specifier string) (string, bool) {
	for _, e := range entries {
		if e.From == specifier {
			if e.Kind == KindPackage {
				return e.To, true
			}
			return specifier, false
		}
	}
	return specifier, false
}
