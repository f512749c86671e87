// Package aggregate implements the Target Aggregator (spec §4.4): it
// unions the scanned-imports, known-entrypoints, and web-dependency
// target streams, rewrites specifiers through alias resolution,
// filters out externalized packages, and produces a deterministic,
// lexicographically sorted target list for the resolver.
package aggregate

import (
	"sort"
	"strings"

	"webinstall/internal/alias"
	"webinstall/internal/scan"
)

// Aggregate merges scanned, knownEntrypoints, and webDependencies into
// one target per specifier, rewrites specifiers through aliasEntries,
// drops any specifier covered by an externalPrefixes entry, and
// returns the survivors sorted lexicographically by specifier.
func Aggregate(scanned []scan.InstallTarget, knownEntrypoints []string, webDependencies []string, aliasEntries []alias.Entry, externalPrefixes []string) []scan.InstallTarget {
	all := make([]scan.InstallTarget, 0, len(scanned)+len(knownEntrypoints)+len(webDependencies))
	all = append(all, scanned...)
	for _, ep := range knownEntrypoints {
		all = append(all, scan.InstallTarget{Specifier: ep, All: true})
	}
	for _, dep := range webDependencies {
		all = append(all, scan.InstallTarget{Specifier: dep, All: true})
	}

	for i := range all {
		if to, ok := alias.Rewrite(aliasEntries, all[i].Specifier); ok {
			all[i].Specifier = to
		}
	}

	merged := scan.MergeAll(all)

	out := merged[:0:0]
	for _, t := range merged {
		if isExternalized(t.Specifier, externalPrefixes) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Specifier < out[j].Specifier })
	return out
}

// isExternalized reports whether specifier is covered by any prefix
// in externalPrefixes: either an exact match, or the specifier begins
// with "<prefix>/".
func isExternalized(specifier string, externalPrefixes []string) bool {
	for _, ext := range externalPrefixes {
		if specifier == ext || strings.HasPrefix(specifier, ext+"/") {
			return true
		}
	}
	return false
}
