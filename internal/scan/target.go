// Package scan extracts InstallTarget records from loaded source text:
// every module specifier an application imports, classified by shape
// (default/namespace/named/all).
package scan

// InstallTarget is an immutable record of one specifier's aggregated
// usage shape across every place it was imported.
type InstallTarget struct {
	Specifier string
	All       bool
	Default   bool
	Namespace bool
	Named     []string
}

// Merge combines two targets for the same specifier: all/default/
// namespace are OR'd, named bindings are unioned and deduplicated.
func Merge(a, b InstallTarget) InstallTarget {
	out := InstallTarget{
		Specifier: a.Specifier,
		All:       a.All || b.All,
		Default:   a.Default || b.Default,
		Namespace: a.Namespace || b.Namespace,
	}
	seen := make(map[string]bool, len(a.Named)+len(b.Named))
	for _, n := range a.Named {
		if !seen[n] {
			seen[n] = true
			out.Named = append(out.Named, n)
		}
	}
	for _, n := range b.Named {
		if !seen[n] {
			seen[n] = true
			out.Named = append(out.Named, n)
		}
	}
	return out
}

// MergeAll folds a sequence of targets into one-target-per-specifier,
// preserving first-seen specifier order.
func MergeAll(targets []InstallTarget) []InstallTarget {
	order := make([]string, 0, len(targets))
	bySpecifier := make(map[string]InstallTarget, len(targets))
	for _, t := range targets {
		if existing, ok := bySpecifier[t.Specifier]; ok {
			bySpecifier[t.Specifier] = Merge(existing, t)
		} else {
			bySpecifier[t.Specifier] = t
			order = append(order, t.Specifier)
		}
	}
	out := make([]InstallTarget, 0, len(order))
	for _, spec := range order {
		out = append(out, bySpecifier[spec])
	}
	return out
}
