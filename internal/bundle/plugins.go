package bundle

import (
	"encoding/json"
	"os"
	"strings"

	"webinstall/internal/alias"
	"webinstall/internal/errs"
)

// buildDefineMap turns the config "env" map into esbuild's flat
// Define map (string -> literal source text). A value of literal
// `true` is replaced by the host's current value of that environment
// variable, JSON-encoded as a string (or `undefined` when the host does
// not set it); everything else is JSON-encoded so numbers, objects, and
// strings all substitute as valid JS literals. NODE_ENV always gets an entry, defaulting to
// "production" when the caller didn't set one, since most packages'
// dead-code-elimination branches key off it.
func buildDefineMap(env map[string]any) map[string]string {
	define := make(map[string]string, len(env)+1)
	if _, ok := env["NODE_ENV"]; !ok {
		define["process.env.NODE_ENV"] = `"production"`
	}
	for key, value := range env {
		define["process.env."+key] = defineLiteral(key, value)
	}
	return define
}

func defineLiteral(key string, value any) string {
	if b, ok := value.(bool); ok && b {
		hostValue, set := os.LookupEnv(key)
		if !set {
			return "undefined"
		}
		value = hostValue
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "undefined"
	}
	return string(data)
}

// buildAliasMap projects package-kind alias entries into esbuild's
// native Alias map; path and URL aliases are handled earlier, by the
// target aggregator (spec §4.4), and never reach the bundler.
func buildAliasMap(entries []alias.Entry) map[string]string {
	m := make(map[string]string)
	for _, e := range entries {
		if e.Kind == alias.KindPackage {
			m[e.From] = e.To
		}
	}
	return m
}

// buildExternalList produces esbuild's External list: every
// user-declared external package prefix, plus any exception packages
// that must stay external for CommonJS interop reasons regardless of
// the user's own externalPackage config (named via the
// WEBINSTALL_FORCE_EXTERNAL environment convention, space-separated).
func buildExternalList(externalPackages []string, forceExternalEnv string) []string {
	out := make([]string, 0, len(externalPackages))
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, p := range externalPackages {
		add(p)
	}
	for _, p := range strings.Fields(forceExternalEnv) {
		add(p)
	}
	return out
}

// buildMessage is the subset of an esbuild build error this package
// needs to classify, kept narrow so the classification logic is
// testable without linking esbuild.
type buildMessage struct {
	Text     string
	File     string
	Importer string
}

// warningClass discriminates the three ways the orchestrator treats a
// build message (spec §4.6 warning policy).
type warningClass int

const (
	// classPassThrough is reported as-is, neither suppressed nor
	// escalated.
	classPassThrough warningClass = iota
	// classCircularDedup is a CIRCULAR_DEPENDENCY warning; only the
	// first one seen in a run is kept, the rest are dropped.
	classCircularDedup
	// classUnresolvedFatal is an unresolved-module warning upgraded to
	// a fatal error: the spec's unresolved-catcher never lets an
	// unresolved specifier pass as a mere warning.
	classUnresolvedFatal
)

func classifyWarning(msg buildMessage) warningClass {
	switch {
	case strings.Contains(msg.Text, "CIRCULAR_DEPENDENCY"):
		return classCircularDedup
	case strings.Contains(msg.Text, "Could not resolve"):
		return classUnresolvedFatal
	default:
		return classPassThrough
	}
}

// filterWarnings applies classifyWarning across msgs, deduplicating
// circular-dependency warnings to their first occurrence and
// collecting unresolved-module messages as fatal errors instead of
// warnings.
func filterWarnings(msgs []buildMessage) (keep []buildMessage, fatal []error) {
	sawCircular := false
	for _, m := range msgs {
		switch classifyWarning(m) {
		case classCircularDedup:
			if sawCircular {
				continue
			}
			sawCircular = true
			keep = append(keep, m)
		case classUnresolvedFatal:
			fatal = append(fatal, &errs.UnresolvedModuleError{Specifier: m.File, Importer: m.Importer})
		default:
			keep = append(keep, m)
		}
	}
	return keep, fatal
}
