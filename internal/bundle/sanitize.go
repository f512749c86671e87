package bundle

import (
	"strings"

	"webinstall/internal/resolve"
)

// invalidNameChars are characters that can't appear in a filename on
// common filesystems (path separators, Windows-reserved characters,
// and the npm scope separator).
var invalidNameChars = []string{"/", "\\", "@", ":", "*", "?", "\"", "<", ">", "|"}

// Sanitize derives a collision-prone-but-pure output filename from a
// specifier, given the kind its resolver location carried (spec §3
// Invariants: "a pure sanitization function of the specifier"). JS
// targets always get a fresh ".js" extension; asset targets keep
// whatever extension they resolved with.
func Sanitize(specifier string, kind resolve.Kind) string {
	name := specifier
	if kind == resolve.JS {
		name = strings.TrimSuffix(name, ".mjs")
		name = strings.TrimSuffix(name, ".js")
	}
	for _, c := range invalidNameChars {
		name = strings.ReplaceAll(name, c, "_")
	}
	if kind == resolve.JS {
		name += ".js"
	}
	return name
}

// DetectCollisions groups sanitized names back to the specifiers that
// produced them, returning only the groups with more than one member.
// Bundle surfaces an error rather than silently overwriting
// (spec §3 Invariants).
func DetectCollisions(specifiers []string, kind func(string) resolve.Kind) map[string][]string {
	byName := make(map[string][]string)
	for _, spec := range specifiers {
		name := Sanitize(spec, kind(spec))
		byName[name] = append(byName[name], spec)
	}
	collisions := make(map[string][]string)
	for name, specs := range byName {
		if len(specs) > 1 {
			collisions[name] = specs
		}
	}
	return collisions
}
