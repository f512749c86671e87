// Package npm parses npm package manifests and implements the small
// slice of npm naming/versioning rules the resolver needs: is this a
// valid top-level package name, and does a locked version still satisfy
// a constraint.
package npm

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ije/gox/utils"
	"github.com/ije/gox/valid"
)

var lockedVersionPattern = regexp.MustCompile(`\.v([0-9A-Za-z_-]+)\.\w+$`)

var (
	Naming     = valid.Validator{valid.Range{'a', 'z'}, valid.Range{'A', 'Z'}, valid.Range{'0', '9'}, valid.Eq('_'), valid.Eq('.'), valid.Eq('-'), valid.Eq('+')}
	Versioning = valid.Validator{valid.Range{'a', 'z'}, valid.Range{'A', 'Z'}, valid.Range{'0', '9'}, valid.Eq('_'), valid.Eq('.'), valid.Eq('-'), valid.Eq('+')}
)

// IsValidTopLevelPackageName reports whether spec is a syntactically
// valid top-level npm package name: "name", "@scope/name", optionally
// carrying a trailing "@version" the way specifiers sometimes do.
// A "top-level" name has no further subpath after the package name.
func IsValidTopLevelPackageName(spec string) bool {
	name, _ := SplitPackageVersion(spec)
	if name == "" || len(name) > 214 {
		return false
	}
	if strings.HasPrefix(name, "@") {
		scope, rest := utils.SplitByFirstByte(name[1:], '/')
		if rest == "" || strings.ContainsRune(rest, '/') {
			return false
		}
		return Naming.Match(scope) && Naming.Match(rest)
	}
	return !strings.ContainsRune(name, '/') && Naming.Match(name)
}

// SplitPackageName splits a bare specifier into its package name and
// subpath, honoring scoped package names (the scope segment doesn't
// count as a subpath boundary).
func SplitPackageName(spec string) (pkgName string, subpath string) {
	if strings.HasPrefix(spec, "@") {
		scope, rest := utils.SplitByFirstByte(spec[1:], '/')
		name, sub := utils.SplitByFirstByte(rest, '/')
		if name == "" {
			return spec, ""
		}
		return "@" + scope + "/" + name, sub
	}
	return utils.SplitByFirstByte(spec, '/')
}

// SplitPackageVersion splits "name@version" (scope-aware) into its
// name and version parts; version is "" when absent.
func SplitPackageVersion(spec string) (name string, version string) {
	if strings.HasPrefix(spec, "@") {
		rest := spec[1:]
		if i := strings.IndexByte(rest, '@'); i > 0 {
			return spec[:i+1], spec[i+2:]
		}
		return spec, ""
	}
	if i := strings.IndexByte(spec, '@'); i > 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

// IsExactVersion reports whether version is a fully-qualified semver
// version (major.minor.patch, optionally with pre-release/build
// metadata) rather than a range or dist-tag.
func IsExactVersion(version string) bool {
	_, err := semver.StrictNewVersion(version)
	return err == nil
}

// SatisfiesConstraint reports whether version satisfies the given
// semver constraint string. An invalid constraint or version never
// satisfies.
func SatisfiesConstraint(version, constraint string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// ParseLockedVersion extracts the version embedded in a locked output
// URL by EmbedVersion (e.g. "./react.v17_0_2.js" -> "17.0.2"), so a
// later run can check the lock is still valid against a newly declared
// version constraint before trusting it.
func ParseLockedVersion(url string) (version string, ok bool) {
	m := lockedVersionPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[1], "_", "."), true
}

// EmbedVersion embeds an exact version into an output name so a future
// run can recover it via ParseLockedVersion. Dots in version are
// replaced with underscores since name is itself used inside an
// extensioned filename (e.g. "react.js" -> "react.v17_0_2.js").
func EmbedVersion(name, version string) string {
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i:]
		name = name[:i]
	}
	return name + ".v" + strings.ReplaceAll(version, ".", "_") + ext
}

// IsReservedWorkaroundPackage reports whether pkgName is one of the
// obsolete ESM-workaround packages the resolver must refuse with a
// migration hint (spec §4.5).
func IsReservedWorkaroundPackage(pkgName string) bool {
	if strings.HasPrefix(pkgName, "@reactesm/") {
		return true
	}
	if pkgName == "@pika/react" || strings.HasPrefix(pkgName, "@pika/react") {
		return true
	}
	return false
}
