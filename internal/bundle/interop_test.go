package bundle

import (
	"reflect"
	"sort"
	"testing"
)

func TestDetectNamedExportsPropertyAssignment(t *testing.T) {
	src := `
		exports.foo = function() {};
		exports.bar = 42;
	`
	got := detectNamedExports(src)
	sort.Strings(got)
	want := []string{"bar", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("detectNamedExports() = %v, want %v", got, want)
	}
}

func TestDetectNamedExportsDefineProperty(t *testing.T) {
	src := `Object.defineProperty(exports, "baz", { enumerable: true, get: function () { return baz; } });`
	got := detectNamedExports(src)
	want := []string{"baz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("detectNamedExports() = %v, want %v", got, want)
	}
}

func TestDetectNamedExportsModuleExportsObjectLiteral(t *testing.T) {
	src := `
		module.exports = {
			alpha: alpha,
			beta: function () {},
		};
	`
	got := detectNamedExports(src)
	sort.Strings(got)
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("detectNamedExports() = %v, want %v", got, want)
	}
}

func TestDetectNamedExportsSkipsDefaultKey(t *testing.T) {
	src := `exports.default = function () {};`
	got := detectNamedExports(src)
	if len(got) != 0 {
		t.Errorf("detectNamedExports() = %v, want empty (default is not a named export)", got)
	}
}

func TestHasDefaultExportHeuristicFunctionAssignment(t *testing.T) {
	if !hasDefaultExportHeuristic(`module.exports = function () {};`) {
		t.Error("want true for module.exports = function")
	}
}

func TestHasDefaultExportHeuristicObjectLiteralIsNotDefault(t *testing.T) {
	if hasDefaultExportHeuristic(`module.exports = { a: 1, b: 2 };`) {
		t.Error("want false for a bare object literal export")
	}
}

func TestHasDefaultExportHeuristicAbsent(t *testing.T) {
	if hasDefaultExportHeuristic(`exports.foo = 1;`) {
		t.Error("want false when module.exports is never assigned")
	}
}

func TestUsesRequireModeExactAndPrefixMatch(t *testing.T) {
	if !usesRequireMode("cheerio", "cheerio", nil) {
		t.Error("want true for exact allow-listed package name")
	}
	if !usesRequireMode("lodash", "resolve/lib/sync", nil) {
		t.Error("want true for allow-listed specifier prefix")
	}
	if usesRequireMode("react", "react", nil) {
		t.Error("want false for a non-allow-listed package")
	}
}

func TestUsesRequireModeHonorsExtraAllowList(t *testing.T) {
	if usesRequireMode("some-custom-cjs-pkg", "some-custom-cjs-pkg", nil) {
		t.Error("want false without an extra allow-list entry")
	}
	if !usesRequireMode("some-custom-cjs-pkg", "some-custom-cjs-pkg", []string{"some-custom-cjs-pkg"}) {
		t.Error("want true once the package is in the caller-declared extra allow-list")
	}
}

func TestInteropDetectFallsBackToStaticScanWhenNotAllowListed(t *testing.T) {
	src := `exports.widget = 1;`
	got := InteropDetect("some-pkg", "some-pkg", "/tmp/does-not-matter.js", src, nil)
	want := InteropResult{HasDefaultExport: false, NamedExports: []string{"widget"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InteropDetect() = %+v, want %+v", got, want)
	}
}

func TestInteropDetectAllowListedFallsBackOnSubprocessFailure(t *testing.T) {
	src := `exports.foo = 1;`
	got := InteropDetect("cheerio", "cheerio", "/nonexistent/path/not-a-real-module.js", src, nil)
	want := InteropResult{HasDefaultExport: false, NamedExports: []string{"foo"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InteropDetect() = %+v, want %+v (should fall back to static scan when node require fails)", got, want)
	}
}
