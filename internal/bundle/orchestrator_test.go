package bundle

import (
	"reflect"
	"testing"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"webinstall/internal/resolve"
	"webinstall/internal/scan"
)

func TestSplitByKindSeparatesAssetsFromJS(t *testing.T) {
	entries := []Entry{
		{Target: scan.InstallTarget{Specifier: "react"}, Location: resolve.DependencyLocation{Kind: resolve.JS}},
		{Target: scan.InstallTarget{Specifier: "normalize.css"}, Location: resolve.DependencyLocation{Kind: resolve.Asset}},
	}
	assets, js := splitByKind(entries)
	if len(assets) != 1 || assets[0].Target.Specifier != "normalize.css" {
		t.Errorf("assets = %+v, want one entry for normalize.css", assets)
	}
	if len(js) != 1 || js[0].Target.Specifier != "react" {
		t.Errorf("js = %+v, want one entry for react", js)
	}
}

func TestIsExternalPackageExactAndSubpath(t *testing.T) {
	externals := []string{"react"}
	if !isExternalPackage("react", externals) {
		t.Error("want true for exact match")
	}
	if !isExternalPackage("react/jsx-runtime", externals) {
		t.Error("want true for subpath match")
	}
	if isExternalPackage("react-dom", externals) {
		t.Error("want false for a package merely sharing a prefix")
	}
}

func TestSourcemapMode(t *testing.T) {
	if sourcemapMode(true) != esbuild.SourceMapLinked {
		t.Error("want SourceMapLinked when enabled")
	}
	if sourcemapMode(false) != esbuild.SourceMapNone {
		t.Error("want SourceMapNone when disabled")
	}
}

func TestCoversAll(t *testing.T) {
	if !coversAll([]string{"a", "b", "c"}, []string{"a", "c"}) {
		t.Error("want true when have is a superset of want")
	}
	if coversAll([]string{"a"}, []string{"a", "b"}) {
		t.Error("want false when have is missing a wanted binding")
	}
}

func TestEntryForPathAndRootSpecifier(t *testing.T) {
	entries := []Entry{
		{Target: scan.InstallTarget{Specifier: "react"}, Location: resolve.DependencyLocation{Path: "/node_modules/react/index.js"}},
	}
	e := entryForPath(entries, "/node_modules/react/index.js")
	if e == nil || e.Target.Specifier != "react" {
		t.Fatalf("entryForPath() = %v, want react entry", e)
	}
	if got := rootSpecifier(entries, "/node_modules/react/index.js", "fallback"); got != "react" {
		t.Errorf("rootSpecifier() = %q, want react", got)
	}
	if got := rootSpecifier(entries, "/unrelated/path.js", "fallback"); got != "fallback" {
		t.Errorf("rootSpecifier() = %q, want fallback", got)
	}
}

func TestSynthesizeWrapperAppendsNamedReexports(t *testing.T) {
	source := "module.exports = { foo: 1 };"
	got := synthesizeWrapper(source, []string{"foo", "bar"})
	want := source + "\nconst __webinstall_mod = module.exports;\n" +
		"export const foo = __webinstall_mod[\"foo\"];\n" +
		"export const bar = __webinstall_mod[\"bar\"];\n" +
		"export default __webinstall_mod;\n"
	if got != want {
		t.Errorf("synthesizeWrapper() = %q, want %q", got, want)
	}
}

func TestTreeshakeMode(t *testing.T) {
	if treeshakeMode(true) != esbuild.TreeShakingTrue {
		t.Error("want TreeShakingTrue when enabled")
	}
	if treeshakeMode(false) != esbuild.TreeShakingFalse {
		t.Error("want TreeShakingFalse when disabled")
	}
}

func TestLockedVersionStillSatisfiesTrustsUnversionedLock(t *testing.T) {
	if !lockedVersionStillSatisfies("react", "./react.js", nil) {
		t.Error("want true when no version constraint is declared for the specifier")
	}
}

func TestLockedVersionStillSatisfiesTrustsUnembeddedURL(t *testing.T) {
	remote := map[string]string{"react": "^17.0.0"}
	if !lockedVersionStillSatisfies("react", "./react.js", remote) {
		t.Error("want true when the locked URL carries no embedded version to check")
	}
}

func TestLockedVersionStillSatisfiesRejectsOutOfRangeLock(t *testing.T) {
	remote := map[string]string{"react": "^18.0.0"}
	if lockedVersionStillSatisfies("react", "./react.v17_0_2.js", remote) {
		t.Error("want false when the locked embedded version no longer satisfies the declared constraint")
	}
}

func TestLockedVersionStillSatisfiesAcceptsInRangeLock(t *testing.T) {
	remote := map[string]string{"react": "^17.0.0"}
	if !lockedVersionStillSatisfies("react", "./react.v17_0_2.js", remote) {
		t.Error("want true when the locked embedded version satisfies the declared constraint")
	}
}

func TestInterceptFetchCallsRewritesMatchingAssetLiteral(t *testing.T) {
	assetURLs := map[string]string{"./logo.png": "./logo.abc123.png"}
	src := `const img = fetch("./logo.png");`
	got, changed := interceptFetchCalls(src, assetURLs)
	if !changed {
		t.Fatal("want changed=true when a fetch() literal matches a bundled asset")
	}
	want := `const img = fetch("./logo.abc123.png");`
	if got != want {
		t.Errorf("interceptFetchCalls() = %q, want %q", got, want)
	}
}

func TestInterceptFetchCallsLeavesNonMatchingCallsAlone(t *testing.T) {
	assetURLs := map[string]string{"./logo.png": "./logo.abc123.png"}
	src := `const r = fetch("/api/data");`
	got, changed := interceptFetchCalls(src, assetURLs)
	if changed || got != src {
		t.Errorf("interceptFetchCalls() = (%q, %v), want unchanged", got, changed)
	}
}

func TestInterceptFetchCallsNoOpWithoutAssets(t *testing.T) {
	src := `const r = fetch("./logo.png");`
	got, changed := interceptFetchCalls(src, nil)
	if changed || got != src {
		t.Errorf("interceptFetchCalls() = (%q, %v), want unchanged with no asset URLs", got, changed)
	}
}

func TestDedupePluginResolvesDedupedPackageToCanonicalPath(t *testing.T) {
	jsEntries := []Entry{
		{Target: scan.InstallTarget{Specifier: "react"}, Location: resolve.DependencyLocation{Path: "/node_modules/react/index.js"}},
	}
	plugin := dedupePlugin([]string{"react"}, jsEntries)
	if plugin.Name != "dedupe" {
		t.Errorf("plugin.Name = %q, want %q", plugin.Name, "dedupe")
	}
	var onResolve func(esbuild.OnResolveArgs) (esbuild.OnResolveResult, error)
	plugin.Setup(esbuild.PluginBuild{
		OnResolve: func(_ esbuild.OnResolveOptions, callback func(esbuild.OnResolveArgs) (esbuild.OnResolveResult, error)) {
			onResolve = callback
		},
	})
	got, err := onResolve(esbuild.OnResolveArgs{Path: "react"})
	if err != nil || got.Path != "/node_modules/react/index.js" {
		t.Errorf("resolve react = (%q, %v), want %q", got.Path, err, "/node_modules/react/index.js")
	}
}

func TestToOutputFiles(t *testing.T) {
	r := esbuildBuildResult{OutputFiles: []esbuild.OutputFile{
		{Path: "/a.js", Contents: []byte("abc")},
	}}
	got := toOutputFiles(r)
	want := []outputFile{{Path: "/a.js", Contents: []byte("abc")}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toOutputFiles() = %+v, want %+v", got, want)
	}
}
