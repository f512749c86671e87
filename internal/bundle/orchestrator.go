// Package bundle implements the Bundle Orchestrator (spec §4.6): it
// feeds resolved JS entries through a fixed esbuild plugin chain,
// copies assets verbatim, and emits an output directory, an import
// map, and a lockfile.
package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"webinstall/internal/alias"
	"webinstall/internal/errs"
	"webinstall/internal/importmap"
	"webinstall/internal/logging"
	"webinstall/internal/npm"
	"webinstall/internal/resolve"
	"webinstall/internal/scan"
	"webinstall/internal/storage"
)

// Entry is one resolved install target ready for bundling.
type Entry struct {
	Target   scan.InstallTarget
	Location resolve.DependencyLocation
}

// Options configures one Bundle invocation.
type Options struct {
	ProjectRoot       string
	Dest              string
	Env               map[string]any
	AliasEntries      []alias.Entry
	ExternalPackages  []string
	ForceExternalEnv  string // value of e.g. WEBINSTALL_FORCE_EXTERNAL
	SourceMap         bool
	Treeshake         bool
	NamedExportsHint  map[string][]string // target.shape data: specifier -> named bindings actually imported
	NamedExportsExtra []string            // installOptions.namedExports: user-declared extensions to requireModeAllowList
	Dedupe            []string            // installOptions.rollup.dedupe
	RemoteVersions    map[string]string   // webDependencies: specifier -> declared version, for lockfile version reconciliation
	Store             storage.Storage
	Lockfile          *importmap.ImportMap
}

// Result is the Bundle Orchestrator's result surface (spec §6).
type Result struct {
	Success    bool
	ImportMap  *importmap.ImportMap
	NewEntries []string // specifiers newly bundled this run, for lockfile updates
	Stats      []TargetStat
	Errors     []error
}

// Bundle runs the full orchestration over entries: externalization,
// collision detection, the esbuild plugin chain, and emission to
// opts.Store. Entries already satisfied by opts.Lockfile are excluded
// from the bundler invocation and carried straight into the result's
// import map with their lockfile URL.
func Bundle(opts Options, entries []Entry) Result {
	tr := newTracker()
	tr.advance() // Enumerating: caller already scanned/aggregated/resolved.
	tr.advance() // Scanning
	tr.advance() // Aggregating
	tr.advance() // Resolving

	im := importmap.New()
	var toBuild []Entry
	var buildSpecifiers []string

	for _, e := range entries {
		if e.Location.Kind == resolve.Ignore {
			continue
		}
		if opts.Lockfile != nil {
			if url, ok := opts.Lockfile.Imports.Get(e.Target.Specifier); ok && lockedVersionStillSatisfies(e.Target.Specifier, url, opts.RemoteVersions) {
				im.Imports.Set(e.Target.Specifier, url)
				continue
			}
		}
		if isExternalPackage(e.Target.Specifier, opts.ExternalPackages) {
			continue
		}
		toBuild = append(toBuild, e)
		buildSpecifiers = append(buildSpecifiers, e.Target.Specifier)
	}

	nameOf := make(map[string]string, len(toBuild))
	for _, e := range toBuild {
		name := Sanitize(e.Target.Specifier, e.Location.Kind)
		if v, ok := opts.RemoteVersions[e.Target.Specifier]; ok && npm.IsExactVersion(v) {
			name = npm.EmbedVersion(name, v)
		}
		nameOf[e.Target.Specifier] = name
	}
	if collisions := DetectCollisions(buildSpecifiers, func(spec string) resolve.Kind {
		for _, e := range toBuild {
			if e.Target.Specifier == spec {
				return e.Location.Kind
			}
		}
		return resolve.JS
	}); len(collisions) > 0 {
		tr.fail()
		var errsOut []error
		for name, specs := range collisions {
			errsOut = append(errsOut, fmt.Errorf("output name %q collides across specifiers %v", name, specs))
		}
		return Result{Success: false, Errors: errsOut}
	}

	tr.advance() // Bundling

	stats := newStatsCollector()
	assetEntries, jsEntries := splitByKind(toBuild)

	buildResult, buildErrs := runEsbuild(opts, jsEntries, assetEntries, nameOf, stats)
	if len(buildErrs) > 0 {
		tr.fail()
		return Result{Success: false, Errors: buildErrs}
	}

	tr.advance() // Emitting

	newSpecifiers := make([]string, 0, len(toBuild))
	for _, e := range toBuild {
		url := "./" + nameOf[e.Target.Specifier]
		im.Imports.Set(e.Target.Specifier, url)
		newSpecifiers = append(newSpecifiers, e.Target.Specifier)
	}

	if err := emit(opts, buildResult, assetEntries, nameOf, im); err != nil {
		tr.fail()
		return Result{Success: false, Errors: []error{err}}
	}

	finalStats := stats.finalize(buildSpecifiers, func(s string) string { return nameOf[s] }, toOutputFiles(buildResult))

	tr.advance() // Succeeded
	sort.Strings(newSpecifiers)
	return Result{
		Success:    true,
		ImportMap:  im,
		NewEntries: newSpecifiers,
		Stats:      finalStats,
	}
}

func splitByKind(entries []Entry) (assets, js []Entry) {
	for _, e := range entries {
		if e.Location.Kind == resolve.Asset {
			assets = append(assets, e)
		} else {
			js = append(js, e)
		}
	}
	return assets, js
}

// lockedVersionStillSatisfies reports whether a lockfile-keyed URL can
// still be trusted verbatim: when remoteVersions declares a version or
// range for specifier and the locked url carries a version embedded by
// EmbedVersion, the embedded version must satisfy the declared
// constraint. Absent a declared version, or an unversioned lock entry,
// the lock is trusted as before.
func lockedVersionStillSatisfies(specifier, url string, remoteVersions map[string]string) bool {
	constraint, ok := remoteVersions[specifier]
	if !ok || constraint == "" {
		return true
	}
	locked, ok := npm.ParseLockedVersion(url)
	if !ok {
		return true
	}
	return npm.SatisfiesConstraint(locked, constraint)
}

func isExternalPackage(specifier string, externals []string) bool {
	for _, ext := range externals {
		if specifier == ext || strings.HasPrefix(specifier, ext+"/") {
			return true
		}
	}
	return false
}

// esbuildBuildResult is the subset of esbuild's api.BuildResult this
// package reads.
type esbuildBuildResult struct {
	OutputFiles []esbuild.OutputFile
	Errors      []esbuild.Message
}

func runEsbuild(opts Options, jsEntries, assetEntries []Entry, nameOf map[string]string, stats *statsCollector) (esbuildBuildResult, []error) {
	if len(jsEntries) == 0 {
		return esbuildBuildResult{}, nil
	}

	entryPoints := make([]esbuild.EntryPoint, 0, len(jsEntries))
	for _, e := range jsEntries {
		entryPoints = append(entryPoints, esbuild.EntryPoint{
			InputPath:  e.Location.Path,
			OutputPath: strings.TrimSuffix(nameOf[e.Target.Specifier], ".js"),
		})
	}

	defines := buildDefineMap(opts.Env)
	aliasMap := buildAliasMap(opts.AliasEntries)
	externals := buildExternalList(opts.ExternalPackages, opts.ForceExternalEnv)

	plugins := []esbuild.Plugin{wrapperPlugin(opts, jsEntries, assetEntries, nameOf, stats)}
	if len(opts.Dedupe) > 0 {
		plugins = append(plugins, dedupePlugin(opts.Dedupe, jsEntries))
	}

	result := esbuild.Build(esbuild.BuildOptions{
		AbsWorkingDir:       opts.ProjectRoot,
		EntryPointsAdvanced: entryPoints,
		Bundle:              true,
		Splitting:           true,
		Platform:            esbuild.PlatformBrowser,
		Format:              esbuild.FormatESModule,
		Target:              esbuild.ESNext,
		Define:              defines,
		Alias:               aliasMap,
		External:            externals,
		Sourcemap:           sourcemapMode(opts.SourceMap),
		TreeShaking:         treeshakeMode(opts.Treeshake),
		Outdir:              "/",
		ChunkNames:          "common/[name]-[hash]",
		Write:               false,
		Loader: map[string]esbuild.Loader{
			".json": esbuild.LoaderJSON,
			".css":  esbuild.LoaderCSS,
		},
		Plugins: plugins,
	})

	msgs := make([]buildMessage, 0, len(result.Errors))
	for _, e := range result.Errors {
		msgs = append(msgs, buildMessage{Text: e.Text})
	}
	_, fatal := filterWarnings(msgs)
	if len(result.Errors) > 0 {
		var errsOut []error
		for _, e := range result.Errors {
			file := ""
			if e.Location != nil {
				file = e.Location.File
			}
			errsOut = append(errsOut, &errs.BundlerError{File: file, Err: fmt.Errorf("%s", e.Text)})
		}
		return esbuildBuildResult{}, append(errsOut, fatal...)
	}

	return esbuildBuildResult{OutputFiles: result.OutputFiles}, nil
}

func sourcemapMode(enabled bool) esbuild.SourceMap {
	if enabled {
		return esbuild.SourceMapLinked
	}
	return esbuild.SourceMapNone
}

func treeshakeMode(enabled bool) esbuild.TreeShaking {
	if enabled {
		return esbuild.TreeShakingTrue
	}
	return esbuild.TreeShakingFalse
}

// dedupePlugin implements stage 5's "honor a user-provided dedupe
// list": for each package name in names, every resolution of that
// package (regardless of importer) is redirected to the single
// already-resolved path the orchestrator picked for it, so esbuild
// never bundles more than one copy.
func dedupePlugin(names []string, jsEntries []Entry) esbuild.Plugin {
	canonical := make(map[string]string, len(names))
	for _, e := range jsEntries {
		pkgName, _ := npm.SplitPackageName(e.Target.Specifier)
		for _, name := range names {
			if pkgName == name {
				if _, exists := canonical[name]; !exists {
					canonical[name] = e.Location.Path
				}
			}
		}
	}
	return esbuild.Plugin{
		Name: "dedupe",
		Setup: func(build esbuild.PluginBuild) {
			build.OnResolve(esbuild.OnResolveOptions{Filter: ".*"}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
				pkgName, _ := npm.SplitPackageName(args.Path)
				if canonicalPath, ok := canonical[pkgName]; ok && canonicalPath != args.Path {
					return esbuild.OnResolveResult{Path: canonicalPath}, nil
				}
				return esbuild.OnResolveResult{}, nil
			})
		},
	}
}

// wrapperPlugin implements the stage-9 install-target wrapper and
// stage-4 fetch interception in one OnLoad: esbuild only lets one
// plugin's OnLoad claim a given file, so both transforms that can
// apply to the same source are composed here rather than split across
// two plugins with overlapping filters. Stage 4 runs first (it neutralizes
// fetch("…") calls whose literal argument resolves to a bundled asset
// URL), then stage 9 (it synthesizes a re-export shim when an imported
// named binding isn't among a CJS module's statically detected
// exports), each working off the other's possibly-rewritten source.
// Stage 10 (resolved-dependency counting for stats) is hooked in here
// too via OnResolve.
func wrapperPlugin(opts Options, jsEntries, assetEntries []Entry, nameOf map[string]string, stats *statsCollector) esbuild.Plugin {
	assetURLs := make(map[string]string, len(assetEntries))
	for _, a := range assetEntries {
		assetURLs[a.Target.Specifier] = "./" + nameOf[a.Target.Specifier]
	}
	return esbuild.Plugin{
		Name: "install-target-wrapper",
		Setup: func(build esbuild.PluginBuild) {
			build.OnResolve(esbuild.OnResolveOptions{Filter: ".*"}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
				for _, e := range jsEntries {
					if args.Path == e.Location.Path || args.Path == e.Target.Specifier {
						stats.recordDependency(rootSpecifier(jsEntries, args.Importer, e.Target.Specifier))
					}
				}
				return esbuild.OnResolveResult{}, nil
			})
			build.OnLoad(esbuild.OnLoadOptions{Filter: `\.[cm]?js$`}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
				entry := entryForPath(jsEntries, args.Path)
				if entry == nil {
					return esbuild.OnLoadResult{}, nil
				}
				source, err := os.ReadFile(args.Path)
				if err != nil {
					return esbuild.OnLoadResult{}, err
				}
				content := string(source)
				changed := false

				if rewritten, ok := interceptFetchCalls(content, assetURLs); ok {
					content = rewritten
					changed = true
				}

				hint, ok := opts.NamedExportsHint[entry.Target.Specifier]
				if ok && len(hint) > 0 {
					result := InteropDetect(entry.Target.Specifier, entry.Target.Specifier, args.Path, content, opts.NamedExportsExtra)
					if !coversAll(result.NamedExports, hint) {
						content = synthesizeWrapper(content, hint)
						changed = true
					}
				}

				if !changed {
					return esbuild.OnLoadResult{}, nil
				}
				return esbuild.OnLoadResult{Contents: &content, Loader: esbuild.LoaderJS}, nil
			})
		},
	}
}

var fetchCallPattern = regexp.MustCompile(`fetch\(\s*(['"` + "`" + `])([^'"` + "`" + `]*)([` + "'\"`" + `])\s*\)`)

// interceptFetchCalls implements stage 4: any fetch("…") call whose
// literal string argument exactly matches a bundled asset's original
// specifier is rewritten to fetch the asset's new bundled URL instead,
// so the asset actually resolves once it's no longer served at its
// original path. Non-literal fetch arguments are left untouched - this
// is a best-effort source rewrite, not a full parser.
func interceptFetchCalls(source string, assetURLs map[string]string) (string, bool) {
	if len(assetURLs) == 0 {
		return source, false
	}
	changed := false
	rewritten := fetchCallPattern.ReplaceAllStringFunc(source, func(match string) string {
		sub := fetchCallPattern.FindStringSubmatch(match)
		specifier := sub[2]
		url, ok := assetURLs[specifier]
		if !ok {
			return match
		}
		changed = true
		quote := sub[1]
		return "fetch(" + quote + url + quote + ")"
	})
	return rewritten, changed
}

func entryForPath(entries []Entry, p string) *Entry {
	for i := range entries {
		if entries[i].Location.Path == p {
			return &entries[i]
		}
	}
	return nil
}

func rootSpecifier(entries []Entry, importer, fallback string) string {
	if e := entryForPath(entries, importer); e != nil {
		return e.Target.Specifier
	}
	return fallback
}

func coversAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// synthesizeWrapper appends named re-exports to source for bindings
// that a static scan didn't find, so the install target's named
// imports resolve even against a CJS module with dynamically
// constructed exports.
func synthesizeWrapper(source string, namedBindings []string) string {
	var b strings.Builder
	b.WriteString(source)
	b.WriteString("\nconst __webinstall_mod = module.exports;\n")
	for _, name := range namedBindings {
		fmt.Fprintf(&b, "export const %s = __webinstall_mod[%q];\n", name, name)
	}
	b.WriteString("export default __webinstall_mod;\n")
	return b.String()
}

func toOutputFiles(r esbuildBuildResult) []outputFile {
	out := make([]outputFile, 0, len(r.OutputFiles))
	for _, f := range r.OutputFiles {
		out = append(out, outputFile{Path: f.Path, Contents: f.Contents})
	}
	return out
}

// importMapFilename is the fixed name the import map is emitted under
// inside the output directory (spec §6: "emitted inside the output
// directory under a fixed filename").
const importMapFilename = "import-map.json"

// emit clears the destination, writes every bundled JS output file,
// verbatim asset copy, and the import map, and stores them through
// opts.Store (spec §4.7: "both backends remove the destination's
// existing contents before emission begins").
func emit(opts Options, result esbuildBuildResult, assets []Entry, nameOf map[string]string, im *importmap.ImportMap) error {
	if opts.Store == nil {
		return nil
	}
	if err := opts.Store.Clear(); err != nil {
		return fmt.Errorf("clear destination: %w", err)
	}
	for _, f := range result.OutputFiles {
		key := path.Clean(strings.TrimPrefix(f.Path, "/"))
		if err := opts.Store.Put(key, bytes.NewReader(f.Contents)); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	for _, a := range assets {
		data, err := os.ReadFile(a.Location.Path)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", a.Location.Path, err)
		}
		key := nameOf[a.Target.Specifier]
		if err := opts.Store.Put(key, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("write asset %s: %w", key, err)
		}
	}
	if im != nil {
		if err := opts.Store.Put(importMapFilename, strings.NewReader(im.FormatJSON())); err != nil {
			return fmt.Errorf("write %s: %w", importMapFilename, err)
		}
	}
	return nil
}
