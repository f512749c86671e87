// Package install ties the core's subsystems into one invocation: File
// Enumerator, Source Loader, Import Scanner, Target Aggregator,
// Specifier Resolver, and Bundle Orchestrator (spec §2 System
// Overview).
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	"webinstall/internal/aggregate"
	"webinstall/internal/alias"
	"webinstall/internal/bundle"
	"webinstall/internal/config"
	"webinstall/internal/enum"
	"webinstall/internal/errs"
	"webinstall/internal/importmap"
	"webinstall/internal/loader"
	"webinstall/internal/logging"
	"webinstall/internal/resolve"
	"webinstall/internal/run"
	"webinstall/internal/scan"
	"webinstall/internal/storage"
)

// Result is the core's result surface (spec §6): "{success, hasError,
// importMap, newLockfile, stats}".
type Result struct {
	Success     bool
	HasError    bool
	ImportMap   *importmap.ImportMap
	NewLockfile *importmap.ImportMap
	Stats       []bundle.TargetStat
	Errors      []error
}

// Run executes one full install over cfg, checking ctx.Err() between
// stage transitions (spec §5: "checks ctx.Err() between the
// Enumerating/Scanning/.../Emitting transitions, not mid-stage").
func Run(ctx context.Context, cfg *config.Config, projectRoot string) Result {
	if len(cfg.Mount) == 0 {
		return Result{Errors: []error{&errs.ConfigInvalidError{Field: "mount", Reason: "at least one mount root is required"}}}
	}

	if err := logging.Init(cfg.LogDir, cfg.LogLevel); err != nil {
		return Result{Errors: []error{err}}
	}

	mountRoots := make([]string, 0, len(cfg.Mount))
	for dir := range cfg.Mount {
		mountRoots = append(mountRoots, dir)
	}
	sort.Strings(mountRoots)

	logging.Infof("enumerate: %d mount root(s)", len(mountRoots))
	files, err := enum.Enumerate(mountRoots, cfg.Exclude)
	if err != nil {
		return Result{Errors: []error{err}}
	}
	if err := ctx.Err(); err != nil {
		return Result{Errors: []error{err}}
	}

	rc, err := run.New(cfg, projectRoot)
	if err != nil {
		return Result{Errors: []error{err}}
	}

	logging.Infof("scan: %d file(s)", len(files))
	targets, scanWarnings, scanFatal := scanAll(files, cfg.BuildConcurrency)
	if len(scanFatal) > 0 {
		return Result{Errors: scanFatal}
	}
	for _, e := range scanWarnings {
		rc.AddWarning(e)
	}
	if err := ctx.Err(); err != nil {
		return Result{Errors: []error{err}}
	}

	aliasEntries := alias.Build(cfg.Alias)
	webDeps := make([]string, 0, len(cfg.WebDependencies))
	for name := range cfg.WebDependencies {
		webDeps = append(webDeps, name)
	}
	sort.Strings(webDeps)

	merged := aggregate.Aggregate(targets, cfg.KnownEntrypoints, webDeps, aliasEntries, cfg.InstallOptions.ExternalPackage)
	if err := ctx.Err(); err != nil {
		return Result{Errors: []error{err}}
	}

	logging.Infof("resolve: %d target(s)", len(merged))
	resolver := resolve.New(projectRoot, rc.Cache)

	var entries []bundle.Entry
	var resolveErrs []error
	for _, t := range merged {
		loc, err := resolver.Resolve(t.Specifier)
		if err != nil {
			resolveErrs = append(resolveErrs, fmt.Errorf("resolve %q: %w", t.Specifier, err))
			continue
		}
		entries = append(entries, bundle.Entry{Target: t, Location: loc})
	}
	if len(resolveErrs) > 0 {
		return Result{Errors: append(rc.Warnings(), resolveErrs...)}
	}
	if err := ctx.Err(); err != nil {
		return Result{Errors: []error{err}}
	}

	lockfilePath := filepath.Join(projectRoot, "webinstall-lock.json")
	lockfile, err := importmap.ReadLockfile(lockfilePath)
	if err != nil {
		return Result{Errors: []error{err}}
	}

	store, err := storage.New(&storage.StorageOptions{Type: storageType(cfg.InstallOptions.Dest), Endpoint: cfg.InstallOptions.Dest})
	if err != nil {
		return Result{Errors: []error{err}}
	}

	namedExportsHint := make(map[string][]string, len(merged))
	for _, t := range merged {
		if len(t.Named) > 0 {
			namedExportsHint[t.Specifier] = t.Named
		}
	}

	opts := bundle.Options{
		ProjectRoot:       projectRoot,
		Dest:              cfg.InstallOptions.Dest,
		Env:               cfg.InstallOptions.Env,
		AliasEntries:      aliasEntries,
		ExternalPackages:  cfg.InstallOptions.ExternalPackage,
		ForceExternalEnv:  os.Getenv("WEBINSTALL_FORCE_EXTERNAL"),
		SourceMap:         cfg.InstallOptions.SourceMap,
		Treeshake:         cfg.InstallOptions.Treeshake,
		NamedExportsHint:  namedExportsHint,
		NamedExportsExtra: cfg.InstallOptions.NamedExports,
		Dedupe:            cfg.InstallOptions.Rollup.Dedupe,
		RemoteVersions:    cfg.WebDependencies,
		Store:             store,
		Lockfile:          lockfile,
	}

	logging.Infof("bundle: %d entr(ies)", len(entries))
	result := bundle.Bundle(opts, entries)
	if !result.Success {
		logging.Errorf("bundle: failed with %d error(s)", len(result.Errors))
		return Result{HasError: true, Errors: append(rc.Warnings(), result.Errors...)}
	}

	if err := importmap.WriteLockfile(lockfilePath, result.ImportMap); err != nil {
		return Result{HasError: true, Errors: append(rc.Warnings(), err)}
	}

	warnings := rc.Warnings()
	logging.Infof("install complete: %d target(s), %d warning(s)", len(result.Stats), len(warnings))
	return Result{
		Success:     true,
		HasError:    len(warnings) > 0,
		ImportMap:   result.ImportMap,
		NewLockfile: result.ImportMap,
		Stats:       result.Stats,
		Errors:      warnings,
	}
}

// scanAll loads and scans every candidate file, parallelized with a
// bounded worker pool (spec §5: "may be parallelized across loaded
// files independently; no shared mutable state during parsing"), sized
// by cfg.buildConcurrency (falling back to 8 if unset, e.g. in tests
// that build a Config by hand rather than through normalizeConfig).
// Unrecognized extensions are collected as non-fatal warnings, matching
// the loader's own "never fatal" contract; a file whose bytes aren't
// valid UTF-8 defeats both scanner phases and is reported as a fatal
// errs.ParseFailureError, per §7's ParseFailure policy.
func scanAll(files []string, concurrency uint16) (targets []scan.InstallTarget, warnings []error, fatal []error) {
	workers := int(concurrency)
	if workers <= 0 {
		workers = 8
	}
	type outcome struct {
		targets []scan.InstallTarget
		warning error
		fatal   error
	}

	jobs := make(chan string)
	results := make(chan outcome)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				loaded, err := loader.Load(path)
				if err != nil {
					results <- outcome{warning: err}
					continue
				}
				if loaded == nil {
					continue
				}
				if !utf8.ValidString(loaded.Content) {
					results <- outcome{fatal: &errs.ParseFailureError{File: loaded.Path, Err: errors.New("source is not valid UTF-8")}}
					continue
				}
				results <- outcome{targets: scan.Scan(loaded.Path, loaded.Ext, loaded.Content)}
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []scan.InstallTarget
	for o := range results {
		switch {
		case o.fatal != nil:
			fatal = append(fatal, o.fatal)
		case o.warning != nil:
			warnings = append(warnings, o.warning)
		default:
			all = append(all, o.targets...)
		}
	}
	return scan.MergeAll(all), warnings, fatal
}

func storageType(dest string) string {
	if len(dest) >= 5 && dest[:5] == "s3://" {
		return "s3"
	}
	return "fs"
}
