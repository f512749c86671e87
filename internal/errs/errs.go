// Package errs defines the typed errors the installer's stages return,
// so callers discriminate failure kinds with errors.As instead of
// matching against error message text.
package errs

import "fmt"

// ConfigInvalidError reports a configuration that can't be used to run
// an install: a missing mandatory field, or no node_modules and no
// remote dependency manifest to resolve against.
type ConfigInvalidError struct {
	Field  string
	Reason string
}

func (e *ConfigInvalidError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid config: %s", e.Reason)
}

// ParseFailureError reports a source file neither the lexer nor the
// fallback regex scanner could make sense of.
type ParseFailureError struct {
	File string
	Err  error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseFailureError) Unwrap() error { return e.Err }

// ResolutionFailureError reports a specifier that exhausted all four
// resolution strategies.
type ResolutionFailureError struct {
	Specifier string
	Hint      string
}

func (e *ResolutionFailureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("cannot resolve %q: %s", e.Specifier, e.Hint)
	}
	return fmt.Sprintf("cannot resolve %q", e.Specifier)
}

// ExportMapMismatchError reports a subpath export entry whose resolved
// condition value is not a string.
type ExportMapMismatchError struct {
	Package string
	Subpath string
}

func (e *ExportMapMismatchError) Error() string {
	return fmt.Sprintf("package %q: export map entry %q did not resolve to a string", e.Package, e.Subpath)
}

// ObsoletePackageError reports a reserved ESM-workaround package name
// (e.g. @reactesm/*, @pika/react*) that the resolver refuses outright.
type ObsoletePackageError struct {
	Package string
	Hint    string
}

func (e *ObsoletePackageError) Error() string {
	return fmt.Sprintf("%q is an obsolete workaround package: %s", e.Package, e.Hint)
}

// BundlerError reports a bundler-level failure pinned to a source file.
type BundlerError struct {
	File       string
	PluginHint string
	Err        error
}

func (e *BundlerError) Error() string {
	if e.PluginHint != "" {
		return fmt.Sprintf("bundle %s: %v (missing plugin? try: %s)", e.File, e.Err, e.PluginHint)
	}
	return fmt.Sprintf("bundle %s: %v", e.File, e.Err)
}

func (e *BundlerError) Unwrap() error { return e.Err }

// CircularDependencyError records the first import cycle observed
// during bundling; it is a warning, never fatal.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %v", e.Cycle)
}

// UnresolvedModuleError reports a module id still unresolved at the end
// of the plugin chain; always fatal, never a mere warning.
type UnresolvedModuleError struct {
	Specifier string
	Importer  string
}

func (e *UnresolvedModuleError) Error() string {
	if e.Importer != "" {
		return fmt.Sprintf("unresolved module %q imported from %s", e.Specifier, e.Importer)
	}
	return fmt.Sprintf("unresolved module %q", e.Specifier)
}
