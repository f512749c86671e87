// Package run defines RunContext, the one mutable record threaded
// through a single install invocation (spec §3.1 Supplemented data):
// the resolved config, a shared manifest cache, the circular-
// dependency-seen flag, and an accumulating warning list. No package
// under internal/ keeps per-run state in a package-level global;
// everything that varies run to run lives here instead.
package run

import (
	"sync"

	"webinstall/internal/config"
	"webinstall/internal/resolve"
)

// Context is threaded through enumeration, scanning, resolution and
// bundling for one invocation. Its exported fields are set once at
// construction and read-only afterward; the mutable parts (warnings,
// the circular flag) are guarded by mu and only touched through its
// methods.
type Context struct {
	Config      *config.Config
	ProjectRoot string
	Cache       *resolve.ManifestCache

	mu           sync.Mutex
	circularSeen bool
	warnings     []error
}

// New builds a Context for one run, allocating a fresh manifest cache.
func New(cfg *config.Config, projectRoot string) (*Context, error) {
	cache, err := resolve.NewManifestCache()
	if err != nil {
		return nil, err
	}
	return &Context{Config: cfg, ProjectRoot: projectRoot, Cache: cache}, nil
}

// AddWarning appends a non-fatal error to the run's warning list.
func (rc *Context) AddWarning(err error) {
	if err == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.warnings = append(rc.warnings, err)
}

// Warnings returns every warning recorded so far.
func (rc *Context) Warnings() []error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]error, len(rc.warnings))
	copy(out, rc.warnings)
	return out
}

// MarkCircular records that a circular dependency has been observed,
// reporting whether this is the first occurrence this run (spec
// §4.6's circular-dependency warning is deduplicated: only the first
// cycle found is surfaced, later ones are silently dropped).
func (rc *Context) MarkCircular() (first bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.circularSeen {
		return false
	}
	rc.circularSeen = true
	return true
}
