package resolve

import (
	"github.com/dgraph-io/ristretto"

	"webinstall/internal/npm"
)

// ManifestCache memoizes parsed package.json manifests for the
// lifetime of one run. It is intentionally the only thing this
// package shares across resolutions — the resolver itself holds no
// other mutable state, per the "no per-run package-level globals"
// rule (RunContext carries this cache, not a package variable).
type ManifestCache struct {
	cache *ristretto.Cache
}

// NewManifestCache builds a small in-memory cache sized for a single
// install run's worth of package manifests.
func NewManifestCache() (*ManifestCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ManifestCache{cache: c}, nil
}

func (m *ManifestCache) get(key string) (*npm.Manifest, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	manifest, ok := v.(*npm.Manifest)
	return manifest, ok
}

func (m *ManifestCache) set(key string, manifest *npm.Manifest, cost int64) {
	m.cache.Set(key, manifest, cost)
	m.cache.Wait()
}
