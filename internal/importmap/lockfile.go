package importmap

import (
	"errors"
	"os"
	"path/filepath"
)

// ReadLockfile loads a lockfile from path. A missing file is not an
// error: it returns an empty, non-nil ImportMap, since an absent
// lockfile simply means every target resolves and bundles fresh.
func ReadLockfile(path string) (*ImportMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// WriteLockfile writes im to path, via a temp file in the same
// directory renamed into place, so a crash or concurrent read never
// observes a partially written lockfile — the lockfile is this
// installer's only cross-invocation state (spec §3 Lifecycle), and a
// corrupt one would wrongly skip resolution on the next run.
func WriteLockfile(path string, im *ImportMap) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".lockfile-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(im.FormatJSON()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
