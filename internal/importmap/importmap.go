// Package importmap builds the browser import map the installer
// writes alongside its bundled output: a deterministic
// {"imports": {specifier: output-relative URL}} document, per the
// import maps specification
// https://developer.mozilla.org/en-US/docs/Web/HTML/Reference/Elements/script/type/importmap
package importmap

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Imports is a thread-safe specifier->URL map whose iteration order
// (Keys) is always sorted, so two runs over the same target set
// produce byte-identical output.
type Imports struct {
	lock    sync.RWMutex
	imports map[string]string
}

// NewImports builds an Imports, copying entries if given.
func NewImports(entries map[string]string) *Imports {
	m := make(map[string]string, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &Imports{imports: m}
}

// Len returns the number of entries.
func (i *Imports) Len() int {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return len(i.imports)
}

// Keys returns the map's keys, sorted lexicographically.
func (i *Imports) Keys() []string {
	i.lock.RLock()
	defer i.lock.RUnlock()
	keys := make([]string, 0, len(i.imports))
	for k := range i.imports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the URL for specifier, if set.
func (i *Imports) Get(specifier string) (string, bool) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	url, ok := i.imports[specifier]
	return url, ok
}

// Set sets specifier's URL.
func (i *Imports) Set(specifier, url string) {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.imports[specifier] = url
}

// Delete removes specifier.
func (i *Imports) Delete(specifier string) {
	i.lock.Lock()
	defer i.lock.Unlock()
	delete(i.imports, specifier)
}

// ImportMap is the top-level document: just an imports map, per this
// installer's data model (spec §3 ImportMap) — no scopes, integrity,
// or CDN config, unlike a CDN's richer runtime import map.
type ImportMap struct {
	Imports *Imports
}

// New creates an empty import map.
func New() *ImportMap {
	return &ImportMap{Imports: NewImports(nil)}
}

// importMapJSON mirrors the on-disk shape for decoding; Lockfile uses
// the identical schema (spec §3: "Same schema as ImportMap").
type importMapJSON struct {
	Imports map[string]string `json:"imports"`
}

// Parse decodes an import map (or lockfile) document.
func Parse(data []byte) (*ImportMap, error) {
	var raw importMapJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &ImportMap{Imports: NewImports(raw.Imports)}, nil
}

// MarshalJSON implements json.Marshaler, delegating to FormatJSON so
// every output path produces the same deterministic byte layout.
func (im *ImportMap) MarshalJSON() ([]byte, error) {
	return []byte(im.FormatJSON()), nil
}

// FormatJSON renders the import map as two-space-indented, sorted-key
// JSON, hand-formatted rather than encoding/json with SetIndent so key
// order is controlled explicitly instead of relying on map iteration
// order.
func (im *ImportMap) FormatJSON() string {
	var buf strings.Builder
	buf.WriteString("{\n  \"imports\": {")
	keys := im.Imports.Keys()
	if len(keys) > 0 {
		buf.WriteByte('\n')
		for idx, key := range keys {
			value, _ := im.Imports.Get(key)
			buf.WriteString("    ")
			writeJSONString(&buf, key)
			buf.WriteString(": ")
			writeJSONString(&buf, value)
			if idx < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("  }")
	} else {
		buf.WriteByte('}')
	}
	buf.WriteString("\n}")
	return buf.String()
}

func writeJSONString(buf *strings.Builder, s string) {
	data, _ := json.Marshal(s)
	buf.Write(bytes.TrimSpace(data))
}
