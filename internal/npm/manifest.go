package npm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ije/gox/set"
)

// ManifestRaw is the on-disk shape of a package.json manifest, decoded
// with minimal assumptions about field types since the npm ecosystem
// is inconsistent about what each field may hold.
type ManifestRaw struct {
	Name             string          `json:"name"`
	Version          string          `json:"version"`
	Type             string          `json:"type"`
	Main             JSONAny         `json:"main"`
	Module           JSONAny         `json:"module"`
	ES2015           JSONAny         `json:"es2015"`
	JsNextMain       JSONAny         `json:"jsnext:main"`
	Browser          JSONAny         `json:"browser"`
	Types            JSONAny         `json:"types"`
	Typings          JSONAny         `json:"typings"`
	SideEffects      any             `json:"sideEffects"`
	Dependencies     any             `json:"dependencies"`
	PeerDependencies any             `json:"peerDependencies"`
	Imports          any             `json:"imports"`
	Exports          json.RawMessage `json:"exports"`
	Engines          any             `json:"engines"`
	Deprecated       any             `json:"deprecated"`
}

// Manifest is the resolved, normalized form of a package.json that the
// Specifier Resolver reads fields off of.
type Manifest struct {
	Name             string
	Version          string
	Type             string
	Main             string
	Module           string
	Types            string
	Typings          string
	SideEffectsFalse bool
	SideEffects      set.ReadOnlySet[string]
	Browser          map[string]string
	Dependencies     map[string]string
	PeerDependencies map[string]string
	Imports          map[string]any
	Exports          JSONObject
	Engines          map[string]any
	Deprecated       string
}

// ParseManifest decodes raw package.json bytes into a resolved Manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw ManifestRaw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.resolve(), nil
}

func (a *ManifestRaw) resolve() *Manifest {
	browser := map[string]string{}
	if a.Browser.Str != "" && isModuleFile(a.Browser.Str) {
		browser["."] = a.Browser.Str
	}
	if a.Browser.Map != nil {
		for k, v := range a.Browser.Map {
			if s, isStr := v.(string); isStr {
				browser[k] = s
			} else if b, ok := v.(bool); ok && !b {
				browser[k] = ""
			}
		}
	}

	var dependencies map[string]string
	if m, ok := a.Dependencies.(map[string]any); ok {
		dependencies = make(map[string]string)
		for k, v := range m {
			if s, ok := v.(string); ok && k != "" && s != "" {
				dependencies[k] = s
			}
		}
	}

	var peerDependencies map[string]string
	if m, ok := a.PeerDependencies.(map[string]any); ok {
		peerDependencies = make(map[string]string)
		for k, v := range m {
			if s, ok := v.(string); ok && k != "" && s != "" {
				peerDependencies[k] = s
			}
		}
	}

	sideEffects := set.New[string]()
	sideEffectsFalse := false
	if a.SideEffects != nil {
		switch v := a.SideEffects.(type) {
		case string:
			if v == "false" {
				sideEffectsFalse = true
			} else if isModuleFile(v) {
				sideEffects.Add(v)
			}
		case bool:
			sideEffectsFalse = !v
		case []any:
			for _, item := range v {
				if name, ok := item.(string); ok && isModuleFile(name) {
					sideEffects.Add(name)
				}
			}
		}
	}

	exports := JSONObject{}
	if rawExports := a.Exports; rawExports != nil {
		var s string
		if json.Unmarshal(rawExports, &s) == nil {
			if len(s) > 0 {
				exports = NewJSONObject([]string{"."}, map[string]any{".": s})
			}
		} else {
			exports.UnmarshalJSON(rawExports)
		}
	}

	deprecated := ""
	if s, ok := a.Deprecated.(string); ok {
		deprecated = s
	}

	m := &Manifest{
		Name:             a.Name,
		Version:          a.Version,
		Type:             a.Type,
		Main:             a.Main.MainString(),
		Module:           a.Module.MainString(),
		Types:            a.Types.MainString(),
		Typings:          a.Typings.MainString(),
		Browser:          browser,
		SideEffectsFalse: sideEffectsFalse,
		SideEffects:      *sideEffects.ReadOnly(),
		Dependencies:     dependencies,
		PeerDependencies: peerDependencies,
		Imports:          toMap(a.Imports),
		Exports:          exports,
		Engines:          toMap(a.Engines),
		Deprecated:       deprecated,
	}

	// module field fallback chain: module -> es2015 -> jsnext:main -> main (if ESM)
	if m.Module == "" {
		if es2015 := a.ES2015.MainString(); es2015 != "" {
			m.Module = es2015
		} else if jsNextMain := a.JsNextMain.MainString(); jsNextMain != "" {
			m.Module = jsNextMain
		} else if m.Main != "" && (m.Type == "module" || strings.HasSuffix(m.Main, ".mjs")) {
			m.Module = m.Main
			m.Main = ""
		}
	}

	return m
}

// JSONObject is a JSON object that preserves its source key order, needed
// because export-map condition priority is positional, not alphabetic.
type JSONObject struct {
	keys   []string
	values map[string]any
}

// NewJSONObject builds a JSONObject from an explicit key order and value map.
func NewJSONObject(keys []string, values map[string]any) JSONObject {
	return JSONObject{keys: keys, values: values}
}

func (obj *JSONObject) Len() int             { return len(obj.keys) }
func (obj *JSONObject) Keys() []string       { return obj.keys }
func (obj *JSONObject) Values() map[string]any { return obj.values }

func (obj *JSONObject) Get(key string) (any, bool) {
	v, ok := obj.values[key]
	return v, ok
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (obj *JSONObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expect JSON object open with '{'")
	}

	if err := obj.parse(dec); err != nil {
		return err
	}

	t, err = dec.Token()
	if err != io.EOF {
		return fmt.Errorf("expect end of JSON object but got more token: %T: %v or err: %v", t, t, err)
	}
	return nil
}

func (obj *JSONObject) parse(dec *json.Decoder) (err error) {
	var t json.Token
	for dec.More() {
		t, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("expecting JSON key should be always a string: %T: %v", t, t)
		}

		t, err = dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		var value any
		value, err = handleDelim(t, dec)
		if err != nil {
			return err
		}

		obj.keys = append(obj.keys, key)
		if obj.values == nil {
			obj.values = make(map[string]any)
		}
		obj.values[key] = value
	}

	t, err = dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '}' {
		return fmt.Errorf("expect JSON object close with '}'")
	}
	return nil
}

func parseArray(dec *json.Decoder) (arr []any, err error) {
	var t json.Token
	arr = make([]any, 0)
	for dec.More() {
		t, err = dec.Token()
		if err != nil {
			return
		}
		var value any
		value, err = handleDelim(t, dec)
		if err != nil {
			return
		}
		arr = append(arr, value)
	}
	t, err = dec.Token()
	if err != nil {
		return
	}
	if delim, ok := t.(json.Delim); !ok || delim != ']' {
		err = fmt.Errorf("expect JSON array close with ']'")
		return
	}
	return
}

func handleDelim(t json.Token, dec *json.Decoder) (res any, err error) {
	if delim, ok := t.(json.Delim); ok {
		switch delim {
		case '{':
			obj := JSONObject{values: make(map[string]any)}
			if err = obj.parse(dec); err != nil {
				return
			}
			return obj, nil
		case '[':
			var value []any
			value, err = parseArray(dec)
			if err != nil {
				return
			}
			return value, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter: %q", delim)
		}
	}
	return t, nil
}

// JSONAny decodes a field that may legally be a string, an object, or
// something else entirely, which several package.json fields (main,
// browser, types) are in the wild.
type JSONAny struct {
	Str string
	Map map[string]any
	Any any
}

func (a *JSONAny) MarshalJSON() ([]byte, error) {
	if a.Str != "" {
		return json.Marshal(a.Str)
	}
	if a.Map != nil {
		return json.Marshal(a.Map)
	}
	return json.Marshal(a.Any)
}

func (a *JSONAny) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		a.Str = s
		return nil
	}
	var m map[string]any
	if json.Unmarshal(b, &m) == nil {
		a.Map = m
		return nil
	}
	return json.Unmarshal(b, &a.Any)
}

// MainString returns the "." condition of a map-shaped field, or the
// plain string value, whichever this field actually holds.
func (a *JSONAny) MainString() string {
	if a.Str != "" {
		return a.Str
	}
	if a.Map != nil {
		if v, ok := a.Map["."]; ok {
			if s, isStr := v.(string); isStr {
				return s
			}
		}
	}
	return ""
}

func isModuleFile(s string) bool {
	switch path.Ext(s) {
	case ".js", ".ts", ".mjs", ".mts", ".jsx", ".tsx", ".cjs", ".cts":
		return true
	default:
		return false
	}
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
