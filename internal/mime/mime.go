// Package mime classifies file extensions the Source Loader encounters
// while walking a project, so it can tell "a known non-script asset type,
// silently skip" from "an extension nobody recognizes, warn and skip".
package mime

import (
	"path"
	"strings"
)

var mimeExts = map[string][]string{
	"application/json;":  {"json", "map"},
	"application/json5;": {"json5"},
	"application/jsonc;": {"jsonc"},
	"application/wasm":   {"wasm"},
	"application/xml;":   {"xml"},
	"font/otf":           {"otf"},
	"font/ttf":           {"ttf"},
	"font/woff":          {"woff"},
	"font/woff2":         {"woff2"},
	"image/avif":         {"avif"},
	"image/gif":          {"gif"},
	"image/jpeg":         {"jpg", "jpeg"},
	"image/png":          {"png"},
	"image/svg+xml;":     {"svg"},
	"image/webp":         {"webp"},
	"image/x-icon":       {"ico"},
	"text/css":           {"css"},
	"text/less":          {"less"},
	"text/markdown":      {"md", "markdown"},
	"text/plain":         {"txt"},
	"text/sass":          {"sass", "scss"},
	"text/stylus":        {"stylus", "styl"},
	"text/yaml":          {"yaml", "yml"},
}

var mimeMap = map[string]string{}

func init() {
	for k, v := range mimeExts {
		if strings.HasSuffix(k, ";") {
			k = strings.TrimSuffix(k, ";") + "; charset=utf-8"
		}
		for _, ext := range v {
			mimeMap["."+ext] = k
		}
	}
	mimeExts = nil
}

// ContentType returns the MIME type associated with filename's extension,
// or "" if the extension isn't in the recognized table.
func ContentType(filename string) string {
	return mimeMap[path.Ext(filename)]
}

// IsRecognized reports whether filename's extension has a known MIME type.
func IsRecognized(filename string) bool {
	return ContentType(filename) != ""
}
