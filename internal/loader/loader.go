// Package loader reads candidate source files and extracts the text an
// import scanner should parse: plain script contents verbatim, or the
// concatenated body of every <script> block for markup-with-embedded-
// script formats.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"webinstall/internal/mime"
)

// Loaded is one file's extracted scannable content.
type Loaded struct {
	Path    string
	Ext     string
	Content string
}

var scriptExts = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".ts": true, ".tsx": true,
}

var embeddedScriptExts = map[string]bool{
	".html": true, ".vue": true, ".svelte": true,
}

// Load classifies path by extension and returns the content the scanner
// should parse, or (nil, nil) if the file contributes nothing to
// scanning (empty extension, or a recognized non-script MIME type).
// An unrecognized extension returns (nil, warning) — the caller logs
// the warning and moves on; it is never fatal.
func Load(path string) (*Loaded, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case scriptExts[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &Loaded{Path: path, Ext: ext, Content: string(data)}, nil

	case embeddedScriptExts[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &Loaded{Path: path, Ext: ext, Content: extractScripts(data)}, nil

	case ext == "":
		return nil, nil

	case mime.IsRecognized(path):
		return nil, nil

	default:
		return nil, fmt.Errorf("%s: no recognized source type for extension %q", path, ext)
	}
}

// extractScripts returns the concatenation of every <script>...</script>
// body in doc, joined by newlines.
func extractScripts(doc []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	var blocks []string
	inScript := false
	var buf bytes.Buffer

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "script" {
				if tt == html.SelfClosingTagToken {
					continue
				}
				inScript = true
				buf.Reset()
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "script" && inScript {
				inScript = false
				if s := strings.TrimSpace(buf.String()); s != "" {
					blocks = append(blocks, s)
				}
			}
		case html.TextToken:
			if inScript {
				buf.Write(tokenizer.Text())
			}
		}
	}

	return strings.Join(blocks, "\n")
}
