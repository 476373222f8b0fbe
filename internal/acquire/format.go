package acquire

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format converts a local file of some type into raw book text with
// paragraphs separated by blank lines.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (string, error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Open reads a local file through its registered format, falling back to
// plain text for unknown extensions.
func Open(filename string) (RawText, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				text, err := f.Extract(filename)
				if err != nil {
					return RawText{}, fmt.Errorf("%s: %w", f.Name(), err)
				}
				return RawText{Text: text, Provenance: File, Source: filename}, nil
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return RawText{}, err
	}
	return RawText{Text: string(data), Provenance: File, Source: filename}, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
