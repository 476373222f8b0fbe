package acquire

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
)

// MarkdownFormat implements Format for Markdown files. The source is
// rendered to HTML first so emphasis markers and link syntax do not leak
// into the reading text.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (f *MarkdownFormat) Extract(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return markdownText(data)
}

func markdownText(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return blockText(buf.String()), nil
}
