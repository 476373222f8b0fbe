package acquire

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metcalfc/limn/internal/document"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		content := "Hello world this is a test."
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte(content), 0644)

		got, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got.Text != content {
			t.Errorf("got %q, want %q", got.Text, content)
		}
		if got.Provenance != File || got.Source != path {
			t.Errorf("RawText = %+v", got)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		content := "# Chapter 1\n\nFirst *chapter* content with [a link](http://example.com).\n\n## Aside\n\nMore words.\n"
		path := filepath.Join(tmpDir, "book.md")
		os.WriteFile(path, []byte(content), 0644)

		got, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		want := "CHAPTER 1\n\nFirst chapter content with a link.\n\nASIDE\n\nMore words."
		if got.Text != want {
			t.Errorf("got %q, want %q", got.Text, want)
		}

		doc := document.Structure(got.Text)
		kinds := []document.Kind{document.HeadingMajor, document.Paragraph, document.HeadingMinor, document.Paragraph}
		if doc.Len() != len(kinds) {
			t.Fatalf("got %d blocks, want %d", doc.Len(), len(kinds))
		}
		for i, k := range kinds {
			if doc.Blocks[i].Kind != k {
				t.Errorf("block %d kind = %v, want %v", i, doc.Blocks[i].Kind, k)
			}
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := Open(filepath.Join(tmpDir, "nonexistent.txt"))
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("broken epub", func(t *testing.T) {
		path := filepath.Join(tmpDir, "broken.epub")
		os.WriteFile(path, []byte("not a zip"), 0644)
		_, err := Open(path)
		if err == nil || !strings.Contains(err.Error(), "EPUB") {
			t.Errorf("err = %v, want EPUB open failure", err)
		}
	})
}

// writeEPUB builds a minimal EPUB whose spine lists chapters in order.
// A chapter with empty content is listed in the manifest but left out of
// the archive.
func writeEPUB(t *testing.T, path string, chapters []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	add := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	add("mimetype", "application/epub+zip")
	add("META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine strings.Builder
	for i, body := range chapters {
		id := fmt.Sprintf("ch%d", i+1)
		fmt.Fprintf(&manifest, `<item id="%s" href="%s.xhtml" media-type="application/xhtml+xml"/>`, id, id)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`, id)
		if body != "" {
			add("OEBPS/"+id+".xhtml", `<html xmlns="http://www.w3.org/1999/xhtml"><body>`+body+`</body></html>`)
		}
	}
	add("OEBPS/content.opf", `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata><title>Test Book</title></metadata>
  <manifest>`+manifest.String()+`</manifest>
  <spine>`+spine.String()+`</spine>
</package>`)

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenEPUB(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		chapters []string
		want     string
		kinds    []document.Kind
		wantErr  bool
	}{
		{
			name: "two chapters in spine order",
			chapters: []string{
				"<h1>CHAPTER I</h1><p>It was a dark night.</p>",
				"<h1>CHAPTER II</h1><p>Morning came.</p>",
			},
			want:  "CHAPTER I\n\nIt was a dark night.\n\nCHAPTER II\n\nMorning came.",
			kinds: []document.Kind{document.HeadingMajor, document.Paragraph, document.HeadingMajor, document.Paragraph},
		},
		{
			name: "missing item is skipped",
			chapters: []string{
				"",
				"<h1>CHAPTER II</h1><p>Morning came.</p>",
			},
			want:  "CHAPTER II\n\nMorning came.",
			kinds: []document.Kind{document.HeadingMajor, document.Paragraph},
		},
		{
			name:     "no readable items",
			chapters: []string{"", ""},
			wantErr:  true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, fmt.Sprintf("book%d.epub", i))
			writeEPUB(t, path, tt.chapters)

			got, err := Open(path)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "no readable spine items") {
					t.Errorf("err = %v, want unreadable spine error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("got %q, want %q", got.Text, tt.want)
			}
			if got.Provenance != File {
				t.Errorf("provenance = %v, want file", got.Provenance)
			}

			doc := document.Structure(got.Text)
			if doc.Len() != len(tt.kinds) {
				t.Fatalf("got %d blocks, want %d: %+v", doc.Len(), len(tt.kinds), doc.Blocks)
			}
			for j, k := range tt.kinds {
				if doc.Blocks[j].Kind != k {
					t.Errorf("block %d kind = %v, want %v", j, doc.Blocks[j].Kind, k)
				}
			}
		})
	}
}

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	want := map[string]bool{"EPUB (.epub)": false, "Markdown (.md, .markdown)": false}
	for _, f := range formats {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("%s not registered: %v", name, formats)
		}
	}
}
