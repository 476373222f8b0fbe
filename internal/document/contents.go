package document

import "strings"

const previewLength = 50

// Entry is one line of a table of contents.
type Entry struct {
	Title   string
	Preview string
	Block   int
	Level   int
}

// Contents lists the headings of d in order. Major headings are level 0 and
// minor headings level 1. The preview is the start of the next paragraph.
func Contents(d *Document) []Entry {
	if d == nil {
		return nil
	}
	var out []Entry
	for i, b := range d.Blocks {
		level := 0
		switch b.Kind {
		case HeadingMajor:
		case HeadingMinor:
			level = 1
		default:
			continue
		}
		out = append(out, Entry{
			Title:   strings.Join(strings.Fields(b.Text), " "),
			Preview: preview(d.Blocks[i+1:]),
			Block:   i,
			Level:   level,
		})
	}
	return out
}

func preview(rest []Block) string {
	for _, b := range rest {
		if b.Kind != Paragraph {
			return ""
		}
		r := []rune(b.Text)
		if len(r) > previewLength {
			return strings.TrimSpace(string(r[:previewLength])) + "..."
		}
		return b.Text
	}
	return ""
}
