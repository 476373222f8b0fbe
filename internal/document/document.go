// Package document turns raw book text into an ordered sequence of typed blocks.
package document

import (
	"regexp"
	"strings"
)

// Kind classifies a block.
type Kind int

const (
	Paragraph Kind = iota
	HeadingMajor
	HeadingMinor
)

func (k Kind) String() string {
	switch k {
	case HeadingMajor:
		return "heading-major"
	case HeadingMinor:
		return "heading-minor"
	default:
		return "paragraph"
	}
}

// Block is a single structured unit of a document.
type Block struct {
	Kind Kind
	Text string
}

// Document is the ordered block sequence derived from one raw text.
type Document struct {
	Blocks []Block
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Blocks)
}

// Start and end markers of the transcription boilerplate. Earlier entries win.
var (
	StartMarkers = []string{
		"*** START OF THE PROJECT GUTENBERG",
		"*** START OF THIS PROJECT GUTENBERG",
	}
	EndMarkers = []string{
		"*** END OF THE PROJECT GUTENBERG",
		"*** END OF THIS PROJECT GUTENBERG",
		"End of the Project Gutenberg",
		"End of Project Gutenberg",
	}
)

var (
	paragraphBreak  = regexp.MustCompile(`\n\s*\n`)
	numberedHeading = regexp.MustCompile(`(?i)^(CHAPTER|BOOK|PART|SECTION)\s+[IVXLCDM\d]+`)
	romanHeading    = regexp.MustCompile(`(?i)^[IVXLCDM]+\.\s*$`)
)

// Structure strips boilerplate from raw and classifies what remains.
func Structure(raw string) *Document {
	body := StripBoilerplate(raw)

	var blocks []Block
	for _, candidate := range paragraphBreak.Split(body, -1) {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		blocks = append(blocks, Classify(trimmed))
	}
	return &Document{Blocks: blocks}
}

// StripBoilerplate removes everything up to and including the first start
// marker line and everything from the first end marker on. Text without
// markers is returned whole.
func StripBoilerplate(raw string) string {
	content := strings.ReplaceAll(raw, "\r\n", "\n")

	for _, marker := range StartMarkers {
		idx := strings.Index(content, marker)
		if idx == -1 {
			continue
		}
		lineEnd := strings.IndexByte(content[idx:], '\n')
		if lineEnd == -1 {
			content = ""
		} else {
			content = content[idx+lineEnd+1:]
		}
		break
	}

	for _, marker := range EndMarkers {
		if idx := strings.Index(content, marker); idx != -1 {
			content = content[:idx]
			break
		}
	}

	return content
}

// Classify decides the kind of a single trimmed paragraph candidate.
func Classify(trimmed string) Block {
	switch {
	case numberedHeading.MatchString(trimmed) || romanHeading.MatchString(trimmed):
		return Block{Kind: HeadingMajor, Text: trimmed}
	case isMinorHeading(trimmed):
		return Block{Kind: HeadingMinor, Text: trimmed}
	default:
		return Block{Kind: Paragraph, Text: strings.ReplaceAll(trimmed, "\n", " ")}
	}
}

func isMinorHeading(s string) bool {
	if len([]rune(s)) >= 80 || s != strings.ToUpper(s) {
		return false
	}
	last := s[len(s)-1]
	return last != '.' && last != '!' && last != '?'
}
