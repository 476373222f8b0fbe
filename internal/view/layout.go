package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/limn/internal/document"
	"github.com/muesli/reflow/wordwrap"
)

var (
	majorHeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	minorHeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA"))

	paragraphStyle = lipgloss.NewStyle()

	selectedStyle = lipgloss.NewStyle().
			Reverse(true)
)

// Layout is a document wrapped to a fixed width. Plain and Styled hold the
// same lines with and without ANSI styling; Extents[i] is the line span of
// block i.
type Layout struct {
	Width   int
	Plain   []string
	Styled  []string
	Extents []Extent
	blocks  []document.Block
}

// NewLayout wraps every block to width columns, separating blocks with one
// blank line.
func NewLayout(doc *document.Document, width int) *Layout {
	if width < 1 {
		width = 1
	}
	l := &Layout{Width: width}
	if doc == nil {
		return l
	}
	l.blocks = doc.Blocks

	for i, b := range doc.Blocks {
		if i > 0 {
			l.Plain = append(l.Plain, "")
			l.Styled = append(l.Styled, "")
		}
		top := len(l.Plain)
		style := styleFor(b.Kind)
		for _, line := range strings.Split(wordwrap.String(b.Text, width), "\n") {
			line = strings.TrimRight(line, " ")
			l.Plain = append(l.Plain, line)
			l.Styled = append(l.Styled, style.Render(line))
		}
		l.Extents = append(l.Extents, Extent{Top: float64(top), Bottom: float64(len(l.Plain))})
	}
	return l
}

func styleFor(k document.Kind) lipgloss.Style {
	switch k {
	case document.HeadingMajor:
		return majorHeadingStyle
	case document.HeadingMinor:
		return minorHeadingStyle
	default:
		return paragraphStyle
	}
}

// Placements pairs each block with its extent.
func (l *Layout) Placements() []Placement {
	out := make([]Placement, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = Placement{Text: b.Text, Extent: l.Extents[i]}
	}
	return out
}

// LineCount returns the number of rendered lines.
func (l *Layout) LineCount() int { return len(l.Plain) }

// Content renders the styled lines, highlighting the inclusive line range
// [selStart, selEnd] when selStart >= 0.
func (l *Layout) Content(selStart, selEnd int) string {
	if selStart < 0 {
		return strings.Join(l.Styled, "\n")
	}
	lines := make([]string, len(l.Styled))
	for i := range l.Styled {
		if i >= selStart && i <= selEnd {
			lines[i] = selectedStyle.Render(l.Plain[i])
		} else {
			lines[i] = l.Styled[i]
		}
	}
	return strings.Join(lines, "\n")
}

// TextBetween returns the trimmed plain text of lines start..end inclusive.
func (l *Layout) TextBetween(start, end int) string {
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end >= len(l.Plain) {
		end = len(l.Plain) - 1
	}
	if start > end {
		return ""
	}
	return strings.TrimSpace(strings.Join(l.Plain[start:end+1], "\n"))
}
