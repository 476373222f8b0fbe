// Package view tracks which part of a rendered document is being read and
// extracts the excerpt that represents it.
package view

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxExcerpt caps excerpt length in characters.
	MaxExcerpt = 1500
	// MinSelection is the trimmed length a selection must exceed to win over
	// the viewport.
	MinSelection = 20
)

// Source says where an excerpt came from.
type Source int

const (
	FromViewport Source = iota
	FromSelection
)

func (s Source) String() string {
	if s == FromSelection {
		return "selection"
	}
	return "viewport"
}

// Excerpt is the bounded text judged to be currently read.
type Excerpt struct {
	Text   string
	Source Source
}

// Empty reports whether the excerpt carries no observation.
func (e Excerpt) Empty() bool { return e.Text == "" }

// Len returns the excerpt length in characters.
func (e Excerpt) Len() int { return utf8.RuneCountInString(e.Text) }

// Extent is the rendered vertical span [Top, Bottom) of one block. Units
// are whatever the front end measures in: terminal lines or pixels.
type Extent struct {
	Top    float64
	Bottom float64
}

// Placement pairs a block's text with where it was rendered.
type Placement struct {
	Text   string
	Extent Extent
}

// Window is the observation window [Offset, Offset+Height).
type Window struct {
	Offset float64
	Height float64
}

// Overlaps uses a half-open interval test.
func (w Window) Overlaps(e Extent) bool {
	return e.Bottom > w.Offset && e.Top < w.Offset+w.Height
}

// Tracker holds the rendered placements of the current document together
// with the window and any explicit selection.
type Tracker struct {
	placements []Placement
	window     Window
	selection  string
}

// NewTracker returns a tracker over the given placements in document order.
func NewTracker(placements []Placement) *Tracker {
	return &Tracker{placements: placements}
}

// SetPlacements replaces the rendered geometry, e.g. after a resize.
func (t *Tracker) SetPlacements(placements []Placement) {
	t.placements = placements
}

// SetWindow moves the observation window.
func (t *Tracker) SetWindow(offset, height float64) {
	t.window = Window{Offset: offset, Height: height}
}

// Window returns the current observation window.
func (t *Tracker) Window() Window { return t.window }

// Select records an explicit text selection.
func (t *Tracker) Select(text string) { t.selection = text }

// ClearSelection drops the explicit selection.
func (t *Tracker) ClearSelection() { t.selection = "" }

// Selection returns the raw selection text.
func (t *Tracker) Selection() string { return t.selection }

// CurrentExcerpt returns what is being read right now.
func (t *Tracker) CurrentExcerpt() Excerpt {
	return Extract(t.placements, t.window, t.selection)
}

// Extract applies the excerpt priority rules: a selection longer than
// MinSelection wins, otherwise the text of every placement overlapping the
// window is joined in order. Both are capped at MaxExcerpt characters.
func Extract(placements []Placement, window Window, selection string) Excerpt {
	if sel := strings.TrimSpace(selection); utf8.RuneCountInString(sel) > MinSelection {
		return Excerpt{Text: truncate(sel, MaxExcerpt), Source: FromSelection}
	}

	var visible []string
	for _, p := range placements {
		if window.Overlaps(p.Extent) {
			visible = append(visible, strings.TrimSpace(p.Text))
		}
	}
	return Excerpt{Text: truncate(strings.Join(visible, " "), MaxExcerpt), Source: FromViewport}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
