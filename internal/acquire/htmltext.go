package acquire

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags end the current paragraph when opened or closed.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Article:    true,
}

var headingTags = map[atom.Atom]bool{
	atom.H1: true,
	atom.H2: true,
	atom.H3: true,
	atom.H4: true,
	atom.H5: true,
	atom.H6: true,
}

var skipTags = map[atom.Atom]bool{
	atom.Head:   true,
	atom.Script: true,
	atom.Style:  true,
}

// blockText flattens HTML into paragraphs separated by blank lines. Heading
// text is upper-cased so the document structurer recognises it.
func blockText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var p paragraphs
	var walk func(n *html.Node, heading bool)
	walk = func(n *html.Node, heading bool) {
		if n.Type == html.ElementNode {
			if skipTags[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				p.lineBreak()
				return
			}
			if blockTags[n.DataAtom] {
				p.flush()
			}
			heading = heading || headingTags[n.DataAtom]
		}
		if n.Type == html.TextNode {
			t := strings.Join(strings.Fields(n.Data), " ")
			if t == "" {
				if n.Data != "" {
					p.space()
				}
			} else {
				if heading {
					t = strings.ToUpper(t)
				}
				if isSpace(n.Data[0]) {
					p.space()
				}
				p.write(t)
				if isSpace(n.Data[len(n.Data)-1]) {
					p.space()
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, heading)
		}
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			p.flush()
		}
	}
	walk(doc, false)
	return p.String()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// paragraphs accumulates inline text. Whitespace between inline nodes is
// collapsed to a single pending space that is only emitted before more text
// on the same line.
type paragraphs struct {
	done      []string
	cur       strings.Builder
	lineStart bool
	pending   bool
}

func (p *paragraphs) space() { p.pending = true }

func (p *paragraphs) write(s string) {
	if p.pending && p.cur.Len() > 0 && !p.lineStart {
		p.cur.WriteByte(' ')
	}
	p.cur.WriteString(s)
	p.lineStart = false
	p.pending = false
}

func (p *paragraphs) lineBreak() {
	if p.cur.Len() > 0 {
		p.cur.WriteByte('\n')
		p.lineStart = true
	}
	p.pending = false
}

func (p *paragraphs) flush() {
	if t := strings.TrimSpace(p.cur.String()); t != "" {
		p.done = append(p.done, t)
	}
	p.cur.Reset()
	p.lineStart = false
	p.pending = false
}

func (p *paragraphs) String() string {
	p.flush()
	return strings.Join(p.done, "\n\n")
}
