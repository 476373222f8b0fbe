package acquire

import (
	"testing"
)

func TestBlockText(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.<br/>After a break.</div>
		</body>
	</html>
	`

	want := "CHAPTER 1\n\n" +
		"This is the first paragraph.\n\n" +
		"This is the second paragraph with a newline.\n\n" +
		"Some nested text.\nAfter a break."

	if got := blockText(htmlContent); got != want {
		t.Errorf("blockText() =\n%q\nwant\n%q", got, want)
	}
}

func TestBlockTextEmpty(t *testing.T) {
	if got := blockText("<html><body>   </body></html>"); got != "" {
		t.Errorf("blockText() = %q, want empty", got)
	}
}
