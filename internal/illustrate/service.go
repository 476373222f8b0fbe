// Package illustrate decides when the passage being read deserves a new
// illustration and drives the service that draws it.
package illustrate

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrMissingCredential means no API key was configured.
	ErrMissingCredential = errors.New("illustrate: missing api key")
	// ErrNoImage means the service answered without an image.
	ErrNoImage = errors.New("illustrate: response contained no image")
)

// Illustration is a generated image and the reference it was loaded from.
type Illustration struct {
	Ref   string
	Image image.Image
}

// Service draws an illustration for an excerpt.
type Service interface {
	Illustrate(ctx context.Context, excerpt string) (Illustration, error)
}

// DefaultStyle is appended to every prompt unless configured otherwise.
const DefaultStyle = "Make it single-color (black on white) Renaissance-style engraved line illustration, " +
	"da Vinci sketchbook aesthetic, fine pen-and-ink cross-hatching, contour line texture, " +
	"woodcut etching look, black ink on white, no background, symmetrical composition, " +
	"detailed shading built from line density, suitable for SVG tracing. " +
	"No text, no labels, no captions, no drawn borders or frames. " +
	"Just the subject free-floating, maybe with a subtle scene around them."

// promptExcerpt caps how much of the excerpt is quoted in the prompt.
const promptExcerpt = 800

// BuildPrompt quotes the start of the excerpt and appends the style.
func BuildPrompt(excerpt, style string) string {
	if style == "" {
		style = DefaultStyle
	}
	if r := []rune(excerpt); len(r) > promptExcerpt {
		excerpt = string(r[:promptExcerpt])
	}
	return "Create an illustration for this passage from book:\n\n\"" + excerpt + "\"\n\n" + style
}
