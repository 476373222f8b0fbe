// Package thumb renders images for the terminal with upper half blocks,
// two pixels per cell.
package thumb

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
)

const halfBlock = "▀"

// Fit returns the pixel size img should be scaled to so that it fills at most
// cols x rows cells while keeping its aspect ratio. Height is always even.
func Fit(img image.Image, cols, rows int) (w, h int) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	sx := float64(cols) / float64(b.Dx())
	sy := float64(rows*2) / float64(b.Dy())
	scale := min(sx, sy)

	w = max(1, int(float64(b.Dx())*scale))
	h = max(2, int(float64(b.Dy())*scale))
	h -= h % 2
	return w, h
}

// Render draws img into at most cols x rows cells.
func Render(img image.Image, cols, rows int) string {
	if img == nil {
		return ""
	}
	w, h := Fit(img, cols, rows)
	if w == 0 {
		return ""
	}
	scaled := resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	b := scaled.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().
				Foreground(hex(scaled.At(x, y))).
				Background(hex(scaled.At(x, y+1)))
			sb.WriteString(style.Render(halfBlock))
		}
	}
	return sb.String()
}

func hex(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
