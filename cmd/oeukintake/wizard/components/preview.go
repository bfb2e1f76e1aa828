package components

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// HalfBlock renders img in exactly cols x rows terminal cells. Each cell
// shows two vertically stacked pixels with the upper half block, so one cell
// covers a square area. Transparent pixels are drawn on white.
func HalfBlock(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	canvas := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), img, img.Bounds(), draw.Over, nil)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := canvas.RGBAAt(x, 2*y)
			bottom := canvas.RGBAAt(x, 2*y+1)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom))).
				Render("▀"))
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FitCells picks the largest cell size within maxCols x maxRows that keeps
// the aspect ratio of a w x h image.
func FitCells(w, h, maxCols, maxRows int) (int, int) {
	if w <= 0 || h <= 0 || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	cols, px := maxCols, maxCols*h/w
	if px > maxRows*2 {
		px = maxRows * 2
		cols = max(1, px*w/h)
	}
	return cols, max(1, (px+1)/2)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
