package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelFace is the only face used on the canvas.
var labelFace = basicfont.Face7x13

// fillRect blends c over r.
func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// strokeRect draws the outline of r with the given thickness, growing
// inward from the rectangle edge.
func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color, thick int) {
	if thick < 1 {
		thick = 1
	}
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// dashedRect strokes r with dash-long segments separated by equal gaps.
func dashedRect(dst *image.RGBA, r image.Rectangle, c color.Color, thick, dash int) {
	if dash < 1 {
		dash = 1
	}
	for x := r.Min.X; x < r.Max.X; x += 2 * dash {
		end := min(x+dash, r.Max.X)
		fillRect(dst, image.Rect(x, r.Min.Y, end, r.Min.Y+thick), c)
		fillRect(dst, image.Rect(x, r.Max.Y-thick, end, r.Max.Y), c)
	}
	for y := r.Min.Y; y < r.Max.Y; y += 2 * dash {
		end := min(y+dash, r.Max.Y)
		fillRect(dst, image.Rect(r.Min.X, y, r.Min.X+thick, end), c)
		fillRect(dst, image.Rect(r.Max.X-thick, y, r.Max.X, end), c)
	}
}

// textWidth returns the advance of s in the label face.
func textWidth(s string) int {
	return font.MeasureString(labelFace, s).Ceil()
}

// drawText draws s with its baseline starting at (x, y).
func drawText(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
