package render

import (
	"fmt"
	"image/color"
	"math"
)

var (
	// classColors is the stroke colour of the first classes. Later classes
	// get a generated hue.
	classColors = []color.RGBA{
		{R: 0x00, G: 0xc8, B: 0x53, A: 255}, // #00C853
		{R: 0x21, G: 0x96, B: 0xf3, A: 255}, // #2196F3
		{R: 0xff, G: 0x98, B: 0x00, A: 255}, // #FF9800
		{R: 0xe9, G: 0x1e, B: 0x63, A: 255}, // #E91E63
		{R: 0x9c, G: 0x27, B: 0xb0, A: 255}, // #9C27B0
		{R: 0xf4, G: 0x43, B: 0x36, A: 255}, // #F44336
		{R: 0xff, G: 0xeb, B: 0x3b, A: 255}, // #FFEB3B
		{R: 0x00, G: 0x96, B: 0x88, A: 255}, // #009688
	}

	// Selected is the stroke of the selected box.
	Selected = color.RGBA{R: 255, A: 255}
	// White is used for label text and handle fill.
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// Black is used for handle outlines.
	Black = color.RGBA{A: 255}
	// LabelBackground sits behind label text.
	LabelBackground = color.NRGBA{A: 128}
	// Background fills the canvas outside the image.
	Background = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2e, A: 255}
)

// goldenHueStep spreads generated hues around the colour wheel.
const goldenHueStep = 137

// ClassColor returns the stroke colour for a class index.
func ClassColor(idx int) color.RGBA {
	if idx < 0 {
		idx = -idx
	}
	if idx < len(classColors) {
		return classColors[idx]
	}
	return HSL(hue(idx), 0.7, 0.5)
}

// PredictedColor returns the stroke colour for a predicted box. It is more
// saturated and darker than ClassColor so model output stands out.
func PredictedColor(idx int) color.RGBA {
	if idx < 0 {
		idx = -idx
	}
	return HSL(hue(idx), 1.0, 0.4)
}

func hue(idx int) float64 {
	return float64((idx * goldenHueStep) % 360)
}

// Translucent returns c with its alpha replaced, for region fills.
func Translucent(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HSL converts hue in degrees and saturation and lightness in [0,1] to RGB.
func HSL(h, s, l float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}
