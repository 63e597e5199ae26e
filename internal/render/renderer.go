// Package render rasterizes an annotation scene: the image under the current
// viewport, every box with its label, handles on the selected box, and the
// preview of a draw in progress.
package render

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

const (
	labelHeight = 16
	labelPad    = 2
	aiTagWidth  = 20
	fillAlpha   = 51
	// predicted boxes get a slightly heavier fill.
	predictedFillAlpha = 77
	previewFillAlpha   = 26
)

// Scene is everything the renderer reads. It holds no references back into
// the session, so rendering can never mutate editing state.
type Scene struct {
	Image       image.Image
	Preview     *geometry.Rect
	Classes     []model.Class
	Boxes       []model.Box
	Viewport    geometry.Viewport
	Selected    int
	ActiveClass int
}

// Renderer draws scenes. The zero value is not usable; call New.
type Renderer struct {
	stroke         int
	selectedStroke int
	handleSize     int
	dash           int
	labels         bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStroke sets the outline width of regular and selected boxes.
func WithStroke(normal, selected int) Option {
	return func(r *Renderer) {
		r.stroke = max(1, normal)
		r.selectedStroke = max(1, selected)
	}
}

// WithHandleSize sets the side length of the corner handles in screen pixels.
func WithHandleSize(n int) Option {
	return func(r *Renderer) {
		r.handleSize = max(2, n)
	}
}

// WithLabels toggles class labels above boxes and the size readout of a
// draw preview.
func WithLabels(on bool) Option {
	return func(r *Renderer) {
		r.labels = on
	}
}

// New creates a renderer with canvas defaults.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		stroke:         2,
		selectedStroke: 3,
		handleSize:     6,
		dash:           5,
		labels:         true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws sc onto a fresh width x height canvas.
func (r *Renderer) Render(sc Scene, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(0, width), max(0, height)))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if sc.Image != nil {
		drawImage(dst, sc.Image, sc.Viewport)
	}
	for i, b := range sc.Boxes {
		r.drawBox(dst, sc, b, i == sc.Selected)
	}
	if sc.Preview != nil {
		r.drawPreview(dst, sc)
	}
	return dst
}

// Overlay draws boxes over img at its natural size.
func (r *Renderer) Overlay(img image.Image, classes []model.Class, boxes []model.Box) *image.RGBA {
	b := img.Bounds()
	return r.Render(Scene{
		Image:    img,
		Classes:  classes,
		Boxes:    boxes,
		Viewport: geometry.Identity(),
		Selected: -1,
	}, b.Dx(), b.Dy())
}

// BoxLabel is the caption shown above a box: the class name, plus the
// confidence as a whole percentage for predicted boxes.
func BoxLabel(classes []model.Class, b model.Box) string {
	label := model.ClassName(classes, b.ClassIndex)
	if b.Predicted && b.Confidence != nil {
		label += fmt.Sprintf(" (%d%%)", int(math.Round(*b.Confidence*100)))
	}
	return label
}

// DimensionLabel describes the size of a draw preview in whole pixels.
func DimensionLabel(r geometry.Rect) string {
	return fmt.Sprintf("%.0f x %.0f", math.Abs(r.Width), math.Abs(r.Height))
}

// drawImage maps the source image through the viewport. Nearest neighbour
// keeps pixels crisp when zoomed in; bilinear avoids aliasing when zoomed out.
func drawImage(dst *image.RGBA, src image.Image, v geometry.Viewport) {
	s2d := f64.Aff3{
		v.Zoom, 0, v.PanX,
		0, v.Zoom, v.PanY,
	}
	var interp draw.Interpolator = draw.NearestNeighbor
	if v.Zoom < 1 {
		interp = draw.ApproxBiLinear
	}
	interp.Transform(dst, s2d, src, src.Bounds(), draw.Over, nil)
}

func screenRect(v geometry.Viewport, r geometry.Rect) image.Rectangle {
	a := v.ImageToScreen(geometry.Point{X: r.X, Y: r.Y})
	b := v.ImageToScreen(geometry.Point{X: r.Right(), Y: r.Bottom()})
	return image.Rect(
		int(math.Round(a.X)), int(math.Round(a.Y)),
		int(math.Round(b.X)), int(math.Round(b.Y)),
	)
}

func (r *Renderer) drawBox(dst *image.RGBA, sc Scene, b model.Box, selected bool) {
	rect := screenRect(sc.Viewport, b.Rect())

	stroke := ClassColor(b.ClassIndex)
	alpha := uint8(fillAlpha)
	if b.Predicted {
		stroke = PredictedColor(b.ClassIndex)
		alpha = predictedFillAlpha
	}
	thick := r.stroke
	if selected {
		stroke = Selected
		alpha = fillAlpha
		thick = r.selectedStroke
	}

	fillRect(dst, rect, Translucent(stroke, alpha))
	strokeRect(dst, rect, stroke, thick)

	if r.labels {
		r.drawLabel(dst, rect, BoxLabel(sc.Classes, b))
		if b.Predicted {
			r.drawAITag(dst, rect)
		}
	}

	if selected {
		for _, c := range []image.Point{
			rect.Min,
			{X: rect.Max.X, Y: rect.Min.Y},
			{X: rect.Min.X, Y: rect.Max.Y},
			rect.Max,
		} {
			r.drawHandle(dst, c)
		}
	}
}

// labelTop places the label above the box, or just inside it when the box
// touches the top of the canvas.
func labelTop(rect image.Rectangle) int {
	if rect.Min.Y-labelHeight < 0 {
		return rect.Min.Y
	}
	return rect.Min.Y - labelHeight
}

func (r *Renderer) drawLabel(dst *image.RGBA, rect image.Rectangle, text string) {
	top := labelTop(rect)
	bg := image.Rect(rect.Min.X, top, rect.Min.X+textWidth(text)+2*labelPad, top+labelHeight)
	fillRect(dst, bg, LabelBackground)
	drawText(dst, rect.Min.X+labelPad, top+labelHeight-4, text, White)
}

func (r *Renderer) drawAITag(dst *image.RGBA, rect image.Rectangle) {
	top := labelTop(rect)
	bg := image.Rect(rect.Max.X-aiTagWidth, top, rect.Max.X, top+labelHeight)
	fillRect(dst, bg, LabelBackground)
	drawText(dst, bg.Min.X+3, top+labelHeight-4, "AI", White)
}

func (r *Renderer) drawHandle(dst *image.RGBA, c image.Point) {
	half := r.handleSize / 2
	h := image.Rect(c.X-half, c.Y-half, c.X-half+r.handleSize, c.Y-half+r.handleSize)
	fillRect(dst, h, White)
	strokeRect(dst, h, Black, 1)
}

func (r *Renderer) drawPreview(dst *image.RGBA, sc Scene) {
	rect := screenRect(sc.Viewport, *sc.Preview)
	stroke := ClassColor(sc.ActiveClass)

	fillRect(dst, rect, Translucent(stroke, previewFillAlpha))
	dashedRect(dst, rect, stroke, r.stroke, r.dash)
	if !r.labels {
		return
	}

	text := DimensionLabel(*sc.Preview)
	tw := textWidth(text)
	cx := (rect.Min.X + rect.Max.X) / 2
	cy := (rect.Min.Y + rect.Max.Y) / 2
	bg := image.Rect(cx-tw/2-3, cy-9, cx+tw/2+3, cy+7)
	fillRect(dst, bg, LabelBackground)
	drawText(dst, cx-tw/2, cy+3, text, White)
}
