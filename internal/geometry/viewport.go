// Package geometry maps points between screen space and image-pixel space.
package geometry

import "math"

// Zoom limits and wheel step factors.
const (
	MinZoom = 0.1
	MaxZoom = 10.0

	// ZoomInFactor is applied per wheel-up tick.
	ZoomInFactor = 1.1
	// ZoomOutFactor is applied per wheel-down tick.
	ZoomOutFactor = 0.9
)

// Point is a position in either screen or image space.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Viewport is the zoom/pan transform between image pixels and screen pixels.
// A screen point s maps to the image point (s - pan) / zoom.
type Viewport struct {
	Zoom float64
	PanX float64
	PanY float64
}

// Identity returns the viewport used for a freshly loaded image.
func Identity() Viewport {
	return Viewport{Zoom: 1}
}

// Reset restores the identity transform.
func (v *Viewport) Reset() {
	*v = Identity()
}

// ScreenToImage converts a screen point into image coordinates.
func (v Viewport) ScreenToImage(s Point) Point {
	return Point{
		X: (s.X - v.PanX) / v.Zoom,
		Y: (s.Y - v.PanY) / v.Zoom,
	}
}

// ImageToScreen converts an image point into screen coordinates.
func (v Viewport) ImageToScreen(i Point) Point {
	return Point{
		X: i.X*v.Zoom + v.PanX,
		Y: i.Y*v.Zoom + v.PanY,
	}
}

// PanBy shifts the viewport by a raw screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomAt multiplies the zoom level by factor while keeping the image point
// under anchor (a screen point) fixed on screen.
func (v *Viewport) ZoomAt(anchor Point, factor float64) {
	before := v.ScreenToImage(anchor)

	v.Zoom = ClampZoom(v.Zoom * factor)

	// New zoom, old pan.
	after := v.ScreenToImage(anchor)

	v.PanX += (after.X - before.X) * v.Zoom
	v.PanY += (after.Y - before.Y) * v.Zoom
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(math.Max(MinZoom, z), MaxZoom)
}

// FitZoom returns the zoom level at which an imgW x imgH image fits inside a
// viewW x viewH screen area.
func FitZoom(imgW, imgH, viewW, viewH int) float64 {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return 1
	}
	zx := float64(viewW) / float64(imgW)
	zy := float64(viewH) / float64(imgH)
	return ClampZoom(math.Min(zx, zy))
}

// Fit sets zoom so the image fits the view and centres it.
func (v *Viewport) Fit(imgW, imgH, viewW, viewH int) {
	v.Zoom = FitZoom(imgW, imgH, viewW, viewH)
	v.PanX = (float64(viewW) - float64(imgW)*v.Zoom) / 2
	v.PanY = (float64(viewH) - float64(imgH)*v.Zoom) / 2
}
