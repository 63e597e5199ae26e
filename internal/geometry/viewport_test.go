package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewport_RoundTrip(t *testing.T) {
	zooms := []float64{0.1, 0.25, 0.9, 1, 1.1, 3.7, 10}
	pans := []Point{{0, 0}, {-150.5, 42}, {1e4, -3e3}}
	points := []Point{{0, 0}, {12.5, 99.25}, {-40, 3000}}

	for _, z := range zooms {
		for _, pan := range pans {
			v := Viewport{Zoom: z, PanX: pan.X, PanY: pan.Y}
			for _, p := range points {
				got := v.ScreenToImage(v.ImageToScreen(p))
				assert.InDelta(t, p.X, got.X, 1e-9, "zoom %v pan %v", z, pan)
				assert.InDelta(t, p.Y, got.Y, 1e-9, "zoom %v pan %v", z, pan)
			}
		}
	}
}

func TestViewport_ZoomAtKeepsAnchor(t *testing.T) {
	tests := []struct {
		name   string
		start  Viewport
		anchor Point
		factor float64
		ticks  int
	}{
		{name: "zoom in at origin", start: Identity(), anchor: Point{0, 0}, factor: ZoomInFactor, ticks: 1},
		{name: "zoom in off centre", start: Identity(), anchor: Point{320, 180}, factor: ZoomInFactor, ticks: 5},
		{name: "zoom out panned", start: Viewport{Zoom: 2, PanX: -80, PanY: 33}, anchor: Point{17, 400}, factor: ZoomOutFactor, ticks: 7},
		{name: "zoom in hits max", start: Viewport{Zoom: 9.5, PanX: 5, PanY: 5}, anchor: Point{100, 100}, factor: ZoomInFactor, ticks: 4},
		{name: "zoom out hits min", start: Viewport{Zoom: 0.12, PanX: 1, PanY: 2}, anchor: Point{60, 90}, factor: ZoomOutFactor, ticks: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.start
			for i := 0; i < tt.ticks; i++ {
				before := v.ScreenToImage(tt.anchor)
				v.ZoomAt(tt.anchor, tt.factor)
				after := v.ScreenToImage(tt.anchor)

				assert.InDelta(t, before.X, after.X, 1e-6)
				assert.InDelta(t, before.Y, after.Y, 1e-6)
				assert.GreaterOrEqual(t, v.Zoom, MinZoom)
				assert.LessOrEqual(t, v.Zoom, MaxZoom)
			}
		})
	}
}

func TestViewport_ZoomIsContinuous(t *testing.T) {
	v := Identity()
	v.ZoomAt(Point{}, ZoomInFactor)
	v.ZoomAt(Point{}, ZoomInFactor)
	assert.InDelta(t, 1.21, v.Zoom, 1e-12)
}

func TestViewport_ResetAndPan(t *testing.T) {
	v := Viewport{Zoom: 3, PanX: 10, PanY: 20}
	v.PanBy(5, -7)
	assert.Equal(t, Viewport{Zoom: 3, PanX: 15, PanY: 13}, v)

	v.Reset()
	assert.Equal(t, Viewport{Zoom: 1}, v)
}

func TestFit(t *testing.T) {
	v := Identity()
	v.Fit(400, 200, 100, 100)

	assert.InDelta(t, 0.25, v.Zoom, 1e-12)
	assert.InDelta(t, 0, v.PanX, 1e-12)
	assert.InDelta(t, 25, v.PanY, 1e-12)

	assert.Equal(t, 1.0, FitZoom(0, 10, 10, 10))
	assert.Equal(t, MinZoom, FitZoom(100000, 100000, 10, 10))
}

func TestRectFromPoints(t *testing.T) {
	forward := RectFromPoints(Point{10, 10}, Point{60, 40})
	reverse := RectFromPoints(Point{60, 40}, Point{10, 10})

	assert.Equal(t, Rect{X: 10, Y: 10, Width: 50, Height: 30}, forward)
	assert.Equal(t, forward, reverse)
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}

	assert.True(t, r.Contains(Point{10, 10}))
	assert.False(t, r.ContainsStrict(Point{10, 10}))
	assert.True(t, r.ContainsStrict(Point{15, 29}))
	assert.False(t, r.Contains(Point{31, 15}))
}
