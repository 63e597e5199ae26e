package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestClassColor(t *testing.T) {
	tests := []struct {
		name string
		idx  int
		want string
	}{
		{name: "first palette entry", idx: 0, want: "#00c853"},
		{name: "last palette entry", idx: 7, want: "#009688"},
		{name: "generated hue", idx: 8, want: Hex(HSL(16, 0.7, 0.5))},
		{name: "negative index folds", idx: -1, want: "#2196f3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hex(ClassColor(tt.idx)))
		})
	}

	assert.NotEqual(t, ClassColor(9), ClassColor(10))
}

func TestHSL(t *testing.T) {
	assert.Equal(t, "#ff0000", Hex(HSL(0, 1, 0.5)))
	assert.Equal(t, "#00ff00", Hex(HSL(120, 1, 0.5)))
	assert.Equal(t, "#0000ff", Hex(HSL(240, 1, 0.5)))
	assert.Equal(t, "#ff0000", Hex(HSL(360, 1, 0.5)))
	assert.Equal(t, "#808080", Hex(HSL(45, 0, 0.5)))
}

func TestBoxLabel(t *testing.T) {
	classes := model.DefaultClasses()
	conf := 0.874

	tests := []struct {
		name string
		box  model.Box
		want string
	}{
		{name: "manual box", box: model.Box{ClassIndex: 1}, want: "Car"},
		{name: "predicted with confidence", box: model.Box{ClassIndex: 0, Predicted: true, Confidence: &conf}, want: "Person (87%)"},
		{name: "predicted without confidence", box: model.Box{ClassIndex: 0, Predicted: true}, want: "Person"},
		{name: "confidence ignored once edited", box: model.Box{ClassIndex: 2, Confidence: &conf}, want: "Animal"},
		{name: "unknown class", box: model.Box{ClassIndex: 9}, want: "Class 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BoxLabel(classes, tt.box))
		})
	}
}

func TestDimensionLabel(t *testing.T) {
	assert.Equal(t, "50 x 30", DimensionLabel(geometry.Rect{Width: 50.2, Height: 29.6}))
}

func TestRender_ImageThroughViewport(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	sc := Scene{
		Image:    solid(4, 4, red),
		Viewport: geometry.Viewport{Zoom: 2, PanX: 10, PanY: 10},
		Selected: -1,
	}

	out := New().Render(sc, 40, 30)

	require.Equal(t, image.Rect(0, 0, 40, 30), out.Bounds())
	assert.Equal(t, red, out.RGBAAt(12, 12))
	assert.Equal(t, red, out.RGBAAt(17, 17))
	assert.Equal(t, Background, out.RGBAAt(20, 20))
	assert.Equal(t, Background, out.RGBAAt(5, 5))
}

func TestRender_BoxStrokes(t *testing.T) {
	classes := model.DefaultClasses()
	boxes := []model.Box{
		{X: 10, Y: 40, Width: 30, Height: 20, ClassIndex: 1},
		{X: 60, Y: 40, Width: 30, Height: 20, ClassIndex: 0},
	}
	sc := Scene{
		Classes:  classes,
		Boxes:    boxes,
		Viewport: geometry.Identity(),
		Selected: 1,
	}

	out := New().Render(sc, 120, 80)

	assert.Equal(t, ClassColor(1), out.RGBAAt(25, 40), "top edge of unselected box")
	assert.Equal(t, ClassColor(1), out.RGBAAt(10, 50), "left edge of unselected box")
	assert.Equal(t, Selected, out.RGBAAt(75, 42), "selected stroke is thicker")
	assert.Equal(t, White, out.RGBAAt(60, 40), "handle on selected corner")
	assert.Equal(t, Background, out.RGBAAt(5, 75))

	assert.Equal(t, boxes, sc.Boxes, "rendering never mutates the scene")
}

func TestRender_NoHandlesOnUnselected(t *testing.T) {
	sc := Scene{
		Boxes:    []model.Box{{X: 20, Y: 30, Width: 30, Height: 20}},
		Viewport: geometry.Identity(),
		Selected: -1,
	}

	out := New(WithLabels(false)).Render(sc, 80, 60)

	assert.Equal(t, ClassColor(0), out.RGBAAt(20, 30))
	assert.Equal(t, Background, out.RGBAAt(18, 28))
}

func TestRender_Preview(t *testing.T) {
	preview := geometry.Rect{X: 10, Y: 10, Width: 60, Height: 40}
	sc := Scene{
		Preview:     &preview,
		Viewport:    geometry.Identity(),
		Selected:    -1,
		ActiveClass: 2,
	}

	out := New().Render(sc, 100, 80)

	assert.Equal(t, ClassColor(2), out.RGBAAt(10, 10), "dash starts at the corner")
	assert.NotEqual(t, ClassColor(2), out.RGBAAt(17, 10), "gap after first dash")
	assert.Equal(t, ClassColor(2), out.RGBAAt(20, 10), "second dash")
}

func TestRender_ZeroSize(t *testing.T) {
	out := New().Render(Scene{Selected: -1}, 0, -5)
	assert.True(t, out.Bounds().Empty())
}

func TestOverlay(t *testing.T) {
	img := solid(50, 40, color.RGBA{G: 255, A: 255})
	boxes := []model.Box{{X: 5, Y: 20, Width: 20, Height: 10, ClassIndex: 3}}

	out := New(WithStroke(1, 2)).Overlay(img, model.DefaultClasses(), boxes)

	assert.Equal(t, img.Bounds(), out.Bounds())
	assert.Equal(t, ClassColor(3), out.RGBAAt(15, 20))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, out.RGBAAt(45, 35))
}
