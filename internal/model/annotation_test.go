package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNormalized(t *testing.T) {
	b := Box{X: 10, Y: 20, Width: 50, Height: 30, ClassIndex: 2}
	got := ToNormalized(b, 200, 100)

	assert.Equal(t, 2, got.Class)
	assert.InDelta(t, 0.175, got.XCenter, 1e-12)
	assert.InDelta(t, 0.35, got.YCenter, 1e-12)
	assert.InDelta(t, 0.25, got.Width, 1e-12)
	assert.InDelta(t, 0.3, got.Height, 1e-12)
}

func TestNormalizedRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		w, h int
	}{
		{name: "integral box", box: Box{X: 10, Y: 10, Width: 50, Height: 30}, w: 640, h: 480},
		{name: "fractional drag result", box: Box{X: 13.37, Y: 7.5, Width: 101.49, Height: 1.5}, w: 1920, h: 1080},
		{name: "odd canvas", box: Box{X: 0, Y: 0, Width: 333, Height: 77}, w: 333, h: 777},
		{name: "minimum size", box: Box{X: 299, Y: 199, Width: 1, Height: 1}, w: 300, h: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromNormalized(ToNormalized(tt.box, tt.w, tt.h), tt.w, tt.h)

			assert.InDelta(t, tt.box.X, got.X, 1)
			assert.InDelta(t, tt.box.Y, got.Y, 1)
			assert.InDelta(t, tt.box.Width, got.Width, 1)
			assert.InDelta(t, tt.box.Height, got.Height, 1)
		})
	}
}

func TestRecordFromBoxes_DropsDisplayOnlyFields(t *testing.T) {
	conf := 0.9
	boxes := []Box{{X: 0, Y: 0, Width: 10, Height: 10, ClassIndex: 1, Predicted: true, Confidence: &conf, Label: "cat"}}

	rec := RecordFromBoxes(boxes, 100, 100)
	back := BoxesFromRecord(rec, 100, 100)

	assert.Len(t, rec.Boxes, 1)
	assert.Equal(t, Box{X: 0, Y: 0, Width: 10, Height: 10, ClassIndex: 1}, back[0])
}

func TestCountByClass(t *testing.T) {
	classes := []Class{{Name: "cat"}, {Name: "dog"}}
	counts := CountByClass([]int{0, 0, 1, 5}, classes)

	assert.Equal(t, map[string]int{"cat": 2, "dog": 1, "Class 5": 1}, counts)
}

func TestReindexAfterClassDelete(t *testing.T) {
	var got []int
	for _, idx := range []int{0, 1, 2, 3} {
		got = append(got, ReindexAfterClassDelete(idx, 1))
	}
	assert.Equal(t, []int{0, 0, 1, 2}, got)
}
