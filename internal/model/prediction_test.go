package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
)

func TestResolvePredictions(t *testing.T) {
	classes := []Class{{Name: "Person"}, {Name: "Car"}, {Name: "Dog"}}
	raw := `{"predictions":[{"boxes":[
		{"name":"CAR","confidence":0.87,"x1":10.4,"y1":20.6,"x2":60.4,"y2":50.6},
		{"class":2,"x_center":0.5,"y_center":0.5,"width":0.2,"height":0.4},
		{"class":9,"x1":0,"y1":0,"x2":10,"y2":10},
		{"name":"unicorn","x1":0,"y1":0,"x2":10,"y2":10},
		{"name":"Dog","x1":0,"y1":0},
		{"confidence":0.5}
	]},{"boxes":[{"name":"person","x_center":0.25,"y_center":0.25,"width":0.5,"height":0.5}]}]}`

	var batch PredictionBatch
	require.NoError(t, json.Unmarshal([]byte(raw), &batch))
	assert.Equal(t, 7, batch.Count())

	boxes, skipped := ResolvePredictions(batch, classes, 100, 200)

	require.Len(t, boxes, 5)
	assert.Equal(t, 2, skipped)

	assert.Equal(t, 1, boxes[0].ClassIndex)
	assert.Equal(t, 10.0, boxes[0].X)
	assert.Equal(t, 21.0, boxes[0].Y)
	assert.Equal(t, 50.0, boxes[0].Width)
	assert.Equal(t, 30.0, boxes[0].Height)
	require.NotNil(t, boxes[0].Confidence)
	assert.InDelta(t, 0.87, *boxes[0].Confidence, 1e-12)
	assert.Equal(t, "CAR", boxes[0].Label)

	assert.Equal(t, Box{X: 40, Y: 60, Width: 20, Height: 80, ClassIndex: 2, Predicted: true}, boxes[1])

	assert.Equal(t, 0, boxes[2].ClassIndex, "out of range index falls back to 0")
	assert.Equal(t, 0, boxes[3].ClassIndex, "unknown name falls back to 0")
	assert.Equal(t, 0, boxes[4].ClassIndex)
	assert.Equal(t, 0.0, boxes[4].X)
	assert.Equal(t, 50.0, boxes[4].Width)

	for _, b := range boxes {
		assert.True(t, b.Predicted)
	}
}

func TestResolvePredictions_Geometry(t *testing.T) {
	classes := []Class{{Name: "Person"}}
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   PredictionBox
		want Box
		ok   bool
	}{
		{
			name: "reversed corners",
			in:   PredictionBox{X1: f(60), Y1: f(60), X2: f(20), Y2: f(20)},
			want: Box{X: 20, Y: 20, Width: 40, Height: 40, Predicted: true},
			ok:   true,
		},
		{
			name: "reversed on one axis",
			in:   PredictionBox{X1: f(10), Y1: f(50), X2: f(30), Y2: f(5)},
			want: Box{X: 10, Y: 5, Width: 20, Height: 45, Predicted: true},
			ok:   true,
		},
		{
			name: "zero width",
			in:   PredictionBox{X1: f(10), Y1: f(10), X2: f(10), Y2: f(40)},
		},
		{
			name: "rounds below one pixel",
			in:   PredictionBox{X1: f(10), Y1: f(10), X2: f(10.4), Y2: f(40)},
		},
		{
			name: "negative normalized size",
			in:   PredictionBox{XCenter: f(0.5), YCenter: f(0.5), Width: f(-0.2), Height: f(0.2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := PredictionBatch{Predictions: []PredictionResult{{Boxes: []PredictionBox{tt.in}}}}
			boxes, skipped := ResolvePredictions(batch, classes, 100, 100)
			if !tt.ok {
				assert.Empty(t, boxes)
				assert.Equal(t, 1, skipped)
				return
			}
			require.Len(t, boxes, 1)
			assert.Zero(t, skipped)
			assert.Equal(t, tt.want, boxes[0])
			assert.True(t, boxes[0].Rect().Contains(geometry.Point{X: tt.want.X + 1, Y: tt.want.Y + 1}))
		})
	}
}

func TestPredictionResult_UnmarshalJSON(t *testing.T) {
	raw := `{"image_width": 640, "boxes": [{"x1": 1, "y1": 1, "x2": 9, "y2": 9}, {"x1": [1]}, {"name": 3}]}`

	var result PredictionResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	assert.Equal(t, 640, result.ImageWidth)
	assert.Len(t, result.Boxes, 1)
	assert.Equal(t, 2, result.Malformed)

	assert.Error(t, json.Unmarshal([]byte(`{"boxes": {}}`), &result))
}
