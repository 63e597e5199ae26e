package model

import (
	"encoding/json"
	"math"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
)

// PredictionBox is one detection as reported by a prediction source. Every
// field is optional on the wire; ResolvePredictions decides what is usable.
type PredictionBox struct {
	Class      *int     `json:"class,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	X1         *float64 `json:"x1,omitempty"`
	Y1         *float64 `json:"y1,omitempty"`
	X2         *float64 `json:"x2,omitempty"`
	Y2         *float64 `json:"y2,omitempty"`
	XCenter    *float64 `json:"x_center,omitempty"`
	YCenter    *float64 `json:"y_center,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
}

// PredictionResult groups the detections of one inference pass.
type PredictionResult struct {
	Boxes       []PredictionBox `json:"boxes"`
	ImagePath   string          `json:"image_path,omitempty"`
	ImageWidth  int             `json:"image_width,omitempty"`
	ImageHeight int             `json:"image_height,omitempty"`
	// Malformed counts box entries that could not be decoded.
	Malformed int `json:"-"`
}

// UnmarshalJSON decodes each box entry on its own so one badly typed entry
// is counted in Malformed instead of failing the whole result.
func (r *PredictionResult) UnmarshalJSON(data []byte) error {
	type plain PredictionResult
	var raw struct {
		plain
		Boxes []json.RawMessage `json:"boxes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = PredictionResult(raw.plain)
	r.Boxes = make([]PredictionBox, 0, len(raw.Boxes))
	r.Malformed = 0
	for _, entry := range raw.Boxes {
		var box PredictionBox
		if err := json.Unmarshal(entry, &box); err != nil {
			r.Malformed++
			continue
		}
		r.Boxes = append(r.Boxes, box)
	}
	return nil
}

// PredictionBatch is the payload returned by a prediction source.
type PredictionBatch struct {
	Predictions []PredictionResult `json:"predictions"`
}

// Count returns the number of raw detections in the batch.
func (b PredictionBatch) Count() int {
	n := 0
	for _, p := range b.Predictions {
		n += len(p.Boxes) + p.Malformed
	}
	return n
}

// ResolvePredictions converts raw detections to predicted boxes on a W x H
// canvas. Absolute corners win over normalized centre/size. The class is
// resolved by name (case-insensitive exact match, falling back to 0) when a
// name is given, otherwise by index when it is in range. Entries that failed
// to decode, lack coordinates, or round to less than 1px on either axis are
// skipped; the number skipped is returned.
func ResolvePredictions(batch PredictionBatch, classes []Class, canvasWidth, canvasHeight int) ([]Box, int) {
	var (
		boxes   []Box
		skipped int
	)

	for _, result := range batch.Predictions {
		skipped += result.Malformed
		for _, p := range result.Boxes {
			box, ok := resolvePrediction(p, classes, canvasWidth, canvasHeight)
			if !ok {
				skipped++
				continue
			}
			boxes = append(boxes, box)
		}
	}
	return boxes, skipped
}

func resolvePrediction(p PredictionBox, classes []Class, canvasWidth, canvasHeight int) (Box, bool) {
	var box Box

	switch {
	case p.X1 != nil && p.Y1 != nil && p.X2 != nil && p.Y2 != nil:
		r := geometry.RectFromPoints(
			geometry.Point{X: *p.X1, Y: *p.Y1},
			geometry.Point{X: *p.X2, Y: *p.Y2},
		)
		box.X = math.Round(r.X)
		box.Y = math.Round(r.Y)
		box.Width = math.Round(r.Width)
		box.Height = math.Round(r.Height)
	case p.XCenter != nil && p.YCenter != nil && p.Width != nil && p.Height != nil:
		box = FromNormalized(YOLORecord{
			XCenter: *p.XCenter,
			YCenter: *p.YCenter,
			Width:   *p.Width,
			Height:  *p.Height,
		}, canvasWidth, canvasHeight)
	default:
		return Box{}, false
	}
	if box.Width < 1 || box.Height < 1 {
		return Box{}, false
	}

	switch {
	case p.Name != nil && *p.Name != "":
		if idx := FindClass(classes, *p.Name); idx >= 0 {
			box.ClassIndex = idx
		}
		box.Label = *p.Name
	case p.Class != nil && *p.Class >= 0 && *p.Class < len(classes):
		box.ClassIndex = *p.Class
	}

	box.Predicted = true
	if p.Confidence != nil {
		c := *p.Confidence
		box.Confidence = &c
	}
	return box, true
}
