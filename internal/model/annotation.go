// Package model defines the core domain models used throughout the application.
package model

import (
	"math"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
)

// Box is one annotated region on the current image, in image pixels.
// Coordinates stay fractional while a drag is in progress and are rounded
// only when shown or saved.
type Box struct {
	Confidence *float64 // set only for predicted boxes; never persisted
	Label      string   // class name reported by a prediction source
	X          float64
	Y          float64
	Width      float64
	Height     float64
	ClassIndex int
	Predicted  bool
}

// Rect returns the box as a geometry rectangle.
func (b Box) Rect() geometry.Rect {
	return geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// YOLORecord is a box in normalized YOLO form. This is the wire shape used
// by the annotation store.
type YOLORecord struct {
	Class   int     `json:"class"`
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// AnnotationRecord is the persisted annotation set for one image.
type AnnotationRecord struct {
	Boxes []YOLORecord `json:"boxes"`
}

// ToNormalized converts a pixel box to YOLO form for a W x H canvas.
func ToNormalized(b Box, canvasWidth, canvasHeight int) YOLORecord {
	w := float64(canvasWidth)
	h := float64(canvasHeight)
	return YOLORecord{
		Class:   b.ClassIndex,
		XCenter: (b.X + b.Width/2) / w,
		YCenter: (b.Y + b.Height/2) / h,
		Width:   b.Width / w,
		Height:  b.Height / h,
	}
}

// FromNormalized converts a YOLO record back to a pixel box, rounding every
// field to whole pixels.
func FromNormalized(r YOLORecord, canvasWidth, canvasHeight int) Box {
	w := float64(canvasWidth)
	h := float64(canvasHeight)
	return Box{
		ClassIndex: r.Class,
		X:          math.Round((r.XCenter - r.Width/2) * w),
		Y:          math.Round((r.YCenter - r.Height/2) * h),
		Width:      math.Round(r.Width * w),
		Height:     math.Round(r.Height * h),
	}
}

// RecordFromBoxes builds the save payload for a set of boxes.
func RecordFromBoxes(boxes []Box, canvasWidth, canvasHeight int) AnnotationRecord {
	rec := AnnotationRecord{Boxes: make([]YOLORecord, 0, len(boxes))}
	for _, b := range boxes {
		rec.Boxes = append(rec.Boxes, ToNormalized(b, canvasWidth, canvasHeight))
	}
	return rec
}

// BoxesFromRecord converts a persisted record to pixel boxes.
func BoxesFromRecord(rec AnnotationRecord, canvasWidth, canvasHeight int) []Box {
	boxes := make([]Box, 0, len(rec.Boxes))
	for _, r := range rec.Boxes {
		boxes = append(boxes, FromNormalized(r, canvasWidth, canvasHeight))
	}
	return boxes
}

// CountByClass tallies boxes per class name. Indexes outside the class list
// are reported as "Class N".
func CountByClass(classIndexes []int, classes []Class) map[string]int {
	counts := make(map[string]int)
	for _, idx := range classIndexes {
		counts[ClassName(classes, idx)]++
	}
	return counts
}

// ReindexAfterClassDelete maps a class index onto the class list left after
// deleting class deleted: boxes of the deleted class fall back to 0 and
// higher indexes shift down by one.
func ReindexAfterClassDelete(classIndex, deleted int) int {
	switch {
	case classIndex == deleted:
		return 0
	case classIndex > deleted:
		return classIndex - 1
	default:
		return classIndex
	}
}
