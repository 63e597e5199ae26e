package testutil

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

// WriteImage writes a solid w x h image to dir/name. The format follows
// the file extension.
func WriteImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatalf("failed to create image dir: %v", err)
	}
	path := filepath.Join(dir, name)
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 90, B: 160, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write image %q: %v", name, err)
	}
	return path
}

// Record builds an annotation record with one small box per class index.
func Record(classes ...int) model.AnnotationRecord {
	rec := model.AnnotationRecord{Boxes: []model.YOLORecord{}}
	for i, c := range classes {
		rec.Boxes = append(rec.Boxes, model.YOLORecord{
			Class:   c,
			XCenter: 0.1 * float64(i+1),
			YCenter: 0.5,
			Width:   0.05,
			Height:  0.1,
		})
	}
	return rec
}
