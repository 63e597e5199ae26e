package annotate

import (
	"math"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
)

// HandleTolerance is the half-width, in image pixels, of the square around
// each corner of the selected box that grabs a resize.
const HandleTolerance = 8.0

// MinDrawSize is the size a new box must exceed on both axes to be kept.
const MinDrawSize = 5.0

// HitTest classifies an image point against the selected box. Corners are
// checked in NW, NE, SW, SE order before the strict interior. A stale
// selection is reset and yields ModeNone.
func (s *Session) HitTest(p geometry.Point) DragMode {
	sel := s.Selected()
	if sel == NoSelection {
		return ModeNone
	}
	r := s.boxes[sel].Rect()

	corners := []struct {
		at   geometry.Point
		mode DragMode
	}{
		{geometry.Point{X: r.X, Y: r.Y}, ModeResizeNW},
		{geometry.Point{X: r.Right(), Y: r.Y}, ModeResizeNE},
		{geometry.Point{X: r.X, Y: r.Bottom()}, ModeResizeSW},
		{geometry.Point{X: r.Right(), Y: r.Bottom()}, ModeResizeSE},
	}
	for _, c := range corners {
		if geometry.Near(p, c.at, HandleTolerance) {
			return c.mode
		}
	}

	if r.ContainsStrict(p) {
		return ModeMove
	}
	return ModeNone
}

// TopmostBoxAt returns the last-drawn unselected box containing p, edges
// included, or NoSelection.
func (s *Session) TopmostBoxAt(p geometry.Point) int {
	sel := s.Selected()
	for i := len(s.boxes) - 1; i >= 0; i-- {
		if i == sel {
			continue
		}
		if s.boxes[i].Rect().Contains(p) {
			return i
		}
	}
	return NoSelection
}

// applyDrag moves or resizes the selected box by an image-space delta, then
// clamps it onto the canvas, never below 1x1.
func (s *Session) applyDrag(mode DragMode, dx, dy float64) {
	b := &s.boxes[s.selected]

	switch mode {
	case ModeMove:
		b.X += dx
		b.Y += dy
	case ModeResizeNW:
		b.Width -= dx
		b.Height -= dy
		b.X += dx
		b.Y += dy
	case ModeResizeNE:
		b.Width += dx
		b.Height -= dy
		b.Y += dy
	case ModeResizeSW:
		b.Width -= dx
		b.Height += dy
		b.X += dx
	case ModeResizeSE:
		b.Width += dx
		b.Height += dy
	case ModeNone:
		return
	}

	b.Width = math.Max(1, math.Min(b.Width, float64(s.canvasWidth)))
	b.Height = math.Max(1, math.Min(b.Height, float64(s.canvasHeight)))
	b.X = math.Max(0, math.Min(b.X, float64(s.canvasWidth)-b.Width))
	b.Y = math.Max(0, math.Min(b.Y, float64(s.canvasHeight)-b.Height))
}
