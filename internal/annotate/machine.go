package annotate

import (
	"math"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// Button is a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Event is an input event fed to Session.Handle. Pointer positions are in
// screen coordinates.
type Event interface {
	event()
}

// PointerDown is a button press.
type PointerDown struct {
	Pos    geometry.Point
	Button Button
}

// PointerMove is pointer motion with or without a button held.
type PointerMove struct {
	Pos geometry.Point
}

// PointerUp is a button release.
type PointerUp struct {
	Pos    geometry.Point
	Button Button
}

// PointerLeave fires when the pointer leaves the canvas.
type PointerLeave struct{}

// Wheel is one scroll tick at Pos.
type Wheel struct {
	Pos geometry.Point
	Up  bool
}

// KeyPress is a key event. Keys typed into a text field never reach the
// canvas shortcuts.
type KeyPress struct {
	Key         string
	InTextField bool
}

func (PointerDown) event()  {}
func (PointerMove) event()  {}
func (PointerUp) event()    {}
func (PointerLeave) event() {}
func (Wheel) event()        {}
func (KeyPress) event()     {}

// Handle applies one event and reports whether the canvas needs a redraw.
func (s *Session) Handle(ev Event) bool {
	switch e := ev.(type) {
	case PointerDown:
		return s.pointerDown(e)
	case PointerMove:
		return s.pointerMove(e)
	case PointerUp:
		return s.pointerUp(e)
	case PointerLeave:
		if _, ok := s.state.(Panning); ok {
			s.state = Idle{}
		}
		return false
	case Wheel:
		factor := geometry.ZoomOutFactor
		if e.Up {
			factor = geometry.ZoomInFactor
		}
		return s.ZoomAt(e.Pos, factor)
	case KeyPress:
		return s.keyPress(e)
	default:
		return false
	}
}

func (s *Session) pointerDown(e PointerDown) bool {
	if e.Button == ButtonMiddle {
		s.state = Panning{Last: e.Pos}
		return false
	}
	if e.Button != ButtonPrimary || !s.loaded {
		return false
	}
	switch s.state.(type) {
	case Panning:
		return false
	case Drawing, Dragging:
		// Lost the release; start over.
		s.state = Idle{}
	}

	p := s.viewport.ScreenToImage(e.Pos)

	if mode := s.HitTest(p); mode != ModeNone {
		s.state = Dragging{Mode: mode, Last: p}
		return false
	}

	if idx := s.TopmostBoxAt(p); idx != NoSelection {
		s.selected = idx
		return true
	}

	if s.armed {
		s.state = Drawing{Start: p, Current: p}
		return true
	}
	return false
}

func (s *Session) pointerMove(e PointerMove) bool {
	switch st := s.state.(type) {
	case Panning:
		d := e.Pos.Sub(st.Last)
		s.viewport.PanBy(d.X, d.Y)
		s.state = Panning{Last: e.Pos}
		return true

	case Dragging:
		if s.Selected() == NoSelection {
			s.state = Idle{}
			return true
		}
		p := s.viewport.ScreenToImage(e.Pos)
		d := p.Sub(st.Last)
		s.applyDrag(st.Mode, d.X, d.Y)
		s.state = Dragging{Mode: st.Mode, Last: p}
		return true

	case Drawing:
		s.state = Drawing{Start: st.Start, Current: s.viewport.ScreenToImage(e.Pos)}
		return true
	}
	return false
}

func (s *Session) pointerUp(e PointerUp) bool {
	if e.Button == ButtonMiddle {
		if _, ok := s.state.(Panning); ok {
			s.state = Idle{}
		}
		return false
	}
	if e.Button != ButtonPrimary {
		return false
	}

	switch st := s.state.(type) {
	case Dragging:
		s.state = Idle{}
		return true
	case Drawing:
		s.state = Idle{}
		if !s.armed {
			return true
		}
		r := s.clipToCanvas(geometry.RectFromPoints(st.Start, s.viewport.ScreenToImage(e.Pos)))
		if r.Width > MinDrawSize && r.Height > MinDrawSize {
			s.boxes = append(s.boxes, model.Box{
				X:          r.X,
				Y:          r.Y,
				Width:      r.Width,
				Height:     r.Height,
				ClassIndex: s.activeClass,
			})
			s.selected = len(s.boxes) - 1
		}
		return true
	}
	return false
}

// clipToCanvas intersects r with the image bounds so a drag that strays into
// the gutter still produces a box on the image.
func (s *Session) clipToCanvas(r geometry.Rect) geometry.Rect {
	x0 := math.Max(0, r.X)
	y0 := math.Max(0, r.Y)
	x1 := math.Min(float64(s.canvasWidth), r.Right())
	y1 := math.Min(float64(s.canvasHeight), r.Bottom())
	return geometry.Rect{X: x0, Y: y0, Width: math.Max(0, x1-x0), Height: math.Max(0, y1-y0)}
}

func (s *Session) keyPress(e KeyPress) bool {
	if e.InTextField || len(e.Key) != 1 {
		return false
	}
	c := e.Key[0]
	if c < '1' || c > '9' {
		return false
	}
	return s.SelectClass(int(c - '1'))
}
