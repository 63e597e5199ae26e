package annotate

import "github.com/Veraticus/yolo-labeler/internal/geometry"

// DragMode identifies what a drag on the selected box does.
type DragMode int

const (
	ModeNone DragMode = iota
	ModeMove
	ModeResizeNW
	ModeResizeNE
	ModeResizeSW
	ModeResizeSE
)

func (m DragMode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeResizeNW:
		return "resize-nw"
	case ModeResizeNE:
		return "resize-ne"
	case ModeResizeSW:
		return "resize-sw"
	case ModeResizeSE:
		return "resize-se"
	default:
		return "none"
	}
}

// State is the interaction state. Exactly one variant is active at a time,
// so combinations like panning while resizing cannot be expressed.
type State interface {
	Name() string
}

// Idle waits for the next gesture.
type Idle struct{}

// Drawing is an armed draw gesture between pointer-down and pointer-up.
// Both points are in image coordinates.
type Drawing struct {
	Start   geometry.Point
	Current geometry.Point
}

// Dragging moves or resizes the selected box. Last is the image point of
// the previous pointer event; deltas are taken against it.
type Dragging struct {
	Last geometry.Point
	Mode DragMode
}

// Panning shifts the viewport. Last is in screen coordinates.
type Panning struct {
	Last geometry.Point
}

func (Idle) Name() string       { return "idle" }
func (Drawing) Name() string    { return "draw" }
func (d Dragging) Name() string { return d.Mode.String() }
func (Panning) Name() string    { return "pan" }
