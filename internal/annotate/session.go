// Package annotate holds the annotation session: the box model for the
// current image, the selection, the viewport, and the pointer state machine
// that edits them.
package annotate

import (
	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// NoSelection is the selected index when no box is selected.
const NoSelection = -1

// Session is the single owner of all mutable canvas state. It is not safe
// for concurrent use; the UI loop calls into it from one goroutine.
type Session struct {
	state    State
	cache    map[string][]model.Box
	imageID  string
	pending  LoadTicket
	classes  []model.Class
	boxes    []model.Box
	viewport geometry.Viewport

	canvasWidth  int
	canvasHeight int
	selected     int
	activeClass  int
	armed        bool
	loaded       bool
}

// NewSession creates an empty session with box creation disarmed.
func NewSession(classes []model.Class) *Session {
	s := &Session{
		state:    Idle{},
		cache:    make(map[string][]model.Box),
		viewport: geometry.Identity(),
		selected: NoSelection,
	}
	s.SetClasses(classes)
	return s
}

// State returns the current interaction state.
func (s *Session) State() State { return s.state }

// ImageID returns the identifier of the loaded image.
func (s *Session) ImageID() string { return s.imageID }

// Loaded reports whether an image is currently loaded.
func (s *Session) Loaded() bool { return s.loaded }

// CanvasSize returns the natural pixel size of the loaded image.
func (s *Session) CanvasSize() (int, int) { return s.canvasWidth, s.canvasHeight }

// Viewport returns the current zoom/pan transform.
func (s *Session) Viewport() geometry.Viewport { return s.viewport }

// Boxes returns a copy of the box list in draw order.
func (s *Session) Boxes() []model.Box {
	out := make([]model.Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// Box returns the box at idx.
func (s *Session) Box(idx int) (model.Box, bool) {
	if idx < 0 || idx >= len(s.boxes) {
		return model.Box{}, false
	}
	return s.boxes[idx], true
}

// ReplaceBoxes swaps the whole box list, clearing the selection and any
// gesture in progress.
func (s *Session) ReplaceBoxes(boxes []model.Box) {
	s.boxes = make([]model.Box, len(boxes))
	copy(s.boxes, boxes)
	s.selected = NoSelection
	s.state = Idle{}
}

// Selected returns the selected index, or NoSelection.
func (s *Session) Selected() int {
	if s.selected >= len(s.boxes) {
		s.selected = NoSelection
	}
	return s.selected
}

// Select selects the box at idx. An out-of-range index clears the selection.
func (s *Session) Select(idx int) bool {
	if idx < 0 || idx >= len(s.boxes) {
		s.selected = NoSelection
		return false
	}
	s.selected = idx
	return true
}

// ClearSelection deselects any box.
func (s *Session) ClearSelection() { s.selected = NoSelection }

// SelectNext cycles the selection forward through the box list.
func (s *Session) SelectNext() bool {
	if len(s.boxes) == 0 {
		return false
	}
	return s.Select((s.Selected() + 1) % len(s.boxes))
}

// RemoveBox deletes the box at idx. Removing the selected box resets the
// selection; removing an earlier box keeps the same box selected.
func (s *Session) RemoveBox(idx int) bool {
	if idx < 0 || idx >= len(s.boxes) {
		return false
	}
	s.boxes = append(s.boxes[:idx], s.boxes[idx+1:]...)

	switch {
	case s.selected == idx:
		s.selected = NoSelection
		if _, ok := s.state.(Dragging); ok {
			s.state = Idle{}
		}
	case s.selected > idx:
		s.selected--
	}
	return true
}

// DeleteSelected removes the selected box, if any.
func (s *Session) DeleteSelected() bool {
	return s.RemoveBox(s.Selected())
}

// Classes returns the class list.
func (s *Session) Classes() []model.Class {
	out := make([]model.Class, len(s.classes))
	copy(out, s.classes)
	return out
}

// SetClasses replaces the class list, keeping the active class in range.
func (s *Session) SetClasses(classes []model.Class) {
	s.classes = make([]model.Class, len(classes))
	copy(s.classes, classes)
	if s.activeClass >= len(s.classes) {
		s.activeClass = 0
	}
}

// ActiveClass returns the class assigned to newly drawn boxes.
func (s *Session) ActiveClass() int { return s.activeClass }

// SetActiveClass changes the active class if idx names an existing class.
func (s *Session) SetActiveClass(idx int) bool {
	if idx < 0 || idx >= len(s.classes) {
		return false
	}
	s.activeClass = idx
	return true
}

// AssignClass relabels the box at boxIdx. A manual relabel turns a predicted
// box into a regular one.
func (s *Session) AssignClass(boxIdx, classIdx int) bool {
	if boxIdx < 0 || boxIdx >= len(s.boxes) || classIdx < 0 || classIdx >= len(s.classes) {
		return false
	}
	b := &s.boxes[boxIdx]
	b.ClassIndex = classIdx
	b.Predicted = false
	b.Confidence = nil
	b.Label = ""
	return true
}

// SelectClass makes idx the active class and applies it to the selected box.
func (s *Session) SelectClass(idx int) bool {
	if !s.SetActiveClass(idx) {
		return false
	}
	if sel := s.Selected(); sel != NoSelection {
		s.AssignClass(sel, idx)
	}
	return true
}

// DeleteClass drops the class at idx and reindexes every box in memory,
// including cached boxes for other images. The store performs the same
// reindex on persisted annotations.
func (s *Session) DeleteClass(idx int) error {
	if idx < 0 || idx >= len(s.classes) {
		return common.ErrNotFound
	}
	if len(s.classes) == 1 {
		return common.ErrLastClass
	}

	reindex(s.boxes, idx)
	for _, boxes := range s.cache {
		reindex(boxes, idx)
	}

	s.classes = append(s.classes[:idx], s.classes[idx+1:]...)
	s.activeClass = model.ReindexAfterClassDelete(s.activeClass, idx)
	return nil
}

func reindex(boxes []model.Box, deleted int) {
	for i := range boxes {
		boxes[i].ClassIndex = model.ReindexAfterClassDelete(boxes[i].ClassIndex, deleted)
	}
}

// Armed reports whether a primary drag on empty space creates a box.
func (s *Session) Armed() bool { return s.armed }

// SetArmed arms or disarms box creation. Disarming abandons a draw in
// progress.
func (s *Session) SetArmed(armed bool) {
	s.armed = armed
	if _, ok := s.state.(Drawing); ok && !armed {
		s.state = Idle{}
	}
}

// ToggleArmed flips box creation and returns the new value.
func (s *Session) ToggleArmed() bool {
	s.SetArmed(!s.armed)
	return s.armed
}

// Preview returns the rectangle of a draw in progress.
func (s *Session) Preview() (geometry.Rect, bool) {
	d, ok := s.state.(Drawing)
	if !ok {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(d.Start, d.Current), true
}

// ZoomAt zooms by factor about a screen anchor.
func (s *Session) ZoomAt(anchor geometry.Point, factor float64) bool {
	if !s.loaded {
		return false
	}
	s.viewport.ZoomAt(anchor, factor)
	return true
}

// PanBy shifts the view by a screen-space delta.
func (s *Session) PanBy(dx, dy float64) {
	s.viewport.PanBy(dx, dy)
}

// ResetView restores the identity transform.
func (s *Session) ResetView() {
	s.viewport.Reset()
}

// FitView fits the image inside a viewW x viewH screen area.
func (s *Session) FitView(viewW, viewH int) bool {
	if !s.loaded {
		return false
	}
	s.viewport.Fit(s.canvasWidth, s.canvasHeight, viewW, viewH)
	return true
}

// MergePredictions adds predicted boxes to the current image, or replaces
// the current boxes when replace is set. It returns the number of boxes
// added.
func (s *Session) MergePredictions(boxes []model.Box, replace bool) int {
	if replace {
		s.boxes = s.boxes[:0]
	}
	s.boxes = append(s.boxes, boxes...)
	s.selected = NoSelection
	s.state = Idle{}
	return len(boxes)
}

// SavePayload snapshots the current boxes into the per-image cache and
// returns the normalized record to persist.
func (s *Session) SavePayload() (string, model.AnnotationRecord, error) {
	if !s.loaded {
		return "", model.AnnotationRecord{}, common.ErrNoImage
	}
	s.cache[s.imageID] = s.Boxes()
	return s.imageID, model.RecordFromBoxes(s.boxes, s.canvasWidth, s.canvasHeight), nil
}

// Cached returns the boxes last loaded or saved for imageID.
func (s *Session) Cached(imageID string) ([]model.Box, bool) {
	boxes, ok := s.cache[imageID]
	if !ok {
		return nil, false
	}
	out := make([]model.Box, len(boxes))
	copy(out, boxes)
	return out, true
}
