package annotate

import (
	"github.com/google/uuid"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// LoadTicket identifies one image load request. Only the most recent ticket
// may complete; results for older tickets are discarded.
type LoadTicket struct {
	ImageID string
	ID      uuid.UUID
}

// BeginLoad registers a load of imageID, superseding any load in flight.
func (s *Session) BeginLoad(imageID string) LoadTicket {
	s.pending = LoadTicket{ImageID: imageID, ID: uuid.New()}
	return s.pending
}

// Pending returns the ticket of the load in flight.
func (s *Session) Pending() (LoadTicket, bool) {
	return s.pending, s.pending.ID != uuid.Nil
}

// Current reports whether t is the latest load request.
func (s *Session) Current(t LoadTicket) bool {
	return t.ID != uuid.Nil && t.ID == s.pending.ID
}

// CompleteLoad installs a finished load: canvas size, a reset viewport, no
// selection, and the boxes from rec (empty when rec is nil). It returns
// false and changes nothing when t is stale.
func (s *Session) CompleteLoad(t LoadTicket, width, height int, rec *model.AnnotationRecord) bool {
	if !s.Current(t) {
		return false
	}
	s.pending = LoadTicket{}

	s.imageID = t.ImageID
	s.canvasWidth = width
	s.canvasHeight = height
	s.loaded = true
	s.viewport = geometry.Identity()
	s.state = Idle{}
	s.selected = NoSelection

	s.boxes = []model.Box{}
	if rec != nil {
		s.boxes = model.BoxesFromRecord(*rec, width, height)
	}
	s.cache[s.imageID] = s.Boxes()
	return true
}

// FailLoad clears the canvas after a failed load so no boxes from the
// previous image remain editable. Stale tickets are ignored.
func (s *Session) FailLoad(t LoadTicket) bool {
	if !s.Current(t) {
		return false
	}
	s.pending = LoadTicket{}
	s.imageID = ""
	s.canvasWidth = 0
	s.canvasHeight = 0
	s.loaded = false
	s.viewport = geometry.Identity()
	s.state = Idle{}
	s.selected = NoSelection
	s.boxes = []model.Box{}
	return true
}
