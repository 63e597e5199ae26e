package tui

import (
	"image"

	"github.com/Veraticus/yolo-labeler/internal/annotate"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// Data loading messages.
type imagesLoadedMsg struct {
	err    error
	images []model.ImageFile
}

type classesLoadedMsg struct {
	err     error
	classes []model.Class
}

// imageLoadedMsg completes a load started with Session.BeginLoad. A switch
// flushes the outgoing image first; its result rides along in saved and
// saveErr.
type imageLoadedMsg struct {
	img     image.Image
	err     error
	saveErr error
	rec     *model.AnnotationRecord
	saved   string
	ticket  annotate.LoadTicket
	width   int
	height  int
}

// Async operation messages.
type savedMsg struct {
	err   error
	image string
	boxes int
	quit  bool
}

type predictionsMsg struct {
	err     error
	image   string
	batch   model.PredictionBatch
	replace bool
}

// classesChangedMsg reports a class edit applied by the store. deleted is
// the removed index, or -1.
type classesChangedMsg struct {
	err     error
	action  string
	classes []model.Class
	deleted int
}

type statusChangedMsg struct {
	err    error
	image  string
	status model.FileStatus
}

// Error handling.
type errorMsg struct {
	err     error
	context string
}
