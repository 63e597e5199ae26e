package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

// FileStatus is the review state of an image.
type FileStatus string

const (
	// StatusDone marks an image whose annotations are complete.
	StatusDone FileStatus = "DONE"
	// StatusInProgress marks an image still being worked on. New images start here.
	StatusInProgress FileStatus = "IN_PROGRESS"
	// StatusAttention marks an image that needs a second look.
	StatusAttention FileStatus = "ATTENTION"
)

// AllStatuses lists statuses in display order.
func AllStatuses() []FileStatus {
	return []FileStatus{StatusDone, StatusInProgress, StatusAttention}
}

// ParseFileStatus validates a status string.
func ParseFileStatus(s string) (FileStatus, error) {
	st := FileStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusDone, StatusInProgress, StatusAttention:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidStatus, s)
}

// Letter is the one-character tag shown in the file list.
func (s FileStatus) Letter() string {
	switch s {
	case StatusDone:
		return "D"
	case StatusAttention:
		return "A"
	default:
		return "I"
	}
}

// Next cycles DONE -> IN_PROGRESS -> ATTENTION -> DONE.
func (s FileStatus) Next() FileStatus {
	switch s {
	case StatusDone:
		return StatusInProgress
	case StatusInProgress:
		return StatusAttention
	default:
		return StatusDone
	}
}

// ImageFile is an image known to the store.
type ImageFile struct {
	UpdatedAt time.Time
	BoxCounts map[string]int
	Name      string
	Status    FileStatus
	Width     int
	Height    int
}

// Stem returns the file name without its extension. Label files use it.
func (f ImageFile) Stem() string {
	return Stem(f.Name)
}

// Stem strips the extension from a file name.
func Stem(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
