// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

// ImageFilter defines filtering options for image queries. An empty
// Statuses slice matches every status.
type ImageFilter struct {
	Statuses []model.FileStatus
	Limit    int
	Offset   int
}

// DefaultImageFilter hides finished images, which is what the annotation
// list shows on startup.
func DefaultImageFilter() ImageFilter {
	return ImageFilter{Statuses: []model.FileStatus{model.StatusInProgress, model.StatusAttention}}
}

// Matches reports whether status passes the filter.
func (f ImageFilter) Matches(status model.FileStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Store defines the contract for our persistence layer.
type Store interface {
	// Image operations
	RegisterImage(ctx context.Context, img model.ImageFile) error
	GetImage(ctx context.Context, name string) (*model.ImageFile, error)
	ListImages(ctx context.Context, filter ImageFilter) ([]model.ImageFile, error)
	SetFileStatus(ctx context.Context, name string, status model.FileStatus) error
	GetFileStatuses(ctx context.Context) (map[string]model.FileStatus, error)

	// Class operations
	GetClasses(ctx context.Context) ([]model.Class, error)
	AddClass(ctx context.Context, name string) ([]model.Class, error)
	RenameClass(ctx context.Context, index int, name string) ([]model.Class, error)
	UpdateClassInstructions(ctx context.Context, index int, instructions string) error
	DeleteClass(ctx context.Context, index int) ([]model.Class, error)

	// Annotation operations
	GetAnnotations(ctx context.Context, imageName string) (model.AnnotationRecord, error)
	SaveAnnotations(ctx context.Context, imageName string, rec model.AnnotationRecord) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Stats summarises the annotation workload.
type Stats struct {
	ByStatus    map[model.FileStatus]int
	ByClass     map[string]int
	Images      int
	Annotations int
}
