// Package storage provides the data persistence layer for the labeler.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrInvalidClassIdx  = errors.New("invalid class index")
	ErrInvalidBox       = errors.New("invalid annotation box")
	ErrInvalidImageSize = errors.New("invalid image size")
	ErrInvalidImageName = errors.New("invalid image name")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateImageName rejects names that could escape the image directory.
func validateImageName(name string) error {
	if err := validateString(name, "image name"); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidImageName, name)
	}
	return nil
}

// validateImage validates an image registration.
func validateImage(img model.ImageFile) error {
	if err := validateImageName(img.Name); err != nil {
		return err
	}
	if img.Width < 0 || img.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, img.Width, img.Height)
	}
	return nil
}

// validateClassRange checks every box against the number of stored classes.
func validateClassRange(rec model.AnnotationRecord, classCount int) error {
	for i, b := range rec.Boxes {
		if b.Class >= classCount {
			return fmt.Errorf("box %d: %w: %d (have %d classes)", i, ErrInvalidClassIdx, b.Class, classCount)
		}
	}
	return nil
}

// validateRecord validates an annotation record before it is written.
func validateRecord(rec model.AnnotationRecord) error {
	for i, b := range rec.Boxes {
		if b.Class < 0 {
			return fmt.Errorf("box %d: %w: %d", i, ErrInvalidClassIdx, b.Class)
		}
		for _, v := range []float64{b.XCenter, b.YCenter, b.Width, b.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("box %d: %w: non-finite coordinate", i, ErrInvalidBox)
			}
		}
		if b.Width < 0 || b.Height < 0 {
			return fmt.Errorf("box %d: %w: negative size", i, ErrInvalidBox)
		}
	}
	return nil
}
