// Package predict fetches detections from prediction sources and turns them
// into predicted boxes.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// ErrNoPredictions is returned when a source has nothing for an image.
var ErrNoPredictions = errors.New("no predictions available")

// Predictor produces detections for an image file.
type Predictor interface {
	Predict(ctx context.Context, imagePath string) (model.PredictionBatch, error)
}

// FileSource reads precomputed detections from JSON files in the
// prediction-server shape. With an empty Dir the file sits next to the
// image; otherwise it is Dir/<stem>.json.
type FileSource struct {
	Dir string
}

// NewFileSource creates a file source reading from dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// PathFor returns the prediction file consulted for an image.
func (s *FileSource) PathFor(imagePath string) string {
	stem := model.Stem(filepath.Base(imagePath))
	if s.Dir == "" {
		return filepath.Join(filepath.Dir(imagePath), stem+".json")
	}
	return filepath.Join(s.Dir, stem+".json")
}

// Predict implements Predictor.
func (s *FileSource) Predict(ctx context.Context, imagePath string) (model.PredictionBatch, error) {
	if err := ctx.Err(); err != nil {
		return model.PredictionBatch{}, err
	}
	path := s.PathFor(imagePath)
	data, err := os.ReadFile(path) //nolint:gosec // derived from the image path
	if errors.Is(err, os.ErrNotExist) {
		return model.PredictionBatch{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoPredictions)
	}
	if err != nil {
		return model.PredictionBatch{}, fmt.Errorf("failed to read predictions: %w", err)
	}
	return DecodeBatch(data)
}

// DecodeBatch parses a prediction payload. The predictions array is
// required. Box entries that fail to decode are counted per result and
// reported as skipped by model.ResolvePredictions.
func DecodeBatch(data []byte) (model.PredictionBatch, error) {
	var raw struct {
		Predictions *[]model.PredictionResult `json:"predictions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.PredictionBatch{}, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	if raw.Predictions == nil {
		return model.PredictionBatch{}, fmt.Errorf("%w: missing predictions array", common.ErrMalformedPayload)
	}
	return model.PredictionBatch{Predictions: *raw.Predictions}, nil
}
