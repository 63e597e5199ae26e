package predict

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

const samplePayload = `{
  "predictions": [
    {
      "boxes": [
        {"class": 1, "confidence": 0.91, "x1": 10, "y1": 20, "x2": 50, "y2": 60},
        {"name": "car", "x_center": 0.5, "y_center": 0.5, "width": 0.2, "height": 0.4}
      ],
      "image_width": 200,
      "image_height": 100
    }
  ]
}`

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		payload string
		want    int
	}{
		{name: "server shape", payload: samplePayload, want: 2},
		{name: "empty predictions", payload: `{"predictions": []}`, want: 0},
		{name: "missing predictions", payload: `{"boxes": []}`, wantErr: common.ErrMalformedPayload},
		{name: "not json", payload: `Boxes: tensor([...])`, wantErr: common.ErrMalformedPayload},
		{name: "wrong type", payload: `{"predictions": "none"}`, wantErr: common.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := DecodeBatch([]byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, batch.Count())
		})
	}
}

func TestDecodeBatch_MalformedEntries(t *testing.T) {
	payload := `{"predictions": [{"boxes": [
		{"class": 0, "x1": 10, "y1": 10, "x2": 30, "y2": 40},
		{"class": 0, "x1": "oops", "y1": 10, "x2": 30, "y2": 40},
		{"class": "car", "x1": 0, "y1": 0, "x2": 5, "y2": 5},
		{"name": "car", "x_center": 0.5, "y_center": 0.5, "width": 0.2, "height": 0.4}
	]}]}`

	batch, err := DecodeBatch([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Count())
	assert.Equal(t, 2, batch.Predictions[0].Malformed)

	classes := []model.Class{{Name: "person"}, {Name: "car"}}
	boxes, skipped := model.ResolvePredictions(batch, classes, 100, 100)
	require.Len(t, boxes, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 10.0, boxes[0].X)
	assert.Equal(t, 1, boxes[1].ClassIndex)
}

func TestFileSource(t *testing.T) {
	imgDir := t.TempDir()
	predDir := t.TempDir()
	imagePath := filepath.Join(imgDir, "street.jpg")

	require.NoError(t, os.WriteFile(filepath.Join(predDir, "street.json"), []byte(samplePayload), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(imgDir, "street.json"), []byte(`{"predictions": []}`), 0600))

	ctx := context.Background()

	batch, err := NewFileSource(predDir).Predict(ctx, imagePath)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Count())
	assert.Equal(t, 200, batch.Predictions[0].ImageWidth)

	sidecar, err := NewFileSource("").Predict(ctx, imagePath)
	require.NoError(t, err)
	assert.Zero(t, sidecar.Count())

	_, err = NewFileSource(predDir).Predict(ctx, filepath.Join(imgDir, "other.png"))
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestFileSource_PathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("/imgs", "a.b.json"), NewFileSource("").PathFor("/imgs/a.b.png"))
	assert.Equal(t, filepath.Join("/preds", "a.json"), NewFileSource("/preds").PathFor("/imgs/a.jpg"))
}
