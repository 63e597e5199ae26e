package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/jpeg"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/testutil"
)

type fakeChat struct {
	err     error
	req     *api.ChatRequest
	replies []string
}

func (f *fakeChat) Chat(_ context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	f.req = req
	if f.err != nil {
		return f.err
	}
	for _, r := range f.replies {
		if err := fn(api.ChatResponse{Message: api.Message{Content: r}}); err != nil {
			return err
		}
	}
	return nil
}

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"boxes":[]}`, want: `{"boxes":[]}`},
		{name: "fenced", in: "```json\n{\"boxes\":[]}\n```", want: `{"boxes":[]}`},
		{name: "prose around", in: "Here you go: {\"boxes\":[]} hope it helps", want: `{"boxes":[]}`},
		{name: "trailing comma", in: `{"boxes":[{"name":"a"},]}`, want: `{"boxes":[{"name":"a"}]}`},
		{name: "block comment", in: `{/* note */"boxes":[]}`, want: `{"boxes":[]}`},
		{name: "line comment", in: "{\n// found nothing\n\"boxes\":[]\n}", want: "{\n\n\"boxes\":[]\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeModelJSON(tt.in))
		})
	}
}

func TestParseModelResult(t *testing.T) {
	result, err := ParseModelResult("```json\n{\"boxes\":[{\"name\":\"Person\",\"confidence\":0.8,\"x_center\":0.5,\"y_center\":0.5,\"width\":0.1,\"height\":0.2},]}\n```")
	require.NoError(t, err)
	require.Len(t, result.Boxes, 1)
	assert.Equal(t, "Person", *result.Boxes[0].Name)

	empty, err := ParseModelResult(`{}`)
	require.NoError(t, err)
	assert.NotNil(t, empty.Boxes)

	_, err = ParseModelResult("I can see a person.")
	assert.ErrorIs(t, err, common.ErrMalformedPayload)
}

func TestPrompt(t *testing.T) {
	p := Prompt([]model.Class{{Name: "Class 0"}, {Name: "Person", Instructions: "include partially hidden people"}})
	assert.Contains(t, p, "0. Class 0\n")
	assert.Contains(t, p, "1. Person (include partially hidden people)\n")
	assert.Contains(t, p, `"x_center"`)
}

func TestOllamaSource_Predict(t *testing.T) {
	imagePath := testutil.WriteImage(t, t.TempDir(), "wide.png", 2048, 512)
	fake := &fakeChat{replies: []string{`{"boxes":[{"name":"Person",`, `"x_center":0.5,"y_center":0.5,"width":0.25,"height":0.5}]}`}}
	src := &OllamaSource{client: fake, model: "llava", classes: []model.Class{{Name: "Class 0"}, {Name: "Person"}}}

	batch, err := src.Predict(context.Background(), imagePath)
	require.NoError(t, err)
	require.Len(t, batch.Predictions, 1)
	assert.Equal(t, 2048, batch.Predictions[0].ImageWidth)
	assert.Equal(t, 512, batch.Predictions[0].ImageHeight)

	boxes, skipped := model.ResolvePredictions(batch, src.classes, 2048, 512)
	assert.Zero(t, skipped)
	require.Len(t, boxes, 1)
	assert.Equal(t, 1, boxes[0].ClassIndex)
	assert.Equal(t, 768.0, boxes[0].X)
	assert.True(t, boxes[0].Predicted)

	require.NotNil(t, fake.req)
	assert.Equal(t, "llava", fake.req.Model)
	assert.Equal(t, json.RawMessage(`"json"`), fake.req.Format)
	require.Len(t, fake.req.Messages[0].Images, 1)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(fake.req.Messages[0].Images[0]))
	require.NoError(t, err)
	assert.Equal(t, maxModelDim, cfg.Width, "long side is scaled down")
	assert.Equal(t, 256, cfg.Height)
}

func TestOllamaSource_Errors(t *testing.T) {
	imagePath := testutil.WriteImage(t, t.TempDir(), "a.png", 8, 8)
	ctx := context.Background()

	src := &OllamaSource{client: &fakeChat{err: errors.New("connection refused")}, model: "llava"}
	_, err := src.Predict(ctx, imagePath)
	assert.ErrorContains(t, err, "connection refused")

	src = &OllamaSource{client: &fakeChat{replies: []string{"no idea"}}, model: "llava"}
	_, err = src.Predict(ctx, imagePath)
	assert.ErrorIs(t, err, common.ErrMalformedPayload)

	_, err = src.Predict(ctx, "/does/not/exist.png")
	assert.Error(t, err)
}

func TestNewOllamaSource(t *testing.T) {
	src, err := NewOllamaSource("http://localhost:11434/api/chat", "llava", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "llava", src.model)

	_, err = NewOllamaSource("localhost", "llava", nil, 0)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
