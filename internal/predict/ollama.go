package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// maxModelDim bounds the longer image side sent to the model.
const maxModelDim = 1024

type chatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaSource asks an Ollama vision model for detections.
type OllamaSource struct {
	client  chatClient
	model   string
	classes []model.Class
	timeout time.Duration
}

// NewOllamaSource creates a source talking to the Ollama server at
// ollamaURL. Any path on the URL is ignored.
func NewOllamaSource(ollamaURL, modelName string, classes []model.Class, timeout time.Duration) (*OllamaSource, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: ollama url %q", common.ErrInvalidConfig, ollamaURL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaSource{
		client:  api.NewClient(base, http.DefaultClient),
		model:   modelName,
		classes: classes,
		timeout: timeout,
	}, nil
}

// Predict implements Predictor.
func (s *OllamaSource) Predict(ctx context.Context, imagePath string) (model.PredictionBatch, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return model.PredictionBatch{}, fmt.Errorf("failed to open image: %w", err)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width > maxModelDim || height > maxModelDim {
		if width >= height {
			img = imaging.Resize(img, maxModelDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxModelDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return model.PredictionBatch{}, fmt.Errorf("failed to encode image: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: s.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: Prompt(s.classes),
			Images:  []api.ImageData{buf.Bytes()},
		}},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": 0,
		},
	}

	var content string
	err = s.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return model.PredictionBatch{}, fmt.Errorf("ollama chat error: %w", err)
	}

	result, err := ParseModelResult(content)
	if err != nil {
		return model.PredictionBatch{}, err
	}
	result.ImagePath = imagePath
	result.ImageWidth = width
	result.ImageHeight = height

	slog.Debug("ollama predictions", "image", imagePath, "model", s.model, "boxes", len(result.Boxes))
	return model.PredictionBatch{Predictions: []model.PredictionResult{result}}, nil
}

// Prompt builds the detection instructions for a class list.
func Prompt(classes []model.Class) string {
	var sb strings.Builder
	sb.WriteString("Detect every object of the following classes in the image.\n")
	sb.WriteString("Classes:\n")
	for i, c := range classes {
		fmt.Fprintf(&sb, "%d. %s", i, c.Name)
		if c.Instructions != "" {
			fmt.Fprintf(&sb, " (%s)", c.Instructions)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(`Answer with JSON only, in this shape:
{"boxes":[{"name":"<class name>","confidence":0.0,"x_center":0.0,"y_center":0.0,"width":0.0,"height":0.0}]}
Coordinates are fractions of the image width and height between 0 and 1.
Use an empty boxes array when nothing is found.`)
	return sb.String()
}

// ParseModelResult extracts detections from a model reply.
func ParseModelResult(raw string) (model.PredictionResult, error) {
	cleaned := SanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return model.PredictionResult{}, fmt.Errorf("%w: model reply is not JSON", common.ErrMalformedPayload)
	}

	var result model.PredictionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	if result.Boxes == nil {
		result.Boxes = []model.PredictionBox{}
	}
	return result, nil
}

var (
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// SanitizeModelJSON removes code fences, comments, and trailing commas from
// a model reply and keeps the outermost object.
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = blockComment.ReplaceAllString(raw, "")
	raw = lineComment.ReplaceAllString(raw, "")
	raw = trailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
