// Package dataset writes YOLO training datasets and backups from the store.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

// Directory and file names inside an exported dataset.
const (
	ImagesDir  = "images"
	LabelsDir  = "labels"
	ConfigFile = "dataset.yaml"
	ZipName    = "yolo_dataset.zip"
)

// Source is the part of the store an export reads.
type Source interface {
	GetClasses(ctx context.Context) ([]model.Class, error)
	ListImages(ctx context.Context, filter service.ImageFilter) ([]model.ImageFile, error)
	GetAnnotations(ctx context.Context, imageName string) (model.AnnotationRecord, error)
}

// ImageLocator resolves an image name to a file on disk.
type ImageLocator interface {
	Path(name string) (string, error)
}

// Config is the dataset.yaml consumed by YOLO trainers. Train and val point
// at the same folder.
type Config struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Names []string `yaml:"names"`
	NC    int      `yaml:"nc"`
}

// NewConfig builds the dataset config for a class list.
func NewConfig(classes []model.Class) Config {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return Config{
		Path:  "./",
		Train: ImagesDir,
		Val:   ImagesDir,
		NC:    len(names),
		Names: names,
	}
}

// Summary describes a finished export.
type Summary struct {
	Dir     string
	Images  int
	Labels  int
	Boxes   int
	Missing []string
}

// Exporter writes datasets.
type Exporter struct {
	source   Source
	images   ImageLocator
	progress func(total int) cli.Progress
	filter   service.ImageFilter
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithFilter limits the export to images matching the filter.
func WithFilter(f service.ImageFilter) Option {
	return func(e *Exporter) {
		e.filter = f
	}
}

// WithProgress reports per-image progress to w.
func WithProgress(w io.Writer) Option {
	return func(e *Exporter) {
		e.progress = func(total int) cli.Progress {
			return cli.NewProgressBar(w, total, "Exporting dataset...")
		}
	}
}

// NewExporter creates an exporter reading boxes from source and image files
// from images.
func NewExporter(source Source, images ImageLocator, opts ...Option) *Exporter {
	e := &Exporter{
		source:   source,
		images:   images,
		progress: func(int) cli.Progress { return cli.NopProgress() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes images/, labels/ and dataset.yaml under dir. Every listed
// image gets a label file, empty when it has no boxes. Images whose file is
// missing are skipped and reported in the summary.
func (e *Exporter) Export(ctx context.Context, dir string) (*Summary, error) {
	classes, err := e.source.GetClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}
	images, err := e.source.ListImages(ctx, e.filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	for _, sub := range []string{ImagesDir, LabelsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0750); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	summary := &Summary{Dir: dir}
	bar := e.progress(len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := e.exportImage(ctx, dir, img, summary); err != nil {
			return summary, err
		}
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
	if err := bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}

	if err := WriteConfig(filepath.Join(dir, ConfigFile), NewConfig(classes)); err != nil {
		return summary, err
	}

	slog.Info("exported dataset",
		"dir", dir,
		"images", summary.Images,
		"boxes", summary.Boxes,
		"missing", len(summary.Missing))
	return summary, nil
}

func (e *Exporter) exportImage(ctx context.Context, dir string, img model.ImageFile, summary *Summary) error {
	src, err := e.images.Path(img.Name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		slog.Warn("image file missing, skipped", "image", img.Name, "error", err)
		summary.Missing = append(summary.Missing, img.Name)
		return nil
	}
	if err := copyFile(src, filepath.Join(dir, ImagesDir, img.Name)); err != nil {
		return err
	}
	summary.Images++

	rec, err := e.source.GetAnnotations(ctx, img.Name)
	if err != nil {
		return fmt.Errorf("failed to load annotations for %s: %w", img.Name, err)
	}
	if err := WriteLabels(filepath.Join(dir, LabelsDir), img.Name, rec); err != nil {
		return err
	}
	summary.Labels++
	summary.Boxes += len(rec.Boxes)
	return nil
}

// WriteLabels writes the YOLO label file of one image into dir.
func WriteLabels(dir, imageName string, rec model.AnnotationRecord) error {
	text := model.FormatYOLO(rec)
	if text != "" {
		text += "\n"
	}
	path := filepath.Join(dir, model.Stem(imageName)+".txt")
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("failed to write labels for %s: %w", imageName, err)
	}
	return nil
}

// WriteConfig writes a dataset.yaml file.
func WriteConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode dataset config: %w", err)
	}
	data = append([]byte("# YOLO dataset configuration\n"), data...)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write dataset config: %w", err)
	}
	return nil
}

// ReadConfig reads a dataset.yaml file.
func ReadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path) //nolint:gosec // caller chooses the dataset
	if err != nil {
		return cfg, fmt.Errorf("failed to read dataset config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse dataset config: %w", err)
	}
	return cfg, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src comes from the image library
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // dst is inside the export directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
