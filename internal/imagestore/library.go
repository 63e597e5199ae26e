// Package imagestore manages the directory of images being annotated.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

// Errors returned by the library.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidName       = errors.New("invalid image name")
)

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Supported reports whether name has an image extension the library reads.
func Supported(name string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}

// Library is a directory of images registered in a store.
type Library struct {
	store service.Store
	dir   string
}

// NewLibrary creates a library rooted at dir.
func NewLibrary(dir string, store service.Store) *Library {
	return &Library{dir: dir, store: store}
}

// Dir returns the image directory.
func (l *Library) Dir() string {
	return l.dir
}

// Path resolves an image name inside the library directory.
func (l *Library) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !Supported(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return filepath.Join(l.dir, name), nil
}

// List returns the supported image files in the directory, sorted by name.
// A missing directory is an empty library.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Open decodes an image, applying its EXIF orientation.
func (l *Library) Open(name string) (image.Image, error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return img, nil
}

// Size reads the pixel size of an image without decoding the pixels.
func (l *Library) Size(name string) (int, int, error) {
	path, err := l.Path(name)
	if err != nil {
		return 0, 0, err
	}
	f, err := os.Open(path) //nolint:gosec // path is validated by Path
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read size of %s: %w", name, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Sync registers every image in the directory with the store and returns
// the number of files seen.
func (l *Library) Sync(ctx context.Context) (int, error) {
	names, err := l.List()
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := l.register(ctx, name); err != nil {
			return 0, err
		}
	}
	slog.Debug("synced image directory", "dir", l.dir, "images", len(names))
	return len(names), nil
}

func (l *Library) register(ctx context.Context, name string) error {
	w, h, err := l.Size(name)
	if err != nil {
		return err
	}
	return l.store.RegisterImage(ctx, model.ImageFile{Name: name, Width: w, Height: h})
}

// ImportResult summarises an import run.
type ImportResult struct {
	Skipped  map[string]error
	Imported []string
}

// Import copies files into the directory and registers them. Files that are
// not images, cannot be decoded, or would overwrite a different file are
// skipped and reported.
func (l *Library) Import(ctx context.Context, paths []string, progress cli.Progress) (*ImportResult, error) {
	if progress == nil {
		progress = cli.NopProgress()
	}
	if err := os.MkdirAll(l.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	result := &ImportResult{Skipped: make(map[string]error)}
	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := filepath.Base(src)
		if err := l.importOne(ctx, src, name); err != nil {
			slog.Warn("skipped image", "path", src, "error", err)
			result.Skipped[src] = err
		} else {
			result.Imported = append(result.Imported, name)
		}

		if err := progress.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	slog.Info("imported images", "imported", len(result.Imported), "skipped", len(result.Skipped))
	return result, progress.Finish()
}

func (l *Library) importOne(ctx context.Context, src, name string) error {
	dst, err := l.Path(name)
	if err != nil {
		return err
	}

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}

	if srcAbs != dstAbs {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("%s: %w", name, common.ErrDuplicateEntry)
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}

	if err := l.register(ctx, name); err != nil {
		if srcAbs != dstAbs {
			_ = os.Remove(dst)
		}
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // user supplied import path
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // dst is validated by Path
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy image: %w", err)
	}
	return out.Close()
}
