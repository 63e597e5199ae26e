package dataset

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ExportZip exports the dataset into a scratch directory and packs it into
// dest as a deflated zip archive. The scratch directory is removed.
func (e *Exporter) ExportZip(ctx context.Context, dest string) (*Summary, error) {
	scratch, err := os.MkdirTemp("", "yolo_dataset-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	summary, err := e.Export(ctx, scratch)
	if err != nil {
		return summary, err
	}
	if err := ZipDir(scratch, dest); err != nil {
		return summary, err
	}
	summary.Dir = dest
	return summary, nil
}

// ZipDir writes every file under dir into a zip at dest, with paths relative
// to dir.
func ZipDir(dir, dest string) (err error) {
	if mkErr := os.MkdirAll(filepath.Dir(dest), 0750); mkErr != nil {
		return fmt.Errorf("failed to create archive directory: %w", mkErr)
	}
	f, err := os.Create(dest) //nolint:gosec // caller chooses the archive path
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close archive: %w", closeErr)
		}
	}()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		src, err := os.Open(path) //nolint:gosec // walking our own scratch tree
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to write archive: %w", walkErr)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
