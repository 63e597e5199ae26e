package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

// Snapshotter writes a consistent copy of the database.
type Snapshotter interface {
	SnapshotTo(ctx context.Context, dest string) error
}

// BackupInfo describes a finished backup.
type BackupInfo struct {
	Dir    string
	DBPath string
	Labels int
}

// Backup writes a timestamped directory under root holding a database
// snapshot, a label file per image and dataset.yaml.
func Backup(ctx context.Context, root string, db Snapshotter, source Source, now time.Time) (*BackupInfo, error) {
	dir := filepath.Join(root, "backup-"+now.Format("20060102-150405"))
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("backup %s already exists", dir)
	}
	labelsDir := filepath.Join(dir, LabelsDir)
	if err := os.MkdirAll(labelsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	info := &BackupInfo{Dir: dir, DBPath: filepath.Join(dir, "labeler.db")}
	if err := db.SnapshotTo(ctx, info.DBPath); err != nil {
		return nil, err
	}

	classes, err := source.GetClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}
	if err := WriteConfig(filepath.Join(dir, ConfigFile), NewConfig(classes)); err != nil {
		return nil, err
	}

	images, err := source.ListImages(ctx, service.ImageFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		rec, err := source.GetAnnotations(ctx, img.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load annotations for %s: %w", img.Name, err)
		}
		if err := WriteLabels(labelsDir, img.Name, rec); err != nil {
			return nil, err
		}
		info.Labels++
	}

	slog.Info("created backup", "dir", dir, "labels", info.Labels)
	return info, nil
}

// LabelSink is the part of the store a label import writes to.
type LabelSink interface {
	SaveAnnotations(ctx context.Context, imageName string, rec model.AnnotationRecord) error
}

// ImportLabels reads every <stem>.txt in labelsDir and stores it against the
// image in images with the same stem. Label files without an image are
// returned as orphans.
func ImportLabels(ctx context.Context, labelsDir string, images []string, sink LabelSink) (imported int, orphans []string, err error) {
	byStem := make(map[string]string, len(images))
	for _, name := range images {
		byStem[model.Stem(name)] = name
	}

	entries, err := os.ReadDir(labelsDir)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read labels directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		stem := model.Stem(e.Name())
		image, ok := byStem[stem]
		if !ok {
			orphans = append(orphans, e.Name())
			continue
		}

		data, err := os.ReadFile(filepath.Join(labelsDir, e.Name())) //nolint:gosec // listing of labelsDir
		if err != nil {
			return imported, orphans, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		if err := sink.SaveAnnotations(ctx, image, model.ParseYOLO(string(data))); err != nil {
			return imported, orphans, err
		}
		imported++
	}

	sort.Strings(orphans)
	return imported, orphans, nil
}
