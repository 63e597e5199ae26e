package dataset

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/imagestore"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
	"github.com/Veraticus/yolo-labeler/internal/testutil"
)

type fixture struct {
	db  *testutil.TestDB
	lib *imagestore.Library
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	imgDir := t.TempDir()
	testutil.WriteImage(t, imgDir, "a.png", 20, 10)
	testutil.WriteImage(t, imgDir, "b.png", 20, 10)

	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Classes: []string{"Person"},
		Images: []model.ImageFile{
			{Name: "a.png", Width: 20, Height: 10},
			{Name: "b.png", Width: 20, Height: 10},
			{Name: "gone.png", Width: 20, Height: 10},
		},
		Annotations: map[string]model.AnnotationRecord{
			"a.png": testutil.Record(0, 1),
		},
	})
	require.NoError(t, db.Storage.SetFileStatus(context.Background(), "b.png", model.StatusDone))

	return fixture{db: db, lib: imagestore.NewLibrary(imgDir, db.Storage)}
}

func TestExporter_Export(t *testing.T) {
	f := newFixture(t)
	out := t.TempDir()

	summary, err := NewExporter(f.db.Storage, f.lib).Export(context.Background(), out)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Images)
	assert.Equal(t, 2, summary.Labels)
	assert.Equal(t, 2, summary.Boxes)
	assert.Equal(t, []string{"gone.png"}, summary.Missing)

	labels, err := os.ReadFile(filepath.Join(out, LabelsDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatYOLO(testutil.Record(0, 1))+"\n", string(labels))

	empty, err := os.ReadFile(filepath.Join(out, LabelsDir, "b.txt"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = os.Stat(filepath.Join(out, ImagesDir, "a.png"))
	assert.NoError(t, err)

	cfg, err := ReadConfig(filepath.Join(out, ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, Config{Path: "./", Train: "images", Val: "images", NC: 2, Names: []string{"Class 0", "Person"}}, cfg)
}

func TestExporter_Filter(t *testing.T) {
	f := newFixture(t)
	out := t.TempDir()

	filter := service.ImageFilter{Statuses: []model.FileStatus{model.StatusDone}}
	summary, err := NewExporter(f.db.Storage, f.lib, WithFilter(filter)).Export(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Images)

	entries, err := os.ReadDir(filepath.Join(out, ImagesDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.png", entries[0].Name())
}

func TestExporter_ExportZip(t *testing.T) {
	f := newFixture(t)
	dest := filepath.Join(t.TempDir(), ZipName)

	summary, err := NewExporter(f.db.Storage, f.lib).ExportZip(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, dest, summary.Dir)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, file := range zr.File {
		names = append(names, file.Name)
		assert.Equal(t, zip.Deflate, file.Method)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"dataset.yaml",
		"images/a.png",
		"images/b.png",
		"labels/a.txt",
		"labels/b.txt",
	}, names)
}

func TestExporter_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExporter(f.db.Storage, f.lib).Export(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackup(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	ctx := context.Background()

	info, err := Backup(ctx, root, f.db.Storage, f.db.Storage, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "backup-20260304-050607"), info.Dir)
	assert.Equal(t, 3, info.Labels)

	_, err = os.Stat(info.DBPath)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(info.Dir, LabelsDir, "gone.txt"))
	assert.NoError(t, err)

	_, err = Backup(ctx, root, f.db.Storage, f.db.Storage, now)
	assert.Error(t, err, "same timestamp twice")
}

func TestImportLabels(t *testing.T) {
	db := testutil.SetupTestDB(t, "Person")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1 0.5 0.5 0.2 0.2\nbad line\n0 0.1 0.1 0.1 0.1\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("0 0.5 0.5 0.2 0.2\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0600))

	imported, orphans, err := ImportLabels(context.Background(), dir, []string{"a.jpg", "b.jpg"}, db.Storage)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, []string{"stray.txt"}, orphans)

	rec := db.MustAnnotations("a.jpg")
	require.Len(t, rec.Boxes, 2)
	assert.Equal(t, 1, rec.Boxes[0].Class)
	assert.Equal(t, 0, rec.Boxes[1].Class)
}
