// Package testutil provides shared fixtures for tests: migrated stores seeded
// with classes and annotations, and small on-disk images.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Annotations map[string]model.AnnotationRecord
	// Classes are added after the seeded "Class 0".
	Classes []string
	Images  []model.ImageFile
}

// SetupTestDB creates a migrated in-memory database with the given extra
// classes. Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, "Person", "Car")
//	classes := db.MustClasses() // Class 0, Person, Car
func SetupTestDB(t *testing.T, classes ...string) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Classes: classes})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, name := range opts.Classes {
		if _, err := store.AddClass(ctx, name); err != nil {
			t.Fatalf("failed to seed class %q: %v", name, err)
		}
	}
	for _, img := range opts.Images {
		if err := store.RegisterImage(ctx, img); err != nil {
			t.Fatalf("failed to seed image %q: %v", img.Name, err)
		}
	}
	for name, rec := range opts.Annotations {
		if err := store.SaveAnnotations(ctx, name, rec); err != nil {
			t.Fatalf("failed to seed annotations for %q: %v", name, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustClasses returns the stored class list or fails the test.
func (db *TestDB) MustClasses() []model.Class {
	db.t.Helper()
	classes, err := db.Storage.GetClasses(context.Background())
	if err != nil {
		db.t.Fatalf("failed to get classes: %v", err)
	}
	return classes
}

// MustAnnotations returns the stored record of an image or fails the test.
func (db *TestDB) MustAnnotations(image string) model.AnnotationRecord {
	db.t.Helper()
	rec, err := db.Storage.GetAnnotations(context.Background(), image)
	if err != nil {
		db.t.Fatalf("failed to get annotations for %q: %v", image, err)
	}
	return rec
}
