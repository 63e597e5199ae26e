package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_SchemaVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	classes, err := store.GetClasses(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1, "default class must be seeded exactly once")
	assert.Equal(t, defaultClassName, classes[0].Name)
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, name := range []string{"idx_annotations_class", "idx_images_status"} {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='index' AND name=?`, name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s missing", name)
	}
}

func TestMigrate_StatusConstraint(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.db.Exec(`INSERT INTO images (name, status) VALUES ('x.jpg', 'LATER')`)
	assert.Error(t, err)
}

func TestMigrate_AnnotationsCascade(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveAnnotations(ctx, "a.jpg", record(0, 0)))
	_, err := store.db.ExecContext(ctx, `DELETE FROM images WHERE name = 'a.jpg'`)
	require.NoError(t, err)

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM annotations`).Scan(&count))
	assert.Zero(t, count)
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}
