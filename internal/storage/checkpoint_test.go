package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

func seedCheckpointData(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	ctx := context.Background()

	_, err := store.AddClass(ctx, "Person")
	require.NoError(t, err)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		require.NoError(t, store.RegisterImage(ctx, model.ImageFile{Name: name, Width: 100, Height: 100}))
	}
	require.NoError(t, store.SaveAnnotations(ctx, "a.jpg", model.AnnotationRecord{Boxes: []model.YOLORecord{
		{Class: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.1, Height: 0.1},
		{Class: 1, XCenter: 0.2, YCenter: 0.2, Width: 0.1, Height: 0.1},
	}}))
}

func TestCheckpointManager_Create(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCheckpointData(t, store)

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		errType     error
		name        string
		tag         string
		description string
		wantErr     bool
	}{
		{
			name:        "Create checkpoint with tag",
			tag:         "test-checkpoint",
			description: "Test checkpoint",
		},
		{
			name:        "Create checkpoint without tag (auto-generated)",
			description: "Auto checkpoint",
		},
		{
			name:        "Create checkpoint with invalid tag (path traversal)",
			tag:         "../invalid",
			description: "Invalid checkpoint",
			wantErr:     true,
		},
		{
			name:        "Create duplicate checkpoint",
			tag:         "test-checkpoint",
			description: "Duplicate checkpoint",
			wantErr:     true,
			errType:     ErrCheckpointExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := manager.Create(ctx, tt.tag, tt.description)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, info)

			if tt.tag != "" {
				assert.Equal(t, tt.tag, info.ID)
			} else {
				assert.Contains(t, info.ID, "checkpoint-")
			}

			assert.Equal(t, tt.description, info.Description)
			assert.Greater(t, info.FileSize, int64(0))
			assert.Equal(t, 3, info.Images)
			assert.Equal(t, 2, info.Classes)
			assert.Equal(t, 2, info.Annotations)
			assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
			assert.False(t, info.IsAuto)

			checkpointPath := filepath.Join(filepath.Dir(store.Path()), "checkpoints", info.ID+".db")
			_, err = os.Stat(checkpointPath)
			assert.NoError(t, err)
		})
	}
}

func TestCheckpointManager_ListNewestFirst(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = manager.Create(ctx, "checkpoint-1", "First checkpoint")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = manager.Create(ctx, "checkpoint-2", "Second checkpoint")
	require.NoError(t, err)

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "checkpoint-2", checkpoints[0].ID)
	assert.Equal(t, "checkpoint-1", checkpoints[1].ID)
}

func TestCheckpointManager_RestoreUndoesClassDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCheckpointData(t, store)
	ctx := context.Background()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	_, err = manager.Create(ctx, "before-delete", "Before deleting Person")
	require.NoError(t, err)

	_, err = store.DeleteClass(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, manager.Restore(ctx, "before-delete"))

	reopened, err := NewSQLiteStorage(store.Path())
	require.NoError(t, err)
	defer reopened.Close()

	classes, err := reopened.GetClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Class{{Name: "Class 0"}, {Name: "Person"}}, classes)

	rec, err := reopened.GetAnnotations(ctx, "a.jpg")
	require.NoError(t, err)
	require.Len(t, rec.Boxes, 2)
	assert.Equal(t, 1, rec.Boxes[1].Class)

	assert.ErrorIs(t, manager.Restore(ctx, "non-existent"), ErrCheckpointNotFound)
}

func TestCheckpointManager_Delete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = manager.Create(ctx, "delete-test", "Checkpoint for delete test")
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "delete-test"))

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, checkpoints)

	assert.ErrorIs(t, manager.Delete(ctx, "non-existent"), ErrCheckpointNotFound)
}

func TestCheckpointManager_IntegrityCheck(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = manager.Create(ctx, "integrity-test", "Checkpoint for integrity test")
	require.NoError(t, err)

	checkpointPath := filepath.Join(filepath.Dir(store.Path()), "checkpoints", "integrity-test.db")
	require.NoError(t, os.WriteFile(checkpointPath, []byte("corrupted data"), 0600))

	assert.ErrorIs(t, manager.Restore(ctx, "integrity-test"), ErrCheckpointCorrupted)
}

func TestCheckpointManager_CleanupOldAutoCheckpoints(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < maxAutoCheckpoints+2; i++ {
		require.NoError(t, manager.AutoCheckpoint(ctx, fmt.Sprintf("test-%d", i)))
		time.Sleep(20 * time.Millisecond)
	}

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)

	autoCount := 0
	for _, cp := range checkpoints {
		if cp.IsAuto {
			autoCount++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, autoCount)
}

func TestNewCheckpointManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.NewCheckpointManager()
	assert.Error(t, err)

	_, err = NewCheckpointManager(nil)
	assert.Error(t, err)
}

func TestCheckpointManager_AutoCheckpointSameSecond(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	manager.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, manager.AutoCheckpoint(ctx, "class-delete"))
	require.NoError(t, manager.AutoCheckpoint(ctx, "class-delete"))

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	ids := []string{checkpoints[0].ID, checkpoints[1].ID}
	assert.ElementsMatch(t, []string{
		"auto-class-delete-2024-03-01-093000",
		"auto-class-delete-2024-03-01-093000-2",
	}, ids)
	for _, cp := range checkpoints {
		assert.True(t, cp.IsAuto)
		assert.Equal(t, "Automatic checkpoint before class-delete", cp.Description)
	}
}

func TestCheckpointManager_InvalidIDs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	manager, err := store.NewCheckpointManager()
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"../x", `a\b`, "a/b"} {
		_, err := manager.GetCheckpointInfo(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, manager.Delete(ctx, id), ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, manager.Restore(ctx, id), ErrInvalidCheckpointID, id)
	}

	_, err = manager.GetCheckpointInfo(ctx, "missing")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}
