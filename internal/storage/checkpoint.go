package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoCheckpoints is how many automatic checkpoints are kept.
const maxAutoCheckpoints = 5

const (
	checkpointExt = ".db"
	metadataExt   = ".meta.json"
)

// Common errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrInvalidCheckpointID = errors.New("invalid checkpoint ID: cannot contain path separators")
)

// CheckpointManager snapshots the annotation database so destructive edits
// such as class deletion can be undone. Checkpoints live in a checkpoints/
// directory next to the database, one snapshot plus a JSON metadata file
// each.
type CheckpointManager struct {
	store *SQLiteStorage
	dir   string
	now   func() time.Time
}

// CheckpointMetadata is the sidecar written next to each snapshot.
type CheckpointMetadata struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// CheckpointInfo represents information about a checkpoint for listing.
type CheckpointInfo struct {
	CreatedAt     time.Time
	ID            string
	Description   string
	FileSize      int64
	Images        int
	Classes       int
	Annotations   int
	SchemaVersion int
	IsAuto        bool
}

// NewCheckpointManager creates a checkpoint manager for a file-backed store.
func NewCheckpointManager(store *SQLiteStorage) (*CheckpointManager, error) {
	if store == nil || store.dbPath == ":memory:" {
		return nil, errors.New("checkpoints need a file-backed database")
	}
	absPath, err := filepath.Abs(store.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	dir := filepath.Join(filepath.Dir(absPath), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{store: store, dir: dir, now: time.Now}, nil
}

// Create snapshots the database under tag. An empty tag is generated from
// the current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	if tag == "" {
		tag = cm.uniqueTag("checkpoint")
	}
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint snapshots the database before an operation named by prefix
// and prunes automatic checkpoints beyond the newest few.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, prefix string) error {
	tag := cm.uniqueTag("auto-" + prefix)
	if _, err := cm.create(ctx, tag, "Automatic checkpoint before "+prefix, true); err != nil {
		return fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return nil
}

// uniqueTag stamps base with the current time, adding a counter when a
// checkpoint with that name already exists.
func (cm *CheckpointManager) uniqueTag(base string) string {
	tag := fmt.Sprintf("%s-%s", base, cm.now().Format("2006-01-02-150405"))
	candidate := tag
	for n := 2; cm.exists(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d", tag, n)
	}
	return candidate
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if err := validateCheckpointID(tag); err != nil {
		return nil, err
	}
	if cm.exists(tag) {
		return nil, ErrCheckpointExists
	}

	version, err := cm.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := cm.rowCounts(ctx)
	if err != nil {
		return nil, err
	}

	path := cm.snapshotPath(tag)
	if err := cm.store.SnapshotTo(ctx, path); err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	meta := CheckpointMetadata{
		ID:            tag,
		CreatedAt:     cm.now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     counts,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeMetadata(cm.metadataPath(tag), meta); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Error("failed to remove checkpoint after metadata failure", "error", rmErr)
		}
		return nil, err
	}

	// The sidecar is authoritative; the table row only mirrors it.
	if err := cm.recordMetadata(ctx, meta); err != nil {
		slog.Warn("failed to store checkpoint metadata in database", "error", err)
	}

	slog.Info("created checkpoint", "id", tag, "auto", auto, "size", meta.FileSize)
	info := meta.info()
	return &info, nil
}

// List returns all checkpoints, newest first. Unreadable metadata files are
// skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metadataExt) {
			continue
		}
		meta, err := readMetadata(filepath.Join(cm.dir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, meta.info())
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// GetCheckpointInfo retrieves information about a specific checkpoint.
func (cm *CheckpointManager) GetCheckpointInfo(_ context.Context, checkpointID string) (*CheckpointInfo, error) {
	if err := validateCheckpointID(checkpointID); err != nil {
		return nil, err
	}
	meta, err := readMetadata(cm.metadataPath(checkpointID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}
	info := meta.info()
	return &info, nil
}

// Restore replaces the database file with a checkpoint. The store's
// connection is closed first and the store must be reopened afterwards.
func (cm *CheckpointManager) Restore(ctx context.Context, checkpointID string) error {
	if _, err := cm.GetCheckpointInfo(ctx, checkpointID); err != nil {
		return err
	}
	src := cm.snapshotPath(checkpointID)
	if err := verifyIntegrity(ctx, src); err != nil {
		slog.Error("checkpoint failed integrity check", "id", checkpointID, "error", err)
		return ErrCheckpointCorrupted
	}

	if err := cm.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	dbPath := cm.store.dbPath
	backup := dbPath + ".restore-backup"
	if err := copyFile(dbPath, backup); err != nil {
		return fmt.Errorf("failed to backup current database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s file: %w", suffix, err)
		}
	}

	if err := copyFile(src, dbPath); err != nil {
		if restoreErr := copyFile(backup, dbPath); restoreErr != nil {
			slog.Error("failed to put back database after restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	if err := os.Remove(backup); err != nil {
		slog.Warn("failed to remove restore backup", "path", backup, "error", err)
	}
	slog.Info("restored checkpoint", "id", checkpointID)
	return nil
}

// Delete removes a checkpoint's snapshot and metadata.
func (cm *CheckpointManager) Delete(ctx context.Context, checkpointID string) error {
	if err := validateCheckpointID(checkpointID); err != nil {
		return err
	}
	if !cm.exists(checkpointID) {
		return ErrCheckpointNotFound
	}

	if err := os.Remove(cm.snapshotPath(checkpointID)); err != nil {
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metadataPath(checkpointID)); err != nil {
		slog.Debug("failed to remove metadata file", "id", checkpointID, "error", err)
	}
	if _, err := cm.store.db.ExecContext(ctx, "DELETE FROM checkpoint_metadata WHERE id = ?", checkpointID); err != nil {
		slog.Debug("failed to remove checkpoint metadata from database", "id", checkpointID, "error", err)
	}
	return nil
}

// pruneAuto deletes automatic checkpoints beyond the newest maxAutoCheckpoints.
func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept <= maxAutoCheckpoints {
			continue
		}
		if err := cm.Delete(ctx, cp.ID); err != nil {
			slog.Debug("failed to delete old auto-checkpoint", "id", cp.ID, "error", err)
		}
	}
	return nil
}

func (cm *CheckpointManager) snapshotPath(id string) string {
	return filepath.Join(cm.dir, id+checkpointExt)
}

func (cm *CheckpointManager) metadataPath(id string) string {
	return filepath.Join(cm.dir, id+metadataExt)
}

func (cm *CheckpointManager) exists(id string) bool {
	_, err := os.Stat(cm.snapshotPath(id))
	return err == nil
}

func (cm *CheckpointManager) rowCounts(ctx context.Context) (map[string]int, error) {
	queries := map[string]string{
		"images":      "SELECT COUNT(*) FROM images",
		"classes":     "SELECT COUNT(*) FROM classes",
		"annotations": "SELECT COUNT(*) FROM annotations",
	}

	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := cm.store.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (cm *CheckpointManager) recordMetadata(ctx context.Context, meta CheckpointMetadata) error {
	counts, err := json.Marshal(meta.RowCounts)
	if err != nil {
		return err
	}
	_, err = cm.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoint_metadata
		(id, created_at, description, file_size, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.CreatedAt, meta.Description, meta.FileSize, string(counts), meta.SchemaVersion, meta.IsAuto)
	return err
}

func (m CheckpointMetadata) info() CheckpointInfo {
	return CheckpointInfo{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		Description:   m.Description,
		FileSize:      m.FileSize,
		Images:        m.RowCounts["images"],
		Classes:       m.RowCounts["classes"],
		Annotations:   m.RowCounts["annotations"],
		SchemaVersion: m.SchemaVersion,
		IsAuto:        m.IsAuto,
	}
}

func validateCheckpointID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointID, id)
	}
	return nil
}

func writeMetadata(path string, meta CheckpointMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint metadata: %w", err)
	}
	return os.Rename(tmp, path)
}

func readMetadata(path string) (*CheckpointMetadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // inside the checkpoints directory
	if err != nil {
		return nil, err
	}
	var meta CheckpointMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// verifyIntegrity opens a snapshot read-only and runs PRAGMA integrity_check.
func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// copyFile copies src to dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // database and checkpoint paths
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp) //nolint:gosec // next to dst
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
