package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

// RegisterImage records an image, or refreshes its size if already known.
// The review status of a known image is left alone.
func (s *SQLiteStorage) RegisterImage(ctx context.Context, img model.ImageFile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImage(img); err != nil {
		return err
	}

	status := img.Status
	if status == "" {
		status = model.StatusInProgress
	}

	query := `
		INSERT INTO images (name, width, height, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			updated_at = excluded.updated_at`

	now := time.Now()
	if _, err := s.db.ExecContext(ctx, query, img.Name, img.Width, img.Height, string(status), now, now); err != nil {
		return fmt.Errorf("failed to register image: %w", err)
	}

	slog.Debug("registered image", "name", img.Name, "width", img.Width, "height", img.Height)
	return nil
}

// GetImage returns one image with its per-class box counts.
func (s *SQLiteStorage) GetImage(ctx context.Context, name string) (*model.ImageFile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateImageName(name); err != nil {
		return nil, err
	}

	query := `
		SELECT name, width, height, status, updated_at
		FROM images
		WHERE name = ?`

	var img model.ImageFile
	var status string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&img.Name, &img.Width, &img.Height, &status, &img.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query image: %w", err)
	}
	img.Status = model.FileStatus(status)

	counts, err := s.boxCounts(ctx)
	if err != nil {
		return nil, err
	}
	img.BoxCounts = counts[img.Name]
	if img.BoxCounts == nil {
		img.BoxCounts = map[string]int{}
	}

	return &img, nil
}

// ListImages returns images ordered by name, filtered by status.
func (s *SQLiteStorage) ListImages(ctx context.Context, filter service.ImageFilter) ([]model.ImageFile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT name, width, height, status, updated_at FROM images`
	var args []any
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []model.ImageFile
	for rows.Next() {
		var img model.ImageFile
		var status string
		if err := rows.Scan(&img.Name, &img.Width, &img.Height, &status, &img.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.Status = model.FileStatus(status)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	counts, err := s.boxCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].BoxCounts = counts[images[i].Name]
		if images[i].BoxCounts == nil {
			images[i].BoxCounts = map[string]int{}
		}
	}

	slog.Debug("retrieved images", "count", len(images))
	return images, nil
}

// boxCounts tallies stored boxes per image and class name.
func (s *SQLiteStorage) boxCounts(ctx context.Context) (map[string]map[string]int, error) {
	classes, err := s.GetClasses(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT image_name, class_index, COUNT(*)
		FROM annotations
		GROUP BY image_name, class_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to count annotations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var name string
		var classIdx, n int
		if err := rows.Scan(&name, &classIdx, &n); err != nil {
			return nil, fmt.Errorf("failed to scan annotation count: %w", err)
		}
		if counts[name] == nil {
			counts[name] = make(map[string]int)
		}
		counts[name][model.ClassName(classes, classIdx)] += n
	}
	return counts, rows.Err()
}

// SetFileStatus changes the review status of an image, registering the
// image if it is not known yet.
func (s *SQLiteStorage) SetFileStatus(ctx context.Context, name string, status model.FileStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImageName(name); err != nil {
		return err
	}
	if _, err := model.ParseFileStatus(string(status)); err != nil {
		return err
	}

	query := `
		INSERT INTO images (name, status, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, name, string(status), time.Now()); err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}

	slog.Info("updated file status", "image", name, "status", status)
	return nil
}

// GetFileStatuses returns the status of every known image.
func (s *SQLiteStorage) GetFileStatuses(ctx context.Context) (map[string]model.FileStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, status FROM images`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]model.FileStatus)
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("failed to scan file status: %w", err)
		}
		statuses[name] = model.FileStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file statuses: %w", err)
	}
	return statuses, nil
}

// Stats summarises images and annotations in the store.
func (s *SQLiteStorage) Stats(ctx context.Context) (*service.Stats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	stats := &service.Stats{
		ByStatus: make(map[model.FileStatus]int),
		ByClass:  make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM images GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan image count: %w", err)
		}
		stats.ByStatus[model.FileStatus(status)] = n
		stats.Images += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image counts: %w", err)
	}

	counts, err := s.boxCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, perClass := range counts {
		for name, n := range perClass {
			stats.ByClass[name] += n
			stats.Annotations += n
		}
	}
	return stats, nil
}
