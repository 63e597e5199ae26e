package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

// GetAnnotations returns the stored boxes of an image in their saved order.
// An image without annotations yields an empty record.
func (s *SQLiteStorage) GetAnnotations(ctx context.Context, imageName string) (model.AnnotationRecord, error) {
	rec := model.AnnotationRecord{Boxes: []model.YOLORecord{}}
	if err := validateContext(ctx); err != nil {
		return rec, err
	}
	if err := validateImageName(imageName); err != nil {
		return rec, err
	}

	query := `
		SELECT class_index, x_center, y_center, width, height
		FROM annotations
		WHERE image_name = ?
		ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, imageName)
	if err != nil {
		return rec, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b model.YOLORecord
		if err := rows.Scan(&b.Class, &b.XCenter, &b.YCenter, &b.Width, &b.Height); err != nil {
			return rec, fmt.Errorf("failed to scan annotation: %w", err)
		}
		rec.Boxes = append(rec.Boxes, b)
	}
	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("error iterating annotations: %w", err)
	}

	return rec, nil
}

// SaveAnnotations replaces every stored box of an image. Saving is
// last-writer-wins.
func (s *SQLiteStorage) SaveAnnotations(ctx context.Context, imageName string, rec model.AnnotationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImageName(imageName); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var classCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&classCount); err != nil {
			return fmt.Errorf("failed to count classes: %w", err)
		}
		if err := validateClassRange(rec, classCount); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO images (name, updated_at) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
			imageName, now); err != nil {
			return fmt.Errorf("failed to touch image: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE image_name = ?`, imageName); err != nil {
			return fmt.Errorf("failed to clear annotations: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO annotations (image_name, position, class_index, x_center, y_center, width, height)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() {
			if closeErr := stmt.Close(); closeErr != nil {
				slog.Error("failed to close statement", "error", closeErr)
			}
		}()

		for i, b := range rec.Boxes {
			if _, err := stmt.ExecContext(ctx, imageName, i, b.Class, b.XCenter, b.YCenter, b.Width, b.Height); err != nil {
				return fmt.Errorf("failed to insert annotation %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("saved annotations", "image", imageName, "boxes", len(rec.Boxes))
	return nil
}
