package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

// GetClasses returns the class list in index order.
func (s *SQLiteStorage) GetClasses(ctx context.Context) ([]model.Class, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getClassesTx(ctx, s.db)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getClassesTx(ctx context.Context, q queryer) ([]model.Class, error) {
	query := `
		SELECT name, instructions
		FROM classes
		ORDER BY position`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	classes := []model.Class{}
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.Name, &c.Instructions); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classes: %w", err)
	}

	slog.Debug("retrieved classes", "count", len(classes))
	return classes, nil
}

// AddClass appends a class and returns the new list.
func (s *SQLiteStorage) AddClass(ctx context.Context, name string) ([]model.Class, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "class name"); err != nil {
		return nil, err
	}

	var classes []model.Class
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getClassesTx(ctx, tx)
		if err != nil {
			return err
		}
		if model.FindClass(current, name) >= 0 {
			return fmt.Errorf("class %q: %w", name, common.ErrDuplicateEntry)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classes (position, name, instructions) VALUES (?, ?, '')`,
			len(current), name); err != nil {
			return fmt.Errorf("failed to insert class: %w", err)
		}

		classes = append(current, model.Class{Name: name})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("added class", "name", name, "index", len(classes)-1)
	return classes, nil
}

// RenameClass changes a class name, keeping its instructions.
func (s *SQLiteStorage) RenameClass(ctx context.Context, index int, name string) ([]model.Class, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "class name"); err != nil {
		return nil, err
	}

	var classes []model.Class
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getClassesTx(ctx, tx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(current) {
			return fmt.Errorf("class index %d: %w", index, common.ErrNotFound)
		}
		if existing := model.FindClass(current, name); existing >= 0 && existing != index {
			return fmt.Errorf("class %q: %w", name, common.ErrDuplicateEntry)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE classes SET name = ? WHERE position = ?`, name, index); err != nil {
			return fmt.Errorf("failed to rename class: %w", err)
		}

		current[index].Name = name
		classes = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return classes, nil
}

// UpdateClassInstructions replaces the annotation instructions of a class.
func (s *SQLiteStorage) UpdateClassInstructions(ctx context.Context, index int, instructions string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE classes SET instructions = ? WHERE position = ?`, instructions, index)
	if err != nil {
		return fmt.Errorf("failed to update class instructions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("class index %d: %w", index, common.ErrNotFound)
	}
	return nil
}

// DeleteClass removes a class and reindexes every stored box in the same
// transaction: boxes of the deleted class become class 0 and later classes
// shift down by one. The last remaining class cannot be deleted.
func (s *SQLiteStorage) DeleteClass(ctx context.Context, index int) ([]model.Class, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var classes []model.Class
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getClassesTx(ctx, tx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(current) {
			return fmt.Errorf("class index %d: %w", index, common.ErrNotFound)
		}
		if len(current) <= 1 {
			return common.ErrLastClass
		}

		queries := []struct {
			query string
			args  []any
		}{
			{`DELETE FROM classes WHERE position = ?`, []any{index}},
			// Two passes so the primary key never collides mid-update.
			{`UPDATE classes SET position = -position WHERE position > ?`, []any{index}},
			{`UPDATE classes SET position = -position - 1 WHERE position < 0`, nil},
			{`UPDATE annotations SET class_index = CASE
				WHEN class_index = ? THEN 0
				WHEN class_index > ? THEN class_index - 1
				ELSE class_index END`, []any{index, index}},
		}
		for _, q := range queries {
			if _, err := tx.ExecContext(ctx, q.query, q.args...); err != nil {
				return fmt.Errorf("failed to delete class: %w", err)
			}
		}

		classes = append(current[:index:index], current[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deleted class", "index", index, "remaining", len(classes))
	return classes, nil
}
