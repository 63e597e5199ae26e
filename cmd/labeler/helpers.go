package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/config"
	"github.com/Veraticus/yolo-labeler/internal/imagestore"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/predict"
	"github.com/Veraticus/yolo-labeler/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openWorkspace loads the config, opens the store and attaches the image
// library to it. The caller closes the store.
func openWorkspace(ctx context.Context) (config.Config, *storage.SQLiteStorage, *imagestore.Library, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, store, imagestore.NewLibrary(cfg.ImagesDir, store), nil
}

// newPredictor builds the prediction source named by source, falling back to
// the configured one when source is empty.
func newPredictor(cfg config.Config, source string, classes []model.Class) (predict.Predictor, error) {
	if source == "" {
		source = cfg.PredictSource
	}
	switch source {
	case config.SourceFile:
		return predict.NewFileSource(""), nil
	case config.SourceOllama:
		return predict.NewOllamaSource(cfg.OllamaURL, cfg.OllamaModel, classes, cfg.PredictTimeout)
	default:
		return nil, fmt.Errorf("unknown prediction source %q (want %s or %s)", source, config.SourceFile, config.SourceOllama)
	}
}

// parseClassIndex accepts a class index or a class name.
func parseClassIndex(classes []model.Class, arg string) (int, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 0 || idx >= len(classes) {
			return 0, fmt.Errorf("class index %d out of range (0-%d)", idx, len(classes)-1)
		}
		return idx, nil
	}
	if idx := model.FindClass(classes, arg); idx >= 0 {
		return idx, nil
	}
	return 0, fmt.Errorf("class %q not found", arg)
}

// confirm asks a yes/no question on in and reports whether the answer starts
// with y.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N) ", question)
	response, _ := bufio.NewReader(in).ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y")
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(now, t time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
