package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

// Prediction sources.
const (
	SourceFile   = "file"
	SourceOllama = "ollama"
)

// Config holds the typed application settings.
type Config struct {
	DatabasePath   string
	ImagesDir      string
	ExportDir      string
	BackupDir      string
	LogLevel       string
	LogFormat      string
	PredictSource  string
	OllamaURL      string
	OllamaModel    string
	PredictTimeout time.Duration
	Mouse          bool
	Theme          string
}

// SetDefaults registers default values for every key Load reads.
func SetDefaults(v *viper.Viper) {
	data := DataDir()
	v.SetDefault("database.path", filepath.Join(data, "labeler.db"))
	v.SetDefault("images.dir", filepath.Join(data, "images"))
	v.SetDefault("export.dir", "./yolo_dataset")
	v.SetDefault("backup.dir", filepath.Join(data, "backups"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("predict.source", SourceFile)
	v.SetDefault("predict.ollama_url", "http://localhost:11434")
	v.SetDefault("predict.model", "llava")
	v.SetDefault("predict.timeout", "2m")
	v.SetDefault("tui.mouse", true)
	v.SetDefault("tui.theme", "default")
}

// Load reads settings from the global viper instance.
func Load() (Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper reads settings from v, expanding paths and validating enums.
func FromViper(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		DatabasePath:   ExpandPath(v.GetString("database.path")),
		ImagesDir:      ExpandPath(v.GetString("images.dir")),
		ExportDir:      ExpandPath(v.GetString("export.dir")),
		BackupDir:      ExpandPath(v.GetString("backup.dir")),
		LogLevel:       v.GetString("logging.level"),
		LogFormat:      v.GetString("logging.format"),
		PredictSource:  v.GetString("predict.source"),
		OllamaURL:      v.GetString("predict.ollama_url"),
		OllamaModel:    v.GetString("predict.model"),
		PredictTimeout: v.GetDuration("predict.timeout"),
		Mouse:          v.GetBool("tui.mouse"),
		Theme:          v.GetString("tui.theme"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have a fixed set of values.
func (c Config) Validate() error {
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	switch c.PredictSource {
	case SourceFile, SourceOllama:
	default:
		return fmt.Errorf("%w: predict source %q", common.ErrInvalidConfig, c.PredictSource)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.ImagesDir == "" {
		return fmt.Errorf("%w: images.dir", common.ErrMissingConfig)
	}
	if c.PredictTimeout <= 0 {
		return fmt.Errorf("%w: predict timeout must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// LabelsDir is where per-image YOLO label files are kept, next to the images.
func (c Config) LabelsDir() string {
	return filepath.Join(filepath.Dir(filepath.Clean(c.ImagesDir)), "labels")
}
