package tui

import (
	"context"
	"time"

	"github.com/Veraticus/yolo-labeler/internal/imagestore"
	"github.com/Veraticus/yolo-labeler/internal/predict"
	"github.com/Veraticus/yolo-labeler/internal/service"
	"github.com/Veraticus/yolo-labeler/internal/tui/themes"
)

// Checkpointer takes a safety snapshot before destructive operations.
type Checkpointer interface {
	AutoCheckpoint(ctx context.Context, prefix string) error
}

// Config holds TUI configuration.
type Config struct {
	Theme          themes.Theme
	Store          service.Store
	Library        *imagestore.Library
	Predictor      predict.Predictor
	Checkpoints    Checkpointer
	Filter         service.ImageFilter
	Width          int
	Height         int
	PredictTimeout time.Duration
	MouseSupport   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:          themes.Default,
		Filter:         service.DefaultImageFilter(),
		Width:          120,
		Height:         40,
		PredictTimeout: 2 * time.Minute,
		MouseSupport:   true,
	}
}

// WithStore sets the annotation store.
func WithStore(store service.Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithLibrary sets the image library the file list is drawn from.
func WithLibrary(library *imagestore.Library) Option {
	return func(c *Config) {
		c.Library = library
	}
}

// WithPredictor sets the prediction source used by the predict key.
func WithPredictor(p predict.Predictor, timeout time.Duration) Option {
	return func(c *Config) {
		c.Predictor = p
		if timeout > 0 {
			c.PredictTimeout = timeout
		}
	}
}

// WithCheckpoints enables an automatic checkpoint before class deletion.
func WithCheckpoints(cp Checkpointer) Option {
	return func(c *Config) {
		c.Checkpoints = cp
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithMouse toggles mouse support.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}

// WithFilter sets the initial file list filter.
func WithFilter(filter service.ImageFilter) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}
