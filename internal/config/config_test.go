package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

func TestFromViper_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share/labeler/labeler.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, SourceFile, cfg.PredictSource)
	assert.Equal(t, 2*time.Minute, cfg.PredictTimeout)
	assert.True(t, cfg.Mouse)
	assert.Equal(t, "default", cfg.Theme)
}

func TestFromViper_Overrides(t *testing.T) {
	t.Setenv("LABELER_TEST_ROOT", "/data")

	v := viper.New()
	v.Set("images.dir", "$LABELER_TEST_ROOT/images")
	v.Set("predict.source", "ollama")
	v.Set("predict.model", "llama3.2-vision")
	v.Set("predict.timeout", "30s")
	v.Set("tui.mouse", false)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/images", cfg.ImagesDir)
	assert.Equal(t, "/data/labels", cfg.LabelsDir())
	assert.Equal(t, SourceOllama, cfg.PredictSource)
	assert.Equal(t, "llama3.2-vision", cfg.OllamaModel)
	assert.Equal(t, 30*time.Second, cfg.PredictTimeout)
	assert.False(t, cfg.Mouse)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		key     string
		value   any
	}{
		{name: "bad level", key: "logging.level", value: "loud", wantErr: common.ErrInvalidConfig},
		{name: "bad format", key: "logging.format", value: "xml", wantErr: common.ErrInvalidConfig},
		{name: "bad source", key: "predict.source", value: "magic", wantErr: common.ErrInvalidConfig},
		{name: "zero timeout", key: "predict.timeout", value: "0s", wantErr: common.ErrInvalidConfig},
		{name: "empty database", key: "database.path", value: "", wantErr: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := FromViper(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
