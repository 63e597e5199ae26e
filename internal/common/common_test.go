package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelDebug, "json"))

	LogDebug("loaded image", Fields{"image": "cat.jpg"})
	assert.Contains(t, buf.String(), `"image":"cat.jpg"`)

	assert.Error(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"))
}

func TestUserError(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("save: %w", NewUserError("Could not save annotations", base))

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "Could not save annotations", UserMessage(err))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "msg", (&UserError{UserMessage: "msg"}).Error())
}
