package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LABELER_DIR", "/srv/labels")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde only", in: "~", want: home},
		{name: "tilde prefix", in: "~/data/labeler.db", want: filepath.Join(home, "data/labeler.db")},
		{name: "env var", in: "$LABELER_DIR/x.db", want: "/srv/labels/x.db"},
		{name: "absolute", in: "/tmp/a.db", want: "/tmp/a.db"},
		{name: "tilde in middle untouched", in: "/a/~b", want: "/a/~b"},
		{name: "cleaned", in: "./exports//yolo/", want: "exports/yolo"},
		{name: "memory database", in: ":memory:", want: ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	assert.Equal(t, filepath.Join("~", ".local", "share", "labeler"), DataDir())

	t.Setenv("XDG_DATA_HOME", "/var/data")
	assert.Equal(t, "/var/data/labeler", DataDir())
}
