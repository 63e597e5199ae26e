package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format func(string) string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
		{name: "title", format: FormatTitle, icon: BoxIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("saved 3 boxes")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "saved 3 boxes")
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"#", "Class"},
		[][]string{{"0", "Class 0"}, {"1", "Person"}, {"2"}},
	)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Class")
	assert.Contains(t, lines[2], "Person")
	assert.Equal(t, strings.Index(lines[1], "Class 0"), strings.Index(lines[2], "Person"), "columns align")
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 2, "Exporting")
	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Finish())
	assert.Contains(t, buf.String(), "Exporting")

	nop := NopProgress()
	assert.NoError(t, nop.Add(5))
	assert.NoError(t, nop.Finish())
}
