package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress counts finished items of a batch job.
type Progress interface {
	Add(n int) error
	Finish() error
}

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }
func (nopProgress) Finish() error { return nil }

// NopProgress discards progress updates.
func NopProgress() Progress { return nopProgress{} }

// NewProgressBar returns a coloured progress bar writing to w.
func NewProgressBar(w io.Writer, total int, description string) Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
