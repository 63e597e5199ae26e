package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

// RunConfig controls a TUI session.
type RunConfig struct {
	// LogFile receives log output while the alternate screen is active.
	LogFile string
	// LogLevel and LogFormat configure that log output.
	LogLevel  slog.Level
	LogFormat string
}

// Run starts the annotation TUI and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, rc RunConfig, opts ...Option) error {
	m := New(opts...)
	if m.store == nil {
		return fmt.Errorf("storage is required")
	}
	if m.library == nil {
		return fmt.Errorf("image library is required")
	}

	if rc.LogFile != "" {
		f, err := tea.LogToFile(rc.LogFile, "labeler")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Error("failed to close log file", "error", closeErr)
			}
		}()
		previous := slog.Default()
		if err := common.SetupLoggerTo(f, rc.LogLevel, rc.LogFormat); err != nil {
			return err
		}
		defer slog.SetDefault(previous)
	} else {
		previous := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		defer slog.SetDefault(previous)
	}

	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if m.config.MouseSupport {
		progOpts = append(progOpts, tea.WithMouseAllMotion())
	}

	p := tea.NewProgram(m, progOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// LogPath returns the default TUI log location next to the database.
func LogPath(dbPath string) string {
	if dbPath == "" || dbPath == ":memory:" {
		return os.DevNull
	}
	return dbPath + ".tui.log"
}
