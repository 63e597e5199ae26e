package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
	"github.com/Veraticus/yolo-labeler/internal/tui"
	"github.com/Veraticus/yolo-labeler/internal/tui/themes"
)

func annotateCmd() *cobra.Command {
	var (
		statuses []string
		all      bool
		noMouse  bool
		theme    string
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Open the annotation canvas",
		Long: `Open the full-screen annotation canvas on the image directory.

Press c to arm create mode and drag on the canvas to draw a box. Drag a box
to move it, drag its corners to resize it, and use the wheel to zoom.
Edits are saved when switching images and on quit. Press ? for all keys.`,
		Example: `  # Annotate everything that still needs work
  labeler annotate

  # Review finished images with the Catppuccin theme
  labeler annotate --status done --theme catppuccin-mocha`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close database", "error", closeErr)
				}
			}()

			filter := service.DefaultImageFilter()
			switch {
			case all:
				filter = service.ImageFilter{}
			case len(statuses) > 0:
				filter = service.ImageFilter{}
				for _, s := range statuses {
					status, err := model.ParseFileStatus(s)
					if err != nil {
						return err
					}
					filter.Statuses = append(filter.Statuses, status)
				}
			}

			if theme == "" {
				theme = cfg.Theme
			}
			opts := []tui.Option{
				tui.WithStore(store),
				tui.WithLibrary(library),
				tui.WithFilter(filter),
				tui.WithMouse(cfg.Mouse && !noMouse),
				tui.WithTheme(themes.GetTheme(theme)),
			}

			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to load classes: %w", err)
			}
			if predictor, err := newPredictor(cfg, "", classes); err != nil {
				slog.Warn("predictions disabled", "error", err)
			} else {
				opts = append(opts, tui.WithPredictor(predictor, cfg.PredictTimeout))
			}

			if checkpoints, err := store.NewCheckpointManager(); err != nil {
				slog.Warn("automatic checkpoints disabled", "error", err)
			} else {
				opts = append(opts, tui.WithCheckpoints(checkpoints))
			}

			level, err := common.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			return tui.Run(ctx, tui.RunConfig{
				LogFile:   tui.LogPath(cfg.DatabasePath),
				LogLevel:  level,
				LogFormat: cfg.LogFormat,
			}, opts...)
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "only list images with these statuses (in_progress, done, attention)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every image, including finished ones")
	cmd.Flags().BoolVar(&noMouse, "no-mouse", false, "disable mouse input")
	cmd.Flags().StringVar(&theme, "theme", "", "colour theme (default, catppuccin-mocha)")

	return cmd
}
