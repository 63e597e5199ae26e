package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/dataset"
	"github.com/Veraticus/yolo-labeler/internal/imagestore"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

func imagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage the image directory",
		Long:  `Import images, list them with their review status, and change that status.`,
	}

	cmd.AddCommand(importImagesCmd())
	cmd.AddCommand(listImagesCmd())
	cmd.AddCommand(statusImageCmd())
	cmd.AddCommand(importLabelsCmd())

	return cmd
}

func importImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Copy images into the image directory",
		Long: `Copy image files into the image directory and register them as in progress.
Directories are scanned (not recursively) for supported images.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, library, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := expandImagePaths(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println(cli.FormatWarning("No supported images found."))
				return nil
			}

			handler := cli.NewInterruptHandler(os.Stdout, "Import")
			ctx := handler.HandleInterrupts(cmd.Context(), "Run the import again to copy the rest.")

			progress := cli.NewProgressBar(os.Stderr, len(paths), "Importing images...")
			result, err := library.Import(ctx, paths, progress)
			if result != nil {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d images into %s", len(result.Imported), cfg.ImagesDir)))
				for _, src := range sortedKeys(result.Skipped) {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped %s: %v", src, result.Skipped[src])))
				}
			}
			if handler.WasInterrupted() {
				return nil
			}
			return err
		},
	}
}

// expandImagePaths replaces directories with the supported images inside.
func expandImagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && imagestore.Supported(e.Name()) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

func listImagesCmd() *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images with status and box counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := library.Sync(ctx); err != nil {
				return fmt.Errorf("failed to scan image directory: %w", err)
			}

			filter := service.ImageFilter{}
			for _, s := range statuses {
				status, err := model.ParseFileStatus(s)
				if err != nil {
					return err
				}
				filter.Statuses = append(filter.Statuses, status)
			}

			images, err := store.ListImages(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list images: %w", err)
			}
			if len(images) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No images found. Use 'labeler images import' to add some."))
				return nil
			}

			rows := make([][]string, 0, len(images))
			for _, img := range images {
				rows = append(rows, []string{
					img.Name,
					fmt.Sprintf("%dx%d", img.Width, img.Height),
					statusStyle(img.Status).Render(string(img.Status)),
					formatCounts(img.BoxCounts),
				})
			}
			fmt.Println(cli.RenderTable([]string{"IMAGE", "SIZE", "STATUS", "BOXES"}, rows))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "only list images with these statuses")

	return cmd
}

func statusImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <image> <in_progress|done|attention>",
		Short: "Set the review status of an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, _, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			status, err := model.ParseFileStatus(args[1])
			if err != nil {
				return err
			}
			if err := store.SetFileStatus(ctx, args[0], status); err != nil {
				return fmt.Errorf("failed to set status: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s is now %s", args[0], status)))
			return nil
		},
	}
}

func importLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-labels [labels-dir]",
		Short: "Load YOLO label files into the database",
		Long: `Read <stem>.txt YOLO label files and store them as the boxes of the image
with the same stem, replacing what is stored. Defaults to the labels
directory next to the image directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			dir := cfg.LabelsDir()
			if len(args) == 1 {
				dir = args[0]
			}

			names, err := library.List()
			if err != nil {
				return err
			}
			if _, err := library.Sync(ctx); err != nil {
				return fmt.Errorf("failed to scan image directory: %w", err)
			}

			imported, orphans, err := dataset.ImportLabels(ctx, dir, names, store)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d label files from %s", imported, dir)))
			for _, o := range orphans {
				slog.Warn("label file has no image", "file", o)
			}
			if len(orphans) > 0 {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%d label files had no matching image", len(orphans))))
			}
			return nil
		},
	}
}

func statusStyle(s model.FileStatus) lipgloss.Style {
	switch s {
	case model.StatusDone:
		return cli.SuccessStyle
	case model.StatusAttention:
		return cli.WarningStyle
	default:
		return cli.InfoStyle
	}
}

// formatCounts renders per-class counts as "Car:1 Person:2".
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return cli.SubtleStyle.Render("-")
	}
	parts := make([]string, 0, len(counts))
	for _, name := range sortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%s:%d", name, counts[name]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
