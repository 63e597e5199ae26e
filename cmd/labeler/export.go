package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/dataset"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/service"
)

func exportCmd() *cobra.Command {
	var (
		zipped   bool
		statuses []string
	)

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Export a YOLO dataset",
		Long: `Write images/, labels/ and dataset.yaml for every image in the database.
Every image gets a label file, empty when it has no boxes. With --zip the
dataset is packed into yolo_dataset.zip inside dir instead.`,
		Example: `  # Export finished images only
  labeler export ./dataset --status done

  # Produce a zip for upload
  labeler export --zip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			dir := cfg.ExportDir
			if len(args) == 1 {
				dir = args[0]
			}

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

			exporter := dataset.NewExporter(store, library,
				dataset.WithFilter(filter),
				dataset.WithProgress(os.Stderr),
			)

			var summary *dataset.Summary
			if zipped {
				summary, err = exporter.ExportZip(ctx, filepath.Join(dir, dataset.ZipName))
			} else {
				summary, err = exporter.Export(ctx, dir)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Println(cli.RenderBox("Dataset exported", strings.Join([]string{
				fmt.Sprintf("Location: %s", summary.Dir),
				fmt.Sprintf("Images:   %d", summary.Images),
				fmt.Sprintf("Labels:   %d", summary.Labels),
				fmt.Sprintf("Boxes:    %d", summary.Boxes),
			}, "\n")))
			for _, name := range summary.Missing {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped %s: image file is missing", name)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&zipped, "zip", false, "pack the dataset into "+dataset.ZipName)
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "only export images with these statuses")

	return cmd
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dir]",
		Short: "Back up the database and labels",
		Long: `Write a timestamped backup directory holding a database snapshot, a YOLO
label file per image and dataset.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, _, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			root := cfg.BackupDir
			if len(args) == 1 {
				root = args[0]
			}

			info, err := dataset.Backup(ctx, root, store, store, time.Now())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Backed up %d label files to %s", info.Labels, info.Dir)))
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise annotation progress",
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

			stats, err := store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			lines := []string{fmt.Sprintf("Images: %d   Boxes: %d", stats.Images, stats.Annotations), ""}
			for _, s := range model.AllStatuses() {
				lines = append(lines, fmt.Sprintf("%-12s %d", s, stats.ByStatus[s]))
			}
			if len(stats.ByClass) > 0 {
				lines = append(lines, "")
				for _, name := range sortedKeys(stats.ByClass) {
					lines = append(lines, fmt.Sprintf("%-12s %d", name, stats.ByClass[name]))
				}
			}
			fmt.Println(cli.RenderBox("Annotation progress", strings.Join(lines, "\n")))
			return nil
		},
	}
}
