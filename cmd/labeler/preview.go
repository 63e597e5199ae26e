package main

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/render"
)

func previewCmd() *cobra.Command {
	var (
		output   string
		noLabels bool
	)

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render an image with its boxes to a file",
		Long: `Draw the stored boxes over an image at its natural size and write the
result. The format follows the output extension (png, jpg, gif, tif, bmp).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			_, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			img, err := library.Open(name)
			if err != nil {
				return err
			}
			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}
			rec, err := store.GetAnnotations(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to load annotations: %w", err)
			}

			b := img.Bounds()
			boxes := model.BoxesFromRecord(rec, b.Dx(), b.Dy())
			frame := render.New(render.WithLabels(!noLabels)).Overlay(img, classes, boxes)

			if output == "" {
				output = model.Stem(name) + "_preview.png"
			}
			if err := imaging.Save(frame, output); err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %s with %d boxes", output, len(boxes))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <stem>_preview.png)")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "omit class labels above boxes")

	return cmd
}
