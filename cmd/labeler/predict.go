package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/annotate"
	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

func predictCmd() *cobra.Command {
	var (
		source  string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "predict <image>",
		Short: "Add predicted boxes to an image",
		Long: `Ask a prediction source for detections on an image and store them as
predicted boxes. By default they are added to the existing boxes; --replace
discards the existing boxes first.

The file source reads <stem>.json next to the image. The ollama source asks
the configured vision model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			cfg, store, library, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}
			if source == "" {
				source = cfg.PredictSource
			}
			predictor, err := newPredictor(cfg, source, classes)
			if err != nil {
				return err
			}

			path, err := library.Path(name)
			if err != nil {
				return err
			}
			width, height, err := library.Size(name)
			if err != nil {
				return err
			}
			rec, err := store.GetAnnotations(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to load annotations: %w", err)
			}

			slog.Info("requesting predictions", "image", name, "source", source)
			batch, err := predictor.Predict(ctx, path)
			if err != nil {
				return fmt.Errorf("prediction failed: %w", err)
			}
			boxes, skipped := model.ResolvePredictions(batch, classes, width, height)

			// Merge through a session so the stored result matches the canvas.
			session := annotate.NewSession(classes)
			session.CompleteLoad(session.BeginLoad(name), width, height, &rec)
			added := session.MergePredictions(boxes, replace)

			_, out, err := session.SavePayload()
			if err != nil {
				return err
			}
			if err := store.SaveAnnotations(ctx, name, out); err != nil {
				return fmt.Errorf("failed to save annotations: %w", err)
			}

			verb := "Added"
			if replace {
				verb = "Replaced boxes with"
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s %d predicted boxes on %s", verb, added, name)))
			if skipped > 0 {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped %d predictions without coordinates", skipped)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "prediction source: file or ollama (default from predict.source)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace existing boxes instead of adding")

	return cmd
}
