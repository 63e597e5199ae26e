package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints allow you to save the current state of your annotations before
making risky changes, and restore to a previous state if needed. Deleting a
class takes an automatic checkpoint first.`,
		Example: `  # Create a checkpoint before a review pass
  labeler checkpoint create --tag "pre-review"

  # List all checkpoints
  labeler checkpoint list

  # Restore from a checkpoint
  labeler checkpoint restore pre-review

  # Delete an old checkpoint
  labeler checkpoint delete old-checkpoint`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens the store and hands its checkpoint manager to fn.
func withCheckpoints(ctx context.Context, fn func(*storage.CheckpointManager) error) error {
	_, store, _, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		Long:  `Create a snapshot of the current database state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}

				fmt.Printf("%s Created checkpoint %s (%s)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					formatFileSize(info.FileSize))

				if info.Description != "" {
					fmt.Printf("  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Checkpoint tag/name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Long:  `Display all available checkpoints with their metadata.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}

				if len(checkpoints) == 0 {
					fmt.Println(cli.SubtleStyle.Render("No checkpoints found."))
					return nil
				}

				now := time.Now()
				rows := make([][]string, 0, len(checkpoints))
				for _, cp := range checkpoints {
					typeLabel := "manual"
					if cp.IsAuto {
						typeLabel = "auto"
					}
					rows = append(rows, []string{
						cli.InfoStyle.Render(cp.ID),
						formatRelativeTime(now, cp.CreatedAt),
						formatFileSize(cp.FileSize),
						fmt.Sprintf("%d", cp.Images),
						fmt.Sprintf("%d", cp.Classes),
						fmt.Sprintf("%d", cp.Annotations),
						cli.SubtleStyle.Render(typeLabel),
					})
				}
				fmt.Println(cli.RenderTable(
					[]string{"NAME", "CREATED", "SIZE", "IMAGES", "CLASSES", "BOXES", "TYPE"},
					rows,
				))
				return nil
			})
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore database from a checkpoint",
		Long:  `Replace the current database with a checkpoint.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.GetCheckpointInfo(ctx, checkpointID)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint info: %w", err)
				}

				if !force {
					fmt.Printf("%s This will replace your current database with checkpoint %s.\n",
						cli.WarningStyle.Render(cli.WarningIcon),
						cli.InfoStyle.Render(checkpointID))
					fmt.Printf("  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
					if info.Description != "" {
						fmt.Printf("  Description: %s\n", info.Description)
					}
					if !confirm(os.Stdin, os.Stdout, "\nContinue?") {
						fmt.Println(cli.SubtleStyle.Render("Restore cancelled."))
						return nil
					}
				}

				// Restore closes the live connection before copying over the file.
				if err := manager.Restore(ctx, checkpointID); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}

				fmt.Printf("%s Restored from checkpoint %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(checkpointID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Long:  `Permanently remove a checkpoint.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.GetCheckpointInfo(ctx, checkpointID)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint info: %w", err)
				}

				if !force {
					fmt.Printf("%s This will permanently delete checkpoint %s.\n",
						cli.WarningStyle.Render(cli.WarningIcon),
						cli.InfoStyle.Render(checkpointID))
					fmt.Printf("  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
					fmt.Printf("  Size: %s\n", formatFileSize(info.FileSize))
					if !confirm(os.Stdin, os.Stdout, "\nContinue?") {
						fmt.Println(cli.SubtleStyle.Render("Deletion cancelled."))
						return nil
					}
				}

				if err := manager.Delete(ctx, checkpointID); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}

				fmt.Printf("%s Deleted checkpoint %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(checkpointID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
