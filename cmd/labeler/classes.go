package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/cli"
	"github.com/Veraticus/yolo-labeler/internal/render"
)

func classesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Manage annotation classes",
		Long: `List, add, rename and delete the classes boxes are labelled with.

Class indexes are the YOLO class ids. Deleting a class removes its boxes and
shifts every later class down by one.`,
	}

	cmd.AddCommand(listClassesCmd())
	cmd.AddCommand(addClassCmd())
	cmd.AddCommand(renameClassCmd())
	cmd.AddCommand(deleteClassCmd())
	cmd.AddCommand(instructionsClassCmd())

	return cmd
}

func listClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all classes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, _, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.GetClasses(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}

			rows := make([][]string, 0, len(classes))
			for i, c := range classes {
				swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(render.Hex(render.ClassColor(i)))).Render(cli.BoxIcon)
				instructions := c.Instructions
				if instructions == "" {
					instructions = cli.SubtleStyle.Render("(no instructions)")
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i), swatch + " " + c.Name, instructions})
			}
			fmt.Println(cli.RenderTable([]string{"ID", "NAME", "INSTRUCTIONS"}, rows))
			return nil
		},
	}
}

func addClassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a class at the end of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, _, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.AddClass(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to add class: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added class %q with id %d", args[0], len(classes)-1)))
			return nil
		},
	}
}

func renameClassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id-or-name> <new-name>",
		Short: "Rename a class",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, _, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}
			idx, err := parseClassIndex(classes, args[0])
			if err != nil {
				return err
			}

			if _, err := store.RenameClass(ctx, idx, args[1]); err != nil {
				return fmt.Errorf("failed to rename class: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Renamed %q to %q", classes[idx].Name, args[1])))
			return nil
		},
	}
}

func deleteClassCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a class and its boxes",
		Long: `Delete a class. Its boxes are removed from every image and later class ids
shift down by one. An automatic checkpoint is taken first so the delete can
be undone with 'labeler checkpoint restore'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, _, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}
			idx, err := parseClassIndex(classes, args[0])
			if err != nil {
				return err
			}

			if !force {
				question := fmt.Sprintf("%s Delete class %s and all of its boxes?",
					cli.WarningStyle.Render(cli.WarningIcon),
					cli.InfoStyle.Render(classes[idx].Name))
				if !confirm(os.Stdin, os.Stdout, question) {
					fmt.Println(cli.SubtleStyle.Render("Delete cancelled."))
					return nil
				}
			}

			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}
			if err := manager.AutoCheckpoint(ctx, "class-delete"); err != nil {
				return fmt.Errorf("failed to checkpoint before delete: %w", err)
			}

			if _, err := store.DeleteClass(ctx, idx); err != nil {
				return fmt.Errorf("failed to delete class: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted class %q", classes[idx].Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func instructionsClassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instructions <id-or-name> [text...]",
		Short: "Set the labelling instructions of a class",
		Long:  `Set the instructions shown while the class is active. No text clears them.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, _, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			classes, err := store.GetClasses(ctx)
			if err != nil {
				return fmt.Errorf("failed to get classes: %w", err)
			}
			idx, err := parseClassIndex(classes, args[0])
			if err != nil {
				return err
			}

			text := strings.Join(args[1:], " ")
			if err := store.UpdateClassInstructions(ctx, idx, text); err != nil {
				return fmt.Errorf("failed to update instructions: %w", err)
			}

			if text == "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cleared instructions for %q", classes[idx].Name)))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated instructions for %q", classes[idx].Name)))
			}
			return nil
		},
	}
}
