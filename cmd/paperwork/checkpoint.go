package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
	"github.com/spf13/cobra"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints are full copies of the paperwork database kept next to it.
Take one before bulk imports or settings changes; migrate takes one
automatically before upgrading an existing database.`,
		Example: `  # Save the current state
  paperwork checkpoint create before-import -d "before importing 2025 uploads"

  # List all checkpoints
  paperwork checkpoint list

  # Roll back
  paperwork checkpoint restore before-import`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

func createCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [tag]",
		Short: "Create a new checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}

			manager, cleanup, err := getCheckpointManager(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := manager.Create(cmd.Context(), tag, description)
			if err != nil {
				return checkpointError(err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created checkpoint %s (%s)", info.ID, formatFileSize(info.FileSize))))
			if info.Description != "" {
				_, _ = fmt.Fprintf(out, "  Description: %s\n", info.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "Description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, cleanup, err := getCheckpointManager(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			checkpoints, err := manager.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list checkpoints: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(checkpoints) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No checkpoints found"))
				return nil
			}

			rows := make([][]string, 0, len(checkpoints))
			for _, cp := range checkpoints {
				kind := "manual"
				if cp.IsAuto {
					kind = "auto"
				}
				rows = append(rows, []string{
					cp.ID,
					formatRelativeTime(cp.CreatedAt, timeNow()),
					formatFileSize(cp.FileSize),
					strconv.Itoa(cp.RowCounts["uploads"]),
					strconv.Itoa(cp.RowCounts["document_patterns"]),
					strconv.Itoa(cp.SchemaVersion),
					kind,
				})
			}
			_, _ = fmt.Fprintln(out, cli.RenderTable(
				[]string{"NAME", "CREATED", "SIZE", "UPLOADS", "PATTERNS", "SCHEMA", "TYPE"}, rows))
			return nil
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore database from a checkpoint",
		Long:  `Replace the current database with a checkpoint.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			id := args[0]

			manager, cleanup, err := getCheckpointManager(cmd)
			if err != nil {
				return err
			}
			// Restore closes the handle itself; closing twice is harmless.
			defer cleanup()

			info, err := manager.Get(cmd.Context(), id)
			if err != nil {
				return checkpointError(err)
			}

			out := cmd.OutOrStdout()
			if !force {
				_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("This will replace your current database with checkpoint %s.", id)))
				_, _ = fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
				if info.Description != "" {
					_, _ = fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				if !confirm(cmd.InOrStdin(), out) {
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Restore cancelled"))
					return nil
				}
			}

			if err := manager.Restore(cmd.Context(), id); err != nil {
				return checkpointError(err)
			}

			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Restored from checkpoint "+id))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			id := args[0]

			manager, cleanup, err := getCheckpointManager(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := manager.Get(cmd.Context(), id)
			if err != nil {
				return checkpointError(err)
			}

			out := cmd.OutOrStdout()
			if !force {
				_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("This will permanently delete checkpoint %s.", id)))
				_, _ = fmt.Fprintf(out, "  Size: %s\n", formatFileSize(info.FileSize))
				if !confirm(cmd.InOrStdin(), out) {
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Deletion cancelled"))
					return nil
				}
			}

			if err := manager.Delete(cmd.Context(), id); err != nil {
				return checkpointError(err)
			}

			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Deleted checkpoint "+id))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func getCheckpointManager(cmd *cobra.Command) (*storage.CheckpointManager, func(), error) {
	db, cleanup, err := getDatabase(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	manager, err := db.Checkpoints()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return manager, cleanup, nil
}

func checkpointError(err error) error {
	switch {
	case errors.Is(err, storage.ErrCheckpointNotFound):
		return common.NewUserError("No checkpoint with that name. Run: paperwork checkpoint list", err)
	case errors.Is(err, storage.ErrCheckpointExists):
		return common.NewUserError("A checkpoint with that name already exists", err)
	case errors.Is(err, storage.ErrInvalidCheckpoint):
		return common.NewUserError("Checkpoint names cannot contain slashes, quotes or semicolons", err)
	default:
		return err
	}
}

func confirm(in io.Reader, out io.Writer) bool {
	_, _ = fmt.Fprint(out, "\nContinue? (y/N) ")
	response, _ := bufio.NewReader(in).ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y")
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return cli.Plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return cli.Plural(int(d.Hours()), "hour") + " ago"
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
