package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/spf13/cobra"
)

func inboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show in-app reminder notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			all, _ := cmd.Flags().GetBool("all")
			readID, _ := cmd.Flags().GetInt64("read")

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if readID > 0 {
				if err := db.MarkNotificationRead(ctx, readID, timeNow()); err != nil {
					return fmt.Errorf("failed to mark notification %d read: %w", readID, err)
				}
				_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Notification %d marked read", readID)))
				return nil
			}

			notifications, err := db.GetNotifications(ctx, !all)
			if err != nil {
				return fmt.Errorf("failed to get notifications: %w", err)
			}
			if len(notifications) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatSuccess("Inbox is empty"))
				return nil
			}

			for _, n := range notifications {
				header := fmt.Sprintf("%s #%d  %s  %s",
					cli.BellIcon,
					n.ID,
					n.CreatedAt.Format(common.DateLayout),
					cli.UrgencyStyle(n.Urgency).Render(string(n.Urgency)))
				if n.ReadAt != nil {
					header = cli.SubtleStyle.Render(header + "  read")
				}
				_, _ = fmt.Fprintln(out, header)
				_, _ = fmt.Fprintln(out, cli.BoldStyle.Render(n.Title))
				_, _ = fmt.Fprintln(out, n.Message)
				_, _ = fmt.Fprintln(out)
			}
			_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(
				cli.Plural(len(notifications), "notification")+". Mark one read with: paperwork inbox --read "+strconv.FormatInt(notifications[0].ID, 10)))
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "include read notifications")
	cmd.Flags().Int64("read", 0, "mark a notification read by id")

	return cmd
}
