package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change reminder settings per document type",
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())

	return cmd
}

func settingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [document-type]",
		Short: "Show reminder settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var all []model.ReminderSettings
			if len(args) == 1 {
				docType, err := parseDocumentType(args[0])
				if err != nil {
					return err
				}
				s, err := db.GetReminderSettings(ctx, docType)
				if err != nil {
					return err
				}
				all = []model.ReminderSettings{s}
			} else {
				all, err = db.GetAllReminderSettings(ctx)
				if err != nil {
					return fmt.Errorf("failed to get settings: %w", err)
				}
			}

			printSettings(cmd.OutOrStdout(), all)
			return nil
		},
	}

	return cmd
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <document-type>",
		Short: "Change reminder settings for a document type",
		Long: `Change reminder settings for a document type. Only the flags you pass
are changed; the rest keep their stored or default values.

Example:
  paperwork settings set bank_statement --before 7,3 --after 1,7 --max 4 --channels app,email`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			docType, err := parseDocumentType(args[0])
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			settings, err := db.GetReminderSettings(ctx, docType)
			if err != nil {
				return err
			}
			if err := applySettingsFlags(cmd, &settings); err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return common.NewUserError("invalid settings", err)
			}
			if err := db.SaveReminderSettings(ctx, settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved settings for "+docType.Label()))
			return nil
		},
	}

	cmd.Flags().Bool("enabled", true, "send reminders for this type")
	cmd.Flags().StringSlice("before", nil, "days before the expected date, e.g. 7,3")
	cmd.Flags().StringSlice("after", nil, "days after the expected date, e.g. 1,7,14")
	cmd.Flags().Int("max", 0, "maximum reminders per missing document (0 for unlimited)")
	cmd.Flags().StringSlice("channels", nil, "channels to use (app, email, push)")

	return cmd
}

func applySettingsFlags(cmd *cobra.Command, settings *model.ReminderSettings) error {
	flags := cmd.Flags()

	if flags.Changed("enabled") {
		settings.Enabled, _ = flags.GetBool("enabled")
	}
	if flags.Changed("before") {
		values, _ := flags.GetStringSlice("before")
		days, err := parseInts(values)
		if err != nil {
			return err
		}
		settings.ReminderDaysBefore = days
	}
	if flags.Changed("after") {
		values, _ := flags.GetStringSlice("after")
		days, err := parseInts(values)
		if err != nil {
			return err
		}
		settings.ReminderDaysAfter = days
	}
	if flags.Changed("max") {
		settings.MaxReminders, _ = flags.GetInt("max")
	}
	if flags.Changed("channels") {
		values, _ := flags.GetStringSlice("channels")
		channels, err := parseChannels(values)
		if err != nil {
			return err
		}
		settings.ChannelsEnabled = channels
	}
	return nil
}

func printSettings(out io.Writer, all []model.ReminderSettings) {
	rows := make([][]string, len(all))
	for i, s := range all {
		enabled := cli.SuccessStyle.Render("yes")
		if !s.Enabled {
			enabled = cli.SubtleStyle.Render("no")
		}
		name := s.DocumentType.Label()
		if s.IsDefault {
			name += cli.SubtleStyle.Render(" (default)")
		}
		channels := make([]string, len(s.ChannelsEnabled))
		for j, c := range s.ChannelsEnabled {
			channels[j] = string(c)
		}
		rows[i] = []string{
			name,
			enabled,
			joinInts(s.ReminderDaysBefore),
			joinInts(s.ReminderDaysAfter),
			strconv.Itoa(s.MaxReminders),
			strings.Join(channels, ","),
		}
	}
	_, _ = fmt.Fprint(out, cli.RenderTable([]string{"TYPE", "ENABLED", "BEFORE", "AFTER", "MAX", "CHANNELS"}, rows))
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
