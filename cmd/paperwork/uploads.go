package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/spf13/cobra"
)

func uploadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uploads",
		Aliases: []string{"upload"},
		Short:   "Record and list document uploads",
	}

	cmd.AddCommand(uploadsAddCmd())
	cmd.AddCommand(uploadsListCmd())

	return cmd
}

func uploadsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <document-type> <source> [date...]",
		Short: "Record that documents arrived",
		Long: `Record one upload per date (YYYY-MM-DD) for a document type and source.
With no dates the upload is recorded for today.

Example:
  paperwork uploads add bank_statement "Acme Bank" 2026-01-15 2026-02-15`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			docType, err := parseDocumentType(args[0])
			if err != nil {
				return err
			}
			source := args[1]

			dates := args[2:]
			if len(dates) == 0 {
				dates = []string{timeNow().Format(common.DateLayout)}
			}

			uploads := make([]model.UploadRecord, 0, len(dates))
			for _, d := range dates {
				date, err := parseDateFlag(d, time.Time{})
				if err != nil {
					return err
				}
				uploads = append(uploads, model.UploadRecord{
					DocumentType: docType,
					Source:       source,
					UploadDate:   date,
				})
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.SaveUploads(ctx, uploads); err != nil {
				return fmt.Errorf("failed to record uploads: %w", err)
			}

			recorded := 0
			for _, u := range uploads {
				if u.ID != 0 {
					recorded++
				}
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Recorded %s for %s from %s (%d already known)",
				cli.Plural(recorded, "upload"), docType.Label(), source, len(uploads)-recorded)))
			return nil
		},
	}

	return cmd
}

func uploadsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded uploads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			docType, _ := cmd.Flags().GetString("type")
			source, _ := cmd.Flags().GetString("source")
			since, _ := cmd.Flags().GetString("since")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := service.UploadFilter{
				DocumentType: model.DocumentType(docType),
				Source:       source,
				Limit:        limit,
			}
			if since != "" {
				t, err := parseDateFlag(since, time.Time{})
				if err != nil {
					return err
				}
				filter.Since = &t
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			uploads, err := db.GetUploads(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list uploads: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(uploads) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No uploads recorded"))
				return nil
			}

			rows := make([][]string, len(uploads))
			for i, u := range uploads {
				rows[i] = []string{
					u.UploadDate.Format(common.DateLayout),
					u.DocumentType.Label(),
					u.Source,
				}
			}
			_, _ = fmt.Fprint(out, cli.RenderTable([]string{"DATE", "TYPE", "SOURCE"}, rows))
			return nil
		},
	}

	cmd.Flags().String("type", "", "filter by document type")
	cmd.Flags().String("source", "", "filter by source")
	cmd.Flags().String("since", "", "only uploads on or after this date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 0, "maximum number of uploads to show")

	return cmd
}
