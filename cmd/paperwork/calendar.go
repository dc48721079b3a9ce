package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/the-paperwork-must-flow/internal/calendar"
	"github.com/Veraticus/the-paperwork-must-flow/internal/cli"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage the Google Calendar integration",
	}

	cmd.AddCommand(calendarAuthCmd())

	return cmd
}

func calendarAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar deadlines and Sheets export",
		Long: `Authorize paperwork to create deadline events in Google Calendar and to
export reports to Google Sheets.

This command will:
1. Start a local callback server on localhost:8080
2. Print an authorization URL to open in your browser
3. Save the resulting refresh token to the calendar token file

Requires calendar.client_id and calendar.client_secret (or the
GOOGLE_CALENDAR_CLIENT_ID and GOOGLE_CALENDAR_CLIENT_SECRET environment variables).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := viper.GetString("calendar.client_id")
			clientSecret := viper.GetString("calendar.client_secret")
			if clientID == "" {
				clientID = os.Getenv("GOOGLE_CALENDAR_CLIENT_ID")
			}
			if clientSecret == "" {
				clientSecret = os.Getenv("GOOGLE_CALENDAR_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("calendar.client_id and calendar.client_secret are required", nil)
			}

			tokenFile := config.ExpandPath(viper.GetString("calendar.token_file"))
			if tokenFile == "" {
				tokenFile = config.DefaultTokenFile()
			}

			token, err := calendar.AuthenticateOAuth2Interactive(cmd.Context(), calendar.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
			})
			if err != nil {
				return fmt.Errorf("calendar authorization failed: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Calendar authorized; token saved to "+tokenFile))
			if token.RefreshToken == "" {
				_, _ = fmt.Fprintln(out, cli.FormatWarning("No refresh token was returned. Revoke access and run this again."))
			}
			_, _ = fmt.Fprintln(out, cli.FormatInfo("Enable deadlines with calendar.enabled: true"))
			return nil
		},
	}

	return cmd
}
