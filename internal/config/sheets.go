package config

import (
	"github.com/Veraticus/the-paperwork-must-flow/internal/calendar"
	"github.com/Veraticus/the-paperwork-must-flow/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads the Google Sheets export configuration. OAuth client
// credentials and the saved token are shared with the calendar integration
// when sheets.* does not set its own.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	if v := viper.GetString("sheets.service_account_path"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	config.ClientID = firstNonEmpty(viper.GetString("sheets.client_id"), viper.GetString("calendar.client_id"))
	config.ClientSecret = firstNonEmpty(viper.GetString("sheets.client_secret"), viper.GetString("calendar.client_secret"))
	config.RefreshToken = viper.GetString("sheets.refresh_token")
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		config.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		config.SpreadsheetName = v
	}
	if v := viper.GetString("sheets.time_zone"); v != "" {
		config.TimeZone = v
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if config.RefreshToken == "" && config.ServiceAccountPath == "" {
		tokenFile := DefaultTokenFile()
		if v := viper.GetString("calendar.token_file"); v != "" {
			tokenFile = ExpandPath(v)
		}
		if token, err := calendar.LoadToken(tokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
