package config

import (
	"github.com/Veraticus/the-paperwork-must-flow/internal/calendar"
	"github.com/spf13/viper"
)

// LoadCalendarConfig loads Google Calendar configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or PAPERWORK_ env vars)
// 2. Direct environment variables (GOOGLE_CALENDAR_*)
// 3. Default values
//
// A disabled calendar is returned without validation.
func LoadCalendarConfig() (*calendar.Config, error) {
	config := calendar.DefaultConfig()
	config.Enabled = viper.GetBool("calendar.enabled")
	config.TokenFile = DefaultTokenFile()

	if v := viper.GetString("calendar.service_account_path"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("calendar.client_id"); v != "" {
		config.ClientID = v
	}
	if v := viper.GetString("calendar.client_secret"); v != "" {
		config.ClientSecret = v
	}
	if v := viper.GetString("calendar.refresh_token"); v != "" {
		config.RefreshToken = v
	}
	if v := viper.GetString("calendar.calendar_id"); v != "" {
		config.CalendarID = v
	}
	if v := viper.GetString("calendar.time_zone"); v != "" {
		config.TimeZone = v
	}
	if v := viper.GetString("calendar.token_file"); v != "" {
		config.TokenFile = ExpandPath(v)
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if config.RefreshToken == "" && config.ServiceAccountPath == "" && config.TokenFile != "" {
		if token, err := calendar.LoadToken(config.TokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	if !config.Enabled {
		return &config, nil
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
