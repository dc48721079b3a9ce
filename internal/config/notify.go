package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/notify"
	"github.com/spf13/viper"
)

// LoadEmailConfig loads SMTP settings. It returns nil when no email host is
// configured, meaning the email channel is off.
func LoadEmailConfig() (*notify.EmailConfig, error) {
	config := notify.DefaultEmailConfig()

	config.Host = viper.GetString("email.host")
	if config.Host == "" {
		config.Host = os.Getenv("PAPERWORK_SMTP_HOST")
	}
	if config.Host == "" {
		return nil, nil
	}

	if v := viper.GetInt("email.port"); v != 0 {
		config.Port = v
	}
	config.Username = viper.GetString("email.username")
	config.Password = viper.GetString("email.password")
	if config.Password == "" {
		config.Password = os.Getenv("PAPERWORK_SMTP_PASSWORD")
	}
	config.From = viper.GetString("email.from")
	config.To = splitList(viper.GetStringSlice("email.to"))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// PushConfig holds the push relay settings.
type PushConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// LoadPushConfig loads push settings. It returns nil when no webhook is set.
func LoadPushConfig() (*PushConfig, error) {
	url := viper.GetString("push.webhook_url")
	if url == "" {
		return nil, nil
	}
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return nil, fmt.Errorf("%w: push.webhook_url must be an http(s) URL", common.ErrInvalidConfig)
	}
	return &PushConfig{
		WebhookURL: url,
		Timeout:    viper.GetDuration("push.timeout"),
	}, nil
}

// NotifyConfig controls outbound throttling.
type NotifyConfig struct {
	RatePerMinute float64
	Burst         int
}

// LoadNotifyConfig loads outbound throttling with a default of 30 sends a minute.
func LoadNotifyConfig() NotifyConfig {
	config := NotifyConfig{RatePerMinute: 30, Burst: 5}
	if viper.IsSet("notify.rate_per_minute") {
		config.RatePerMinute = viper.GetFloat64("notify.rate_per_minute")
	}
	if v := viper.GetInt("notify.burst"); v > 0 {
		config.Burst = v
	}
	return config
}

// splitList accepts both YAML lists and a single comma separated value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
