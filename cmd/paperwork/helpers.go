package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/calendar"
	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/config"
	"github.com/Veraticus/the-paperwork-must-flow/internal/engine"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/notify"
	"github.com/Veraticus/the-paperwork-must-flow/internal/reminder"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
	"github.com/spf13/viper"
)

// timeNow is the command clock.
var timeNow = time.Now

// databasePath resolves database.path with ~ and env expansion.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		return config.DefaultDatabasePath()
	}
	return config.ExpandPath(dbPath)
}

// getDatabase opens and migrates the database. Call cleanup when done.
func getDatabase(ctx context.Context) (*storage.SQLiteStorage, func(), error) {
	dbPath := databasePath()

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}

	return db, cleanup, nil
}

// buildDispatcher wires every configured channel. The in-app inbox is always
// available; email and push are throttled.
func buildDispatcher(store service.NotificationStore) (*notify.Dispatcher, error) {
	dispatcher := notify.NewDispatcher()
	dispatcher.Register(model.ChannelApp, notify.NewAppNotifier(store, timeNow))

	throttle := config.LoadNotifyConfig()

	emailConfig, err := config.LoadEmailConfig()
	if err != nil {
		return nil, err
	}
	if emailConfig != nil {
		sender, err := notify.NewEmailNotifier(*emailConfig)
		if err != nil {
			return nil, err
		}
		dispatcher.Register(model.ChannelEmail, notify.NewRateLimited(sender, throttle.RatePerMinute, throttle.Burst))
	}

	pushConfig, err := config.LoadPushConfig()
	if err != nil {
		return nil, err
	}
	if pushConfig != nil {
		sender, err := notify.NewWebhookNotifier(pushConfig.WebhookURL, pushConfig.Timeout)
		if err != nil {
			return nil, err
		}
		dispatcher.Register(model.ChannelPush, notify.NewRateLimited(sender, throttle.RatePerMinute, throttle.Burst))
	}

	slog.Debug("Notification channels configured", "channels", dispatcher.Channels())
	return dispatcher, nil
}

// buildCalendar returns the calendar collaborator, or nil when disabled.
func buildCalendar(ctx context.Context) (reminder.CalendarCollaborator, error) {
	calConfig, err := config.LoadCalendarConfig()
	if err != nil {
		return nil, fmt.Errorf("calendar configuration: %w", err)
	}
	if !calConfig.Enabled {
		return nil, nil
	}
	client, err := calendar.NewClient(ctx, *calConfig, slog.Default())
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newEngine builds the engine against db with the configured channels.
func newEngine(db *storage.SQLiteStorage, observer metrics.Observer, progress func(done, total int)) (*engine.Engine, error) {
	dispatcher, err := buildDispatcher(db)
	if err != nil {
		return nil, err
	}
	return engine.NewWithConfig(db, dispatcher, engine.Config{
		Clock:         timeNow,
		Observer:      observer,
		Progress:      progress,
		Concurrency:   viper.GetInt("analysis.concurrency"),
		LookAheadDays: viper.GetInt("analysis.lookahead_days"),
		SnoozeDays:    viper.GetInt("reminders.snooze_days"),
	}), nil
}

func parseDocumentType(value string) (model.DocumentType, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "", common.NewUserError("document type is required", nil)
	}
	return model.DocumentType(value), nil
}

func parseChannels(values []string) ([]model.Channel, error) {
	var channels []model.Channel
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			c := model.Channel(part)
			if !c.Valid() {
				return nil, common.NewUserError(fmt.Sprintf("unknown channel %q (use app, email or push)", part), nil)
			}
			channels = append(channels, c)
		}
	}
	return channels, nil
}

func parseInts(values []string) ([]int, error) {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, common.NewUserError(fmt.Sprintf("invalid number %q", part), err)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// parseDateFlag parses YYYY-MM-DD, or returns fallback when value is empty.
func parseDateFlag(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := common.ParseDate(value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	return t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(common.DateLayout)
}

func isTerminal() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
