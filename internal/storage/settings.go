package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// GetReminderSettings returns the stored settings for a document type, or the
// built-in defaults when none have been saved.
func (s *SQLiteStorage) GetReminderSettings(ctx context.Context, docType model.DocumentType) (model.ReminderSettings, error) {
	if err := validateContext(ctx); err != nil {
		return model.ReminderSettings{}, err
	}
	if err := validateString(string(docType), "document type"); err != nil {
		return model.ReminderSettings{}, err
	}

	if cached, ok := s.settingsCache.Get(docType); ok {
		return cached, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT document_type, enabled, reminder_days_before, reminder_days_after,
			max_reminders, channels_enabled, updated_at
		FROM reminder_settings WHERE document_type = ?`, docType)

	settings, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		settings = model.DefaultReminderSettings(docType)
	} else if err != nil {
		return model.ReminderSettings{}, err
	}

	s.settingsCache.Add(docType, settings)
	return settings, nil
}

// SaveReminderSettings upserts the settings for a document type.
func (s *SQLiteStorage) SaveReminderSettings(ctx context.Context, settings model.ReminderSettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	before, err := marshalInts(settings.ReminderDaysBefore)
	if err != nil {
		return err
	}
	after, err := marshalInts(settings.ReminderDaysAfter)
	if err != nil {
		return err
	}
	channels := settings.ChannelsEnabled
	if channels == nil {
		channels = []model.Channel{}
	}
	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reminder_settings (
			document_type, enabled, reminder_days_before, reminder_days_after,
			max_reminders, channels_enabled, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(document_type) DO UPDATE SET
			enabled = excluded.enabled,
			reminder_days_before = excluded.reminder_days_before,
			reminder_days_after = excluded.reminder_days_after,
			max_reminders = excluded.max_reminders,
			channels_enabled = excluded.channels_enabled,
			updated_at = CURRENT_TIMESTAMP`,
		settings.DocumentType, settings.Enabled, before, after,
		settings.MaxReminders, string(channelsJSON))
	if err != nil {
		return fmt.Errorf("failed to save reminder settings: %w", err)
	}

	s.settingsCache.Remove(settings.DocumentType)
	slog.Debug("saved reminder settings", "document_type", settings.DocumentType)
	return nil
}

// GetAllReminderSettings returns settings for every known document type,
// stored or default, plus any stored custom types.
func (s *SQLiteStorage) GetAllReminderSettings(ctx context.Context) ([]model.ReminderSettings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_type, enabled, reminder_days_before, reminder_days_after,
			max_reminders, channels_enabled, updated_at
		FROM reminder_settings ORDER BY document_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder settings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	stored := make(map[model.DocumentType]model.ReminderSettings)
	var order []model.DocumentType
	for rows.Next() {
		settings, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		stored[settings.DocumentType] = settings
		order = append(order, settings.DocumentType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder settings: %w", err)
	}

	all := make([]model.ReminderSettings, 0, len(model.KnownDocumentTypes())+len(order))
	seen := make(map[model.DocumentType]bool)
	for _, docType := range model.KnownDocumentTypes() {
		seen[docType] = true
		if settings, ok := stored[docType]; ok {
			all = append(all, settings)
			continue
		}
		all = append(all, model.DefaultReminderSettings(docType))
	}
	for _, docType := range order {
		if !seen[docType] {
			all = append(all, stored[docType])
		}
	}
	return all, nil
}

func scanSettings(row rowScanner) (model.ReminderSettings, error) {
	var (
		settings                    model.ReminderSettings
		before, after, channelsJSON string
		updatedAt                   sql.NullTime
	)

	err := row.Scan(&settings.DocumentType, &settings.Enabled, &before, &after,
		&settings.MaxReminders, &channelsJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, err
	}
	if err != nil {
		return settings, fmt.Errorf("failed to scan reminder settings: %w", err)
	}

	if err := json.Unmarshal([]byte(before), &settings.ReminderDaysBefore); err != nil {
		return settings, fmt.Errorf("failed to decode reminder_days_before: %w", err)
	}
	if err := json.Unmarshal([]byte(after), &settings.ReminderDaysAfter); err != nil {
		return settings, fmt.Errorf("failed to decode reminder_days_after: %w", err)
	}
	if err := json.Unmarshal([]byte(channelsJSON), &settings.ChannelsEnabled); err != nil {
		return settings, fmt.Errorf("failed to decode channels_enabled: %w", err)
	}
	if updatedAt.Valid {
		settings.UpdatedAt = updatedAt.Time
	}
	return settings, nil
}

func marshalInts(values []int) (string, error) {
	if values == nil {
		values = []int{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode reminder days: %w", err)
	}
	return string(data), nil
}
