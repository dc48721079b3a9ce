package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// WebhookNotifier delivers push reminders by POSTing JSON to a relay URL.
type WebhookNotifier struct {
	client *http.Client
	url    string
	retry  service.RetryOptions
}

type webhookPayload struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Urgency      string   `json:"urgency"`
	Type         string   `json:"type"`
	DocumentType string   `json:"document_type"`
	Source       string   `json:"source"`
	ExpectedDate string   `json:"expected_date"`
	Actions      []string `json:"actions"`
}

// NewWebhookNotifier creates a push sender for the given URL.
func NewWebhookNotifier(url string, timeout time.Duration) (*WebhookNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: push webhook url is required", common.ErrInvalidConfig)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
		retry:  service.RetryOptions{MaxAttempts: 3},
	}, nil
}

// Send posts the reminder. 5xx and 429 responses are retried.
func (w *WebhookNotifier) Send(ctx context.Context, reminder *model.DocumentReminder) error {
	payload := webhookPayload{
		ID:           reminder.ID,
		Title:        reminder.Title,
		Message:      reminder.Message,
		Urgency:      string(reminder.Urgency),
		Type:         string(reminder.ReminderType),
		DocumentType: string(reminder.DocumentType),
		Source:       reminder.Source,
		ExpectedDate: reminder.ExpectedDate.Format(common.DateLayout),
	}
	for _, a := range reminder.Actions {
		payload.Actions = append(payload.Actions, string(a.Type))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	return common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return common.Permanent(fmt.Errorf("failed to build push request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("push request failed: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return common.ErrRateLimit
		case resp.StatusCode >= 500:
			return fmt.Errorf("push relay returned %d", resp.StatusCode)
		case resp.StatusCode >= 300:
			return common.Permanent(fmt.Errorf("push relay rejected reminder: %d", resp.StatusCode))
		}
		return nil
	}, w.retry)
}
