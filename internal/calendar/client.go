package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// eventNamespace scopes deterministic event IDs.
var eventNamespace = uuid.MustParse("3b0e6a52-8d47-4c1f-9f26-1a7c5e0d9b84")

// eventsAPI is the slice of the Calendar events resource the client needs.
type eventsAPI interface {
	Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error)
	Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error)
}

type googleEvents struct {
	svc *gcal.Service
}

func (g googleEvents) Insert(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
}

func (g googleEvents) Get(ctx context.Context, calendarID, eventID string) (*gcal.Event, error) {
	return g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
}

// Client creates deadline events for missing documents.
type Client struct {
	events eventsAPI
	logger *slog.Logger
	config Config
}

// NewClient creates a Google Calendar client.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createCalendarService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newClient(googleEvents{svc: svc}, config, logger), nil
}

func newClient(events eventsAPI, config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{events: events, config: config, logger: logger}
}

// createCalendarService creates a Google Calendar API service.
func createCalendarService(ctx context.Context, config Config) (*gcal.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, gcal.CalendarEventsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}

	return srv, nil
}

// EventID derives the calendar event ID for a missing document cycle. Google
// accepts lowercase hex, so a hyphen-free UUID is a valid ID.
func EventID(missing *model.MissingDocument) string {
	name := fmt.Sprintf("%d/%s/%s/%s", missing.PatternID, missing.DocumentType, missing.Source,
		missing.ExpectedDate.Format(common.DateLayout))
	return strings.ReplaceAll(uuid.NewSHA1(eventNamespace, []byte(name)).String(), "-", "")
}

// CreateDeadlineFromMissing creates an all-day event on the expected date.
// Creating the same cycle twice returns the existing event.
func (c *Client) CreateDeadlineFromMissing(ctx context.Context, missing *model.MissingDocument) (*model.Deadline, error) {
	if missing == nil {
		return nil, fmt.Errorf("missing document is required")
	}

	event := c.buildEvent(missing)
	retryOpts := service.RetryOptions{
		MaxAttempts:  c.config.RetryAttempts,
		InitialDelay: c.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var (
		saved    *gcal.Event
		conflict bool
	)
	err := common.WithRetry(ctx, func() error {
		ev, err := c.events.Insert(ctx, c.config.CalendarID, event)
		switch {
		case err == nil:
			saved = ev
			return nil
		case statusCode(err) == http.StatusConflict:
			conflict = true
			return nil
		case isTransient(err):
			return err
		default:
			return common.Permanent(err)
		}
	}, retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	if conflict {
		existing, err := c.events.Get(ctx, c.config.CalendarID, event.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing calendar event: %w", err)
		}
		saved = existing
	}

	c.logger.Info("mirrored missing document to calendar",
		"missing_document_id", missing.ID,
		"event_id", event.Id,
		"created", !conflict)

	return &model.Deadline{
		MissingDocumentID: missing.ID,
		EventID:           event.Id,
		Title:             event.Summary,
		Link:              saved.HtmlLink,
		Date:              common.DayOf(missing.ExpectedDate),
		Created:           !conflict,
	}, nil
}

func (c *Client) buildEvent(missing *model.MissingDocument) *gcal.Event {
	expected := common.DayOf(missing.ExpectedDate)
	label := missing.DocumentType.Label()

	return &gcal.Event{
		Id:      EventID(missing),
		Summary: fmt.Sprintf("%s due from %s", label, missing.Source),
		Description: fmt.Sprintf(
			"Expected %s from %s.\nGrace period ends %s.\nPattern confidence: %s.",
			label, missing.Source,
			missing.GracePeriodEnd.Format(common.DateLayout),
			missing.Confidence),
		Start: &gcal.EventDateTime{
			Date:     expected.Format(common.DateLayout),
			TimeZone: c.config.TimeZone,
		},
		End: &gcal.EventDateTime{
			Date:     common.AddDays(expected, 1).Format(common.DateLayout),
			TimeZone: c.config.TimeZone,
		},
		Transparency: "transparent",
	}
}

func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func isTransient(err error) bool {
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
