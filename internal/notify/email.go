package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Host     string
	Username string
	Password string
	From     string
	To       []string
	Port     int
}

// DefaultEmailConfig returns the email defaults.
func DefaultEmailConfig() EmailConfig {
	return EmailConfig{Port: 587}
}

// Validate ensures the configuration can deliver mail.
func (c EmailConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: email host is required", common.ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: email port %d out of range", common.ErrInvalidConfig, c.Port)
	}
	if c.From == "" {
		return fmt.Errorf("%w: email sender is required", common.ErrInvalidConfig)
	}
	if len(c.To) == 0 {
		return fmt.Errorf("%w: at least one email recipient is required", common.ErrInvalidConfig)
	}
	return nil
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers reminders over SMTP.
type EmailNotifier struct {
	sendMail sendMailFunc
	config   EmailConfig
	retry    service.RetryOptions
}

// NewEmailNotifier creates an SMTP sender.
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EmailNotifier{
		config:   config,
		sendMail: smtp.SendMail,
		retry:    service.RetryOptions{MaxAttempts: 3},
	}, nil
}

// Send mails the reminder to every configured recipient.
func (e *EmailNotifier) Send(ctx context.Context, reminder *model.DocumentReminder) error {
	addr := net.JoinHostPort(e.config.Host, strconv.Itoa(e.config.Port))

	var auth smtp.Auth
	if e.config.Username != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	}

	msg := e.compose(reminder)
	return common.WithRetry(ctx, func() error {
		return e.sendMail(addr, auth, e.config.From, e.config.To, msg)
	}, e.retry)
}

func (e *EmailNotifier) compose(reminder *model.DocumentReminder) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", e.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.config.To, ", "))
	fmt.Fprintf(&b, "Subject: [paperwork] %s\r\n", reminder.Title)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	fmt.Fprintf(&b, "X-Paperwork-Reminder: %s\r\n", reminder.ID)
	b.WriteString("\r\n")
	b.WriteString(reminder.Message)
	b.WriteString("\r\n\r\n")
	fmt.Fprintf(&b, "Expected: %s\r\n", reminder.ExpectedDate.Format(common.DateLayout))
	fmt.Fprintf(&b, "Urgency: %s\r\n", reminder.Urgency)
	return b.Bytes()
}
