package notify

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"golang.org/x/time/rate"
)

// RateLimited throttles an outbound sender so a large backlog of reminders
// does not flood a mail server or push relay.
type RateLimited struct {
	next    Sender
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limit of perMinute sends and the given burst.
// A non-positive perMinute disables throttling.
func NewRateLimited(next Sender, perMinute float64, burst int) *RateLimited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Send waits for a token and forwards the reminder.
func (r *RateLimited) Send(ctx context.Context, reminder *model.DocumentReminder) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Send(ctx, reminder)
}
