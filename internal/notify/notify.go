// Package notify delivers reminders over the configured notification channels.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// Sender delivers a reminder over a single transport.
type Sender interface {
	Send(ctx context.Context, reminder *model.DocumentReminder) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, reminder *model.DocumentReminder) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, reminder *model.DocumentReminder) error {
	return f(ctx, reminder)
}

// Dispatcher routes a reminder to the sender registered for a channel.
type Dispatcher struct {
	senders map[model.Channel]Sender
	mu      sync.RWMutex
}

// NewDispatcher creates a dispatcher with no channels configured.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[model.Channel]Sender)}
}

// Register configures the sender for a channel, replacing any previous one.
func (d *Dispatcher) Register(channel model.Channel, sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[channel] = sender
}

// Channels lists the configured channels.
func (d *Dispatcher) Channels() []model.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	channels := make([]model.Channel, 0, len(d.senders))
	for _, c := range []model.Channel{model.ChannelApp, model.ChannelEmail, model.ChannelPush} {
		if _, ok := d.senders[c]; ok {
			channels = append(channels, c)
		}
	}
	return channels
}

// Send delivers the reminder on the given channel.
func (d *Dispatcher) Send(ctx context.Context, reminder *model.DocumentReminder, channel model.Channel) error {
	d.mu.RLock()
	sender, ok := d.senders[channel]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", common.ErrChannelNotConfigured, channel)
	}
	if err := sender.Send(ctx, reminder); err != nil {
		return fmt.Errorf("%w on %s: %w", common.ErrDeliveryFailed, channel, err)
	}
	return nil
}
