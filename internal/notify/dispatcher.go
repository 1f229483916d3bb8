package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teamtask/teamtask-api/internal/constants"
	"github.com/teamtask/teamtask-api/internal/models"
)

var ErrNoRecipient = errors.New("user has no contact for the preferred channel")

// Dispatcher sends notifications on the recipient's preferred channel without
// blocking the caller. Failures are logged and never returned.
type Dispatcher struct {
	sender  Sender
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.timeout = d
	}
}

func NewDispatcher(sender Sender, log *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		log:     log.With("component", "notify.dispatcher"),
		timeout: constants.NotificationTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify queues a delivery to user and returns immediately.
func (d *Dispatcher) Notify(user *models.User, subject, body string) {
	if user == nil {
		return
	}
	recipient := *user

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		channel, err := d.Send(ctx, &recipient, subject, body)
		if err != nil {
			d.log.Error("notification failed",
				"user_id", recipient.ID, "channel", channel, "subject", subject, "error", err)
			return
		}
		d.log.Info("notification sent",
			"user_id", recipient.ID, "channel", channel, "subject", subject)
	}()
}

// Send delivers synchronously and reports the channel that was used.
func (d *Dispatcher) Send(ctx context.Context, user *models.User, subject, body string) (models.NotificationChannel, error) {
	if user.NotificationPreference == models.ChannelSMS {
		if user.PhoneNumber == "" {
			return models.ChannelSMS, ErrNoRecipient
		}
		return models.ChannelSMS, d.sender.SendSMS(ctx, user.PhoneNumber, body)
	}

	if user.Email == "" {
		return models.ChannelEmail, ErrNoRecipient
	}
	return models.ChannelEmail, d.sender.SendEmail(ctx, user.Email, subject, body)
}

// Wait blocks until every queued delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
