// Package notification delivers appointment reminders over mail, push and a task queue.
package notification

import (
	"context"
	"errors"

	"bookme/models"
)

var (
	// ErrUnavailable wraps transport failures that are worth retrying later.
	ErrUnavailable = errors.New("notification: transport unavailable")

	// ErrNoRecipient means the contact has no address for the transport.
	ErrNoRecipient = errors.New("notification: no recipient for transport")
)

// Notifier sends one reminder.
type Notifier interface {
	Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error

func (f NotifierFunc) Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error {
	return f(ctx, contact, summary)
}
