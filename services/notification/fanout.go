package notification

import (
	"context"
	"errors"

	"bookme/models"
)

// Fanout offers a reminder to every transport and succeeds when at least one
// delivers it.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Delivers reports whether any transport can reach a customer. Transports
// that do not say otherwise are assumed to deliver.
func (f *Fanout) Delivers() bool {
	for _, n := range f.notifiers {
		d, ok := n.(interface{ Delivers() bool })
		if !ok || d.Delivers() {
			return true
		}
	}
	return false
}

func (f *Fanout) Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error {
	var errs []error
	delivered := false
	for _, n := range f.notifiers {
		if err := n.Send(ctx, contact, summary); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoRecipient
	}
	return errors.Join(errs...)
}
