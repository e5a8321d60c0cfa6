package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidSlot         = errors.New("invalid slot")
	ErrSlotConflict        = errors.New("slot already booked")
	ErrNotFound            = errors.New("not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// SlotError carries the kind of a ledger failure and a human-readable reason.
type SlotError struct {
	Kind   error
	Reason string
}

func (e *SlotError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *SlotError) Unwrap() error { return e.Kind }

// InvalidSlot wraps a working-hours rejection reason.
func InvalidSlot(reason string) error {
	return &SlotError{Kind: ErrInvalidSlot, Reason: reason}
}

// NotFound names the missing entity.
func NotFound(what, id string) error {
	return &SlotError{Kind: ErrNotFound, Reason: fmt.Sprintf("%s %s", what, id)}
}

// Reason extracts the human-readable reason of a ledger error, if any.
func Reason(err error) string {
	var se *SlotError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
