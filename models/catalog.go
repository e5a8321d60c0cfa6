package models

import "time"

// EntryKind labels a calendar interval.
type EntryKind string

const (
	EntryBlockedBeforeOpen EntryKind = "blocked-before-open"
	EntryBlockedAfterClose EntryKind = "blocked-after-close"
	EntryLunchBreak        EntryKind = "lunch-break"
	EntryBooking           EntryKind = "booking"
)

// CatalogEntry is one labelled interval of an employee's calendar.
type CatalogEntry struct {
	EmployeeID string        `json:"employeeId"`
	Kind       EntryKind     `json:"kind"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	BookingID  string        `json:"bookingId,omitempty"`
	Status     BookingStatus `json:"status,omitempty"`
}

// DurationMenu is the set of durations offered for an employee.
type DurationMenu struct {
	Options []int `json:"options"`
	Default int   `json:"default"`
}
