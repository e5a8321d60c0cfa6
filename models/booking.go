package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active statuses occupy their slot.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a customer's claim on an employee's time.
type Booking struct {
	ID           string        `bson:"id" json:"id"`
	CompanyID    string        `bson:"company" json:"company"`
	EmployeeID   string        `bson:"employee" json:"employee"`
	CustomerID   string        `bson:"user,omitempty" json:"user,omitempty"` // empty for guest or company-initiated
	SelectedTime time.Time     `bson:"selectedTime" json:"selectedTime"`
	EndTime      time.Time     `bson:"endTime" json:"endTime"`
	Duration     int           `bson:"duration" json:"duration"` // minutes
	Status       BookingStatus `bson:"status" json:"status"`
	Active       bool          `bson:"active" json:"-"`
	ReminderSent bool          `bson:"reminderSent" json:"reminderSent"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// End is the exclusive end of the booked interval.
func (b Booking) End() time.Time {
	return b.SelectedTime.Add(time.Duration(b.Duration) * time.Minute)
}

// Overlaps reports whether the booking's interval intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.SelectedTime.Before(end) && start.Before(b.End())
}

// BookingFilter narrows ledger listings. Zero fields are ignored.
type BookingFilter struct {
	EmployeeID string
	CompanyID  string
	CustomerID string
	From       time.Time
	To         time.Time
	ActiveOnly bool
}
