package models

import "time"

// ReminderCandidate is a confirmed, unreminded booking with its references resolved.
// SelectedTime is kept as stored text since historical records use several encodings.
type ReminderCandidate struct {
	BookingID      string
	SelectedTime   string
	Customer       *Customer
	EmployeeName   string
	CompanyName    string
	CompanyAddress string
}

// Contact is where a reminder is delivered.
type Contact struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	FCMToken   string `json:"fcmToken,omitempty"`
}

// ReminderSummary describes the upcoming appointment.
type ReminderSummary struct {
	BookingID      string    `json:"bookingId"`
	StartsAt       time.Time `json:"startsAt"`
	EmployeeName   string    `json:"employeeName"`
	CompanyName    string    `json:"companyName"`
	CompanyAddress string    `json:"companyAddress,omitempty"`
	TravelTime     string    `json:"travelTime,omitempty"`
}

// ReminderPayload is the queued form of a reminder.
type ReminderPayload struct {
	Contact Contact         `json:"contact"`
	Summary ReminderSummary `json:"summary"`
}
