package bookingRepo

import (
	"time"

	"bookme/models"

	"go.mongodb.org/mongo-driver/bson"
)

// overlapFilter matches active bookings of employeeID intersecting [start, end).
func overlapFilter(employeeID, excludeID string, start, end time.Time) bson.M {
	f := bson.M{
		"employee":     employeeID,
		"active":       true,
		"selectedTime": bson.M{"$lt": end},
		"endTime":      bson.M{"$gt": start},
	}
	if excludeID != "" {
		f["id"] = bson.M{"$ne": excludeID}
	}
	return f
}

func listFilter(f models.BookingFilter) bson.M {
	q := bson.M{}
	if f.EmployeeID != "" {
		q["employee"] = f.EmployeeID
	}
	if f.CompanyID != "" {
		q["company"] = f.CompanyID
	}
	if f.CustomerID != "" {
		q["user"] = f.CustomerID
	}
	if f.ActiveOnly {
		q["active"] = true
	}
	window := bson.M{}
	if !f.From.IsZero() {
		window["$gte"] = f.From
	}
	if !f.To.IsZero() {
		window["$lt"] = f.To
	}
	if len(window) > 0 {
		q["selectedTime"] = window
	}
	return q
}

// reminderFilter matches confirmed bookings not yet reminded. Legacy string
// timestamps cannot be range-checked in the query and are always returned.
func reminderFilter(from, to time.Time) bson.M {
	return bson.M{
		"status":       models.StatusConfirmed,
		"reminderSent": bson.M{"$ne": true},
		"$or": bson.A{
			bson.M{"selectedTime": bson.M{"$type": "string"}},
			bson.M{"selectedTime": bson.M{"$gte": from, "$lte": to}},
		},
	}
}
