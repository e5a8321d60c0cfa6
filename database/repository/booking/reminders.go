package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"bookme/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type reminderDoc struct {
	ID           string           `bson:"id"`
	SelectedTime bson.RawValue    `bson:"selectedTime"`
	Customer     *models.Customer `bson:"customer"`
	Staff        *models.Employee `bson:"staff"`
	Owner        *models.Company  `bson:"owner"`
}

func lookupOne(from, localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// PendingReminders returns confirmed, unreminded bookings that may start within
// [from, to], with customer, employee and company resolved.
func (r *MongoBookingRepo) PendingReminders(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$match", Value: reminderFilter(from, to)}}}
	pipeline = append(pipeline, lookupOne("users", "user", "customer")...)
	pipeline = append(pipeline, lookupOne("employees", "employee", "staff")...)
	pipeline = append(pipeline, lookupOne("companies", "company", "owner")...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.ReminderCandidate
	for cursor.Next(ctx) {
		var doc reminderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode reminder candidate: %w", err)
		}
		out = append(out, doc.candidate())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("reminder candidate cursor: %w", err)
	}
	return out, nil
}

func (d reminderDoc) candidate() models.ReminderCandidate {
	c := models.ReminderCandidate{
		BookingID:    d.ID,
		SelectedTime: rawTimeString(d.SelectedTime),
		Customer:     d.Customer,
	}
	if d.Staff != nil {
		c.EmployeeName = d.Staff.EmployeeName
	}
	if d.Owner != nil {
		c.CompanyName = d.Owner.CompanyName
		c.CompanyAddress = d.Owner.Address
	}
	return c
}

// rawTimeString renders a stored selectedTime as text. Dates become RFC 3339;
// strings pass through untouched for the reminder parser to interpret.
func rawTimeString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeDateTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case bson.TypeString:
		return v.StringValue()
	default:
		return ""
	}
}

// MarkReminderSent flips reminderSent from false to true. It reports false if
// the booking was already marked or no longer exists.
func (r *MongoBookingRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "reminderSent": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"reminderSent": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent for %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}
