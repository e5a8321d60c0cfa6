package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookme/services/ledger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo stores bookings in MongoDB.
// Slot claims run in a transaction that first bumps a per-employee guard
// document, so concurrent claims for one employee conflict and are retried.
type MongoBookingRepo struct {
	coll   *mongo.Collection
	guards *mongo.Collection
}

// NewMongoBookingRepo uses the "bookings" and "booking_guards" collections of db.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{
		coll:   db.Collection("bookings"),
		guards: db.Collection("booking_guards"),
	}
}

// EnsureIndexes creates the indexes the booking queries rely on.
func (r *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Two active bookings can never share an employee and start instant.
		{
			Keys: bson.D{{Key: "employee", Value: 1}, {Key: "selectedTime", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("active_slot_unique").
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys:    bson.D{{Key: "employee", Value: 1}, {Key: "active", Value: 1}, {Key: "selectedTime", Value: 1}, {Key: "endTime", Value: 1}},
			Options: options.Index().SetName("employee_active_interval_idx"),
		},
		{
			Keys:    bson.D{{Key: "company", Value: 1}, {Key: "selectedTime", Value: 1}},
			Options: options.Index().SetName("company_time_idx"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "selectedTime", Value: 1}},
			Options: options.Index().SetName("user_time_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "reminderSent", Value: 1}},
			Options: options.Index().SetName("status_reminder_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// withEmployeeGuard runs fn inside a transaction serialized per employee.
func (r *MongoBookingRepo) withEmployeeGuard(ctx context.Context, employeeID string, fn func(sc mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		_, err := r.guards.UpdateOne(sc,
			bson.M{"_id": employeeID},
			bson.M{"$inc": bson.M{"version": 1}, "$currentDate": bson.M{"touchedAt": true}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return nil, fmt.Errorf("lock employee calendar: %w", err)
		}
		return nil, fn(sc)
	})
	if err != nil {
		if errors.Is(err, ledger.ErrSlotConflict) || errors.Is(err, ledger.ErrNotFound) {
			return err
		}
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrSlotConflict
		}
		return fmt.Errorf("booking transaction failed: %w", unavailable(err))
	}
	return nil
}

func (r *MongoBookingRepo) hasOverlap(ctx context.Context, employeeID, excludeID string, start, end time.Time) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, overlapFilter(employeeID, excludeID, start, end), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check overlapping bookings: %w", err)
	}
	return n > 0, nil
}

// unavailable tags connectivity failures so callers can tell them from bad requests.
func unavailable(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ledger.ErrUpstreamUnavailable, err)
	}
	return err
}
