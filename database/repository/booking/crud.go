package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookme/models"
	"bookme/services/ledger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertIfFree inserts b unless an active booking of the same employee overlaps it.
func (r *MongoBookingRepo) InsertIfFree(ctx context.Context, b *models.Booking) error {
	return r.withEmployeeGuard(ctx, b.EmployeeID, func(sc mongo.SessionContext) error {
		if b.Active {
			taken, err := r.hasOverlap(sc, b.EmployeeID, "", b.SelectedTime, b.EndTime)
			if err != nil {
				return err
			}
			if taken {
				return ledger.ErrSlotConflict
			}
		}
		if _, err := r.coll.InsertOne(sc, b); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrSlotConflict
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
}

// RescheduleIfFree moves a booking, ignoring the booking itself when checking overlap.
func (r *MongoBookingRepo) RescheduleIfFree(ctx context.Context, id string, start time.Time, duration int, now time.Time) (*models.Booking, error) {
	// The employee of a booking never changes, so the guard can be picked up front.
	owner, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	var current *models.Booking
	err = r.withEmployeeGuard(ctx, owner.EmployeeID, func(sc mongo.SessionContext) error {
		var err error
		if current, err = r.findInTx(sc, id); err != nil {
			return err
		}
		if current.Active {
			taken, err := r.hasOverlap(sc, current.EmployeeID, id, start, end)
			if err != nil {
				return err
			}
			if taken {
				return ledger.ErrSlotConflict
			}
		}
		res, err := r.coll.UpdateOne(sc, bson.M{"id": id}, bson.M{"$set": bson.M{
			"selectedTime": start,
			"endTime":      end,
			"duration":     duration,
			"reminderSent": false,
			"updatedAt":    now,
		}})
		if err != nil {
			return fmt.Errorf("reschedule booking failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ledger.NotFound("booking", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	current.SelectedTime, current.EndTime, current.Duration = start, end, duration
	current.ReminderSent, current.UpdatedAt = false, now
	return current, nil
}

// findInTx reads a booking inside a guarded transaction so retries see fresh state.
func (r *MongoBookingRepo) findInTx(sc mongo.SessionContext, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.coll.FindOne(sc, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.NotFound("booking", id)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

// FindByID returns the booking with the given id.
func (r *MongoBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.NotFound("booking", id)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, unavailable(err))
	}
	return &b, nil
}

// Find lists bookings matching f ordered by start time.
func (r *MongoBookingRepo) Find(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "selectedTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", unavailable(err))
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus sets the status and derived active flag. Re-activating a
// booking is a slot claim and goes through the employee guard.
func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, now time.Time) (*models.Booking, error) {
	if !status.Active() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return r.setStatus(ctx, id, status, now)
	}

	owner, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var updated *models.Booking
	err = r.withEmployeeGuard(ctx, owner.EmployeeID, func(sc mongo.SessionContext) error {
		current, err := r.findInTx(sc, id)
		if err != nil {
			return err
		}
		if !current.Active {
			taken, err := r.hasOverlap(sc, current.EmployeeID, id, current.SelectedTime, current.End())
			if err != nil {
				return err
			}
			if taken {
				return ledger.ErrSlotConflict
			}
		}
		updated, err = r.setStatus(sc, id, status, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *MongoBookingRepo) setStatus(ctx context.Context, id string, status models.BookingStatus, now time.Time) (*models.Booking, error) {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"active":    status.Active(),
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.NotFound("booking", id)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ledger.ErrSlotConflict
		}
		return nil, fmt.Errorf("failed to update booking status: %w", unavailable(err))
	}
	return &b, nil
}

// Delete removes the booking with the given id.
func (r *MongoBookingRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, unavailable(err))
	}
	if res.DeletedCount == 0 {
		return ledger.NotFound("booking", id)
	}
	return nil
}
