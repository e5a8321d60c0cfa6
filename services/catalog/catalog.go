// Package catalog derives an employee's calendar view: closed hours, lunch and existing bookings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"bookme/models"
	"bookme/services/hours"

	"go.uber.org/zap"
)

// MaxRangeDays bounds a single catalog request.
const MaxRangeDays = 62

// ReasonSlotTaken is reported by Precheck when an active booking already covers the slot.
const ReasonSlotTaken = "slot already booked"

var ErrInvalidRange = errors.New("catalog: invalid date range")

// EmployeeReader resolves employees.
type EmployeeReader interface {
	EmployeeByID(ctx context.Context, id string) (*models.Employee, error)
}

// BookingReader lists stored bookings.
type BookingReader interface {
	Find(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

// Service serves catalog views. It holds no booking state of its own.
type Service struct {
	employees EmployeeReader
	bookings  BookingReader
	loc       *time.Location
	logger    *zap.Logger
}

func NewService(employees EmployeeReader, bookings BookingReader, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{employees: employees, bookings: bookings, loc: loc, logger: logger}
}

// Entries returns the calendar of an employee for every local day from `from` through `to`.
func (s *Service) Entries(ctx context.Context, employeeID string, from, to time.Time) (iter.Seq[models.CatalogEntry], error) {
	first, last, err := s.days(from, to)
	if err != nil {
		return nil, err
	}

	emp, err := s.employees.EmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if hours.LunchIgnored(*emp) {
		s.logger.Warn("ignoring unparseable lunch window",
			zap.String("employeeId", emp.ID),
			zap.String("lunchStart", emp.LunchTimeStart),
			zap.String("lunchEnd", emp.LunchTimeEnd))
	}

	booked, err := s.bookings.Find(ctx, models.BookingFilter{
		EmployeeID: employeeID,
		From:       first,
		To:         last.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list bookings: %w", err)
	}

	return Build(*emp, booked, first, last, s.loc), nil
}

// Precheck rejects candidates that are obviously illegal before they reach the ledger.
// A passing precheck is advisory; the ledger still arbitrates.
func (s *Service) Precheck(ctx context.Context, employeeID string, start time.Time, duration int) (hours.Verdict, error) {
	emp, err := s.employees.EmployeeByID(ctx, employeeID)
	if err != nil {
		return hours.Verdict{}, err
	}
	if duration <= 0 {
		duration = hours.DefaultDuration(*emp)
	}
	sched, err := hours.ScheduleFor(*emp)
	if err != nil {
		return hours.Verdict{Reason: hours.ErrInvalidSchedule.Error()}, nil
	}
	if v := hours.EvaluateAt(sched, start, duration, s.loc); !v.Valid {
		return v, nil
	}

	end := start.Add(time.Duration(duration) * time.Minute)
	booked, err := s.bookings.Find(ctx, models.BookingFilter{
		EmployeeID: employeeID,
		From:       start.Add(-24 * time.Hour),
		To:         end,
		ActiveOnly: true,
	})
	if err != nil {
		return hours.Verdict{}, fmt.Errorf("catalog: list bookings: %w", err)
	}
	for _, b := range booked {
		if b.Status.Active() && b.Overlaps(start, end) {
			return hours.Verdict{Reason: ReasonSlotTaken}, nil
		}
	}
	return hours.Verdict{Valid: true}, nil
}

// DurationOptions returns the fixed menu with the employee's nominal duration as default.
func (s *Service) DurationOptions(ctx context.Context, employeeID string) (models.DurationMenu, error) {
	emp, err := s.employees.EmployeeByID(ctx, employeeID)
	if err != nil {
		return models.DurationMenu{}, err
	}
	return models.DurationMenu{Options: hours.DurationOptions(), Default: hours.DefaultDuration(*emp)}, nil
}

func (s *Service) days(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from and to are required", ErrInvalidRange)
	}
	first := hours.DayStart(from, s.loc)
	last := hours.DayStart(to, s.loc)
	if last.Before(first) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to is before from", ErrInvalidRange)
	}
	if last.Sub(first) > MaxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: more than %d days", ErrInvalidRange, MaxRangeDays)
	}
	return first, last, nil
}

// Build lays out the calendar of emp for each local day from first through last.
// Each day yields closed hours, lunch and that day's bookings in start order.
// The sequence is lazy and may be ranged over any number of times.
func Build(emp models.Employee, booked []models.Booking, first, last time.Time, loc *time.Location) iter.Seq[models.CatalogEntry] {
	if loc == nil {
		loc = time.UTC
	}
	sched, schedErr := hours.ScheduleFor(emp)

	sorted := slices.Clone(booked)
	slices.SortFunc(sorted, func(a, b models.Booking) int { return a.SelectedTime.Compare(b.SelectedTime) })

	first = hours.DayStart(first, loc)
	last = hours.DayStart(last, loc)

	return func(yield func(models.CatalogEntry) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			next := day.AddDate(0, 0, 1)
			entry := func(kind models.EntryKind, from, to int) models.CatalogEntry {
				return models.CatalogEntry{EmployeeID: emp.ID, Kind: kind, Start: hours.At(day, from), End: hours.At(day, to)}
			}

			if schedErr == nil {
				if sched.ShiftStart > 0 && !yield(entry(models.EntryBlockedBeforeOpen, 0, sched.ShiftStart)) {
					return
				}
				if sched.ShiftEnd < 24*60 && !yield(entry(models.EntryBlockedAfterClose, sched.ShiftEnd, 24*60)) {
					return
				}
				if sched.HasLunch && !yield(entry(models.EntryLunchBreak, sched.LunchStart, sched.LunchEnd)) {
					return
				}
			} else if !yield(entry(models.EntryBlockedBeforeOpen, 0, 24*60)) {
				// Without a usable shift the whole day is closed.
				return
			}

			for _, b := range sorted {
				if b.SelectedTime.Before(day) || !b.SelectedTime.Before(next) {
					continue
				}
				e := models.CatalogEntry{
					EmployeeID: emp.ID,
					Kind:       models.EntryBooking,
					Start:      b.SelectedTime.In(loc),
					End:        b.End().In(loc),
					BookingID:  b.ID,
					Status:     b.Status,
				}
				if !yield(e) {
					return
				}
			}
		}
	}
}
