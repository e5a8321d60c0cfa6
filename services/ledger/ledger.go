// Package ledger is the authoritative record of bookings and arbitrates slot conflicts.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"bookme/models"
	"bookme/services/hours"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists bookings. Implementations must make InsertIfFree and
// RescheduleIfFree atomic: of two concurrent calls claiming overlapping time
// for one employee, at most one succeeds and the other returns ErrSlotConflict.
type Store interface {
	InsertIfFree(ctx context.Context, b *models.Booking) error
	RescheduleIfFree(ctx context.Context, id string, start time.Time, duration int, now time.Time) (*models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	// Find filters on SelectedTime in [From, To) when those are set.
	Find(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, now time.Time) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
}

// EmployeeReader resolves the employee a booking is made with.
type EmployeeReader interface {
	EmployeeByID(ctx context.Context, id string) (*models.Employee, error)
}

// CreateInput describes a requested booking.
type CreateInput struct {
	EmployeeID string
	CompanyID  string
	CustomerID string
	Start      time.Time
	Duration   int // minutes; zero uses the employee's nominal duration
	Status     models.BookingStatus
}

// Ledger validates and records bookings.
type Ledger struct {
	store     Store
	employees EmployeeReader
	loc       *time.Location
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time
}

type Option func(*Ledger)

func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, employees EmployeeReader, loc *time.Location, logger *zap.Logger, opts ...Option) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{store: store, employees: employees, loc: loc, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

// LegalTransition reports whether from -> to follows the booking lifecycle.
func LegalTransition(from, to models.BookingStatus) bool {
	return from == to || slices.Contains(transitions[from], to)
}

// Create validates the candidate against the employee's hours and records it
// if no active booking of the same employee overlaps it.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (b *models.Booking, err error) {
	defer func() { l.metrics.observe("create", err) }()

	if in.Start.IsZero() {
		return nil, InvalidSlot("start time is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	emp, err := l.employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	companyID := in.CompanyID
	if companyID == "" {
		companyID = emp.CompanyID
	} else if emp.CompanyID != "" && emp.CompanyID != companyID {
		return nil, NotFound("employee", in.EmployeeID+" in company "+companyID)
	}

	duration := in.Duration
	if duration <= 0 {
		duration = hours.DefaultDuration(*emp)
	}
	if err := l.validate(*emp, in.Start, duration); err != nil {
		return nil, err
	}

	now := l.now()
	b = &models.Booking{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		EmployeeID:   emp.ID,
		CustomerID:   in.CustomerID,
		SelectedTime: in.Start,
		EndTime:      in.Start.Add(time.Duration(duration) * time.Minute),
		Duration:     duration,
		Status:       status,
		Active:       status.Active(),
		ReminderSent: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.store.InsertIfFree(ctx, b); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			l.logger.Info("booking rejected: slot taken",
				zap.String("employeeId", emp.ID),
				zap.Time("start", in.Start),
				zap.Int("duration", duration))
			return nil, err
		}
		return nil, fmt.Errorf("ledger: insert booking: %w", err)
	}

	l.logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("employeeId", b.EmployeeID),
		zap.String("status", string(b.Status)),
		zap.Time("start", b.SelectedTime))
	return b, nil
}

// UpdateStatus sets the status of a booking. Repeating the current status is a no-op.
// Transitions outside the usual lifecycle are accepted and logged.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) (b *models.Booking, err error) {
	defer func() { l.metrics.observe("update_status", err) }()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	current, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	if !LegalTransition(current.Status, status) {
		l.logger.Warn("unusual status transition accepted",
			zap.String("bookingId", id),
			zap.String("from", string(current.Status)),
			zap.String("to", string(status)))
	}

	b, err = l.store.UpdateStatus(ctx, id, status, l.now())
	if err != nil {
		return nil, l.storeErr("update status", err)
	}
	return b, nil
}

// Reschedule moves a booking to a new start and duration under the same rules as Create.
// The reminder flag is reset so the new time gets its own reminder.
func (l *Ledger) Reschedule(ctx context.Context, id string, start time.Time, duration int) (b *models.Booking, err error) {
	defer func() { l.metrics.observe("reschedule", err) }()

	if start.IsZero() {
		return nil, InvalidSlot("start time is required")
	}
	current, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	emp, err := l.employee(ctx, current.EmployeeID)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = current.Duration
	}
	if err := l.validate(*emp, start, duration); err != nil {
		return nil, err
	}

	b, err = l.store.RescheduleIfFree(ctx, id, start, duration, l.now())
	if err != nil {
		return nil, l.storeErr("reschedule", err)
	}
	l.logger.Info("booking rescheduled", zap.String("bookingId", id), zap.Time("start", start), zap.Int("duration", duration))
	return b, nil
}

// Delete removes a booking.
func (l *Ledger) Delete(ctx context.Context, id string) (err error) {
	defer func() { l.metrics.observe("delete", err) }()

	if err := l.store.Delete(ctx, id); err != nil {
		return l.storeErr("delete", err)
	}
	l.logger.Info("booking deleted", zap.String("bookingId", id))
	return nil
}

// Get returns a single booking.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, l.storeErr("get", err)
	}
	return b, nil
}

// List returns every booking matching f. A zero filter lists all bookings.
func (l *Ledger) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	return l.list(ctx, f)
}

func (l *Ledger) ListByEmployee(ctx context.Context, employeeID string) ([]models.Booking, error) {
	return l.list(ctx, models.BookingFilter{EmployeeID: employeeID})
}

func (l *Ledger) ListByCompany(ctx context.Context, companyID string) ([]models.Booking, error) {
	return l.list(ctx, models.BookingFilter{CompanyID: companyID})
}

func (l *Ledger) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return l.list(ctx, models.BookingFilter{CustomerID: customerID})
}

func (l *Ledger) list(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	out, err := l.store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("ledger: list bookings: %w", err)
	}
	if out == nil {
		out = []models.Booking{}
	}
	return out, nil
}

func (l *Ledger) employee(ctx context.Context, id string) (*models.Employee, error) {
	if id == "" {
		return nil, NotFound("employee", "(empty id)")
	}
	emp, err := l.employees.EmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger: load employee %s: %w", id, err)
	}
	return emp, nil
}

func (l *Ledger) validate(emp models.Employee, start time.Time, duration int) error {
	sched, err := hours.ScheduleFor(emp)
	if err != nil {
		l.logger.Warn("employee has no usable schedule", zap.String("employeeId", emp.ID), zap.Error(err))
		return InvalidSlot(hours.ErrInvalidSchedule.Error())
	}
	if hours.LunchIgnored(emp) {
		l.logger.Warn("ignoring unparseable lunch window",
			zap.String("employeeId", emp.ID),
			zap.String("lunchStart", emp.LunchTimeStart),
			zap.String("lunchEnd", emp.LunchTimeEnd))
	}
	if v := hours.EvaluateAt(sched, start, duration, l.loc); !v.Valid {
		return InvalidSlot(v.Reason)
	}
	return nil
}

func (l *Ledger) storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlotConflict) {
		return err
	}
	return fmt.Errorf("ledger: %s: %w", op, err)
}
