// Package reminder sends a one-time notice shortly before confirmed appointments.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookme/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNoContact      = errors.New("reminder: booking has no reachable customer")
	errAlreadyClaimed = errors.New("reminder: claimed elsewhere")
)

// Source lists reminder candidates and records delivery.
type Source interface {
	PendingReminders(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error)
	// MarkReminderSent flips reminderSent false -> true and reports whether it did.
	MarkReminderSent(ctx context.Context, bookingID string) (bool, error)
}

// Notifier delivers a reminder to a customer.
type Notifier interface {
	Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error
}

// TravelEstimator estimates travel time between two addresses.
type TravelEstimator interface {
	EstimateTravelTime(ctx context.Context, origin, destination string) (string, error)
}

// Claimer grants one sweeper at a time the right to remind a booking.
type Claimer interface {
	Claim(ctx context.Context, bookingID string) (bool, error)
	Release(ctx context.Context, bookingID string) error
}

// Window is the range of time-until-start that makes a booking due.
type Window struct {
	Min time.Duration
	Max time.Duration
}

func DefaultWindow() Window {
	return Window{Min: 55 * time.Minute, Max: 65 * time.Minute}
}

// Contains reports whether d lies in [Min, Max].
func (w Window) Contains(d time.Duration) bool {
	return d >= w.Min && d <= w.Max
}

type SweeperConfig struct {
	Window         Window
	Location       *time.Location
	SendsPerSecond float64 // <= 0 disables pacing
	TravelTimeout  time.Duration
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Due     int `json:"due"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Sweeper finds due bookings and reminds each at most once.
type Sweeper struct {
	source     Source
	notifier   Notifier
	claimer    Claimer
	directions TravelEstimator
	cfg        SweeperConfig
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *Metrics
}

type SweeperOption func(*Sweeper)

func WithClaimer(c Claimer) SweeperOption {
	return func(s *Sweeper) { s.claimer = c }
}

func WithDirections(d TravelEstimator) SweeperOption {
	return func(s *Sweeper) { s.directions = d }
}

func WithMetrics(m *Metrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

func NewSweeper(source Source, notifier Notifier, cfg SweeperConfig, logger *zap.Logger, opts ...SweeperOption) *Sweeper {
	if cfg.Window == (Window{}) {
		cfg.Window = DefaultWindow()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TravelTimeout <= 0 {
		cfg.TravelTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.SendsPerSecond > 0 {
		limit = rate.Limit(cfg.SendsPerSecond)
	}
	s := &Sweeper{
		source:   source,
		notifier: notifier,
		claimer:  noopClaimer{},
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep reminds every candidate whose start is inside the window relative to now.
// A failure for one booking is logged and never stops the rest; the booking is
// reconsidered on the next sweep while it stays inside the window.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport
	began := time.Now()
	defer func() { s.metrics.observeSweep(report, time.Since(began)) }()

	now = now.In(s.cfg.Location)
	candidates, err := s.source.PendingReminders(ctx, now.Add(s.cfg.Window.Min), now.Add(s.cfg.Window.Max))
	if err != nil {
		return report, fmt.Errorf("reminder: list candidates: %w", err)
	}
	report.Scanned = len(candidates)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			s.logger.Info("reminder sweep interrupted", zap.Int("sent", report.Sent), zap.Error(err))
			return report, err
		}

		startsAt, err := ParseSelectedTime(c.SelectedTime, s.cfg.Location)
		if err != nil {
			s.logger.Warn("skipping booking with unparseable time",
				zap.String("bookingId", c.BookingID),
				zap.String("selectedTime", c.SelectedTime))
			report.Skipped++
			continue
		}
		if !s.cfg.Window.Contains(startsAt.Sub(now)) {
			continue
		}
		report.Due++

		err = s.remind(ctx, c, startsAt)
		switch {
		case err == nil:
			report.Sent++
		case errors.Is(err, errAlreadyClaimed):
			s.logger.Debug("reminder claimed by another sweeper", zap.String("bookingId", c.BookingID))
			report.Skipped++
		case errors.Is(err, ErrNoContact):
			s.logger.Warn("skipping booking without customer contact", zap.String("bookingId", c.BookingID))
			report.Skipped++
		default:
			s.logger.Error("reminder failed", zap.String("bookingId", c.BookingID), zap.Error(err))
			report.Failed++
		}
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *Sweeper) remind(ctx context.Context, c models.ReminderCandidate, startsAt time.Time) error {
	contact, ok := contactFor(c)
	if !ok {
		return ErrNoContact
	}

	claimed, err := s.claimer.Claim(ctx, c.BookingID)
	if err != nil {
		return fmt.Errorf("claim booking: %w", err)
	}
	if !claimed {
		return errAlreadyClaimed
	}
	delivered := false
	defer func() {
		if delivered {
			return
		}
		// Give the booking back so the next sweep can retry it.
		if err := s.claimer.Release(context.WithoutCancel(ctx), c.BookingID); err != nil {
			s.logger.Warn("failed to release reminder claim", zap.String("bookingId", c.BookingID), zap.Error(err))
		}
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	summary := models.ReminderSummary{
		BookingID:      c.BookingID,
		StartsAt:       startsAt,
		EmployeeName:   c.EmployeeName,
		CompanyName:    c.CompanyName,
		CompanyAddress: c.CompanyAddress,
		TravelTime:     s.travelTime(ctx, contact.Address, c.CompanyAddress),
	}

	began := time.Now()
	err = s.notifier.Send(ctx, contact, summary)
	s.metrics.observeSend(time.Since(began))
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	delivered = true

	marked, err := s.source.MarkReminderSent(ctx, c.BookingID)
	if err != nil {
		// The claim stays until it expires, which keeps other sweepers off this booking meanwhile.
		s.logger.Error("reminder sent but not marked", zap.String("bookingId", c.BookingID), zap.Error(err))
		return nil
	}
	if !marked {
		s.logger.Debug("reminder flag was already set", zap.String("bookingId", c.BookingID))
	}
	s.logger.Info("reminder sent", zap.String("bookingId", c.BookingID), zap.Time("startsAt", startsAt))
	return nil
}

// travelTime is best effort; any failure yields an empty estimate.
func (s *Sweeper) travelTime(ctx context.Context, origin, destination string) string {
	if s.directions == nil || origin == "" || destination == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TravelTimeout)
	defer cancel()

	text, err := s.directions.EstimateTravelTime(ctx, origin, destination)
	if err != nil {
		s.logger.Debug("travel time unavailable", zap.Error(err))
		return ""
	}
	return text
}

func contactFor(c models.ReminderCandidate) (models.Contact, bool) {
	u := c.Customer
	if u == nil || (u.Email == "" && u.FCMToken == "") {
		return models.Contact{}, false
	}
	return models.Contact{
		CustomerID: u.ID,
		Name:       u.Username,
		Email:      u.Email,
		Phone:      u.PhoneNumber,
		Address:    u.Address,
		FCMToken:   u.FCMToken,
	}, true
}

type noopClaimer struct{}

func (noopClaimer) Claim(context.Context, string) (bool, error) { return true, nil }
func (noopClaimer) Release(context.Context, string) error       { return nil }
