package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookme/services/notification"
	"bookme/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderWorker drains queued reminders and delivers them through a notifier.
type ReminderWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewReminderWorker(redisOpt asynq.RedisClientOpt, deliver notification.Notifier, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.ReminderQueue: 1,
			},
			Logger:   logger.Sugar(),
			LogLevel: asynq.WarnLevel,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(deliver, logger))

	return &ReminderWorker{srv: srv, mux: mux, logger: logger}
}

// Start launches the worker, retrying with backoff when Redis is not reachable yet.
func (w *ReminderWorker) Start() error {
	const maxAttempts = 5

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.srv.Start(w.mux); err == nil {
			w.logger.Info("reminder worker started")
			return nil
		}
		w.logger.Warn("reminder worker failed to start",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err))
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
	return fmt.Errorf("reminder worker: %w", err)
}

// Shutdown waits for in-flight reminders and stops the worker.
func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
	w.logger.Info("reminder worker stopped")
}

// HandleReminderTask delivers one queued reminder. Malformed tasks and reminders for
// appointments that already started are dropped without retry.
func HandleReminderTask(deliver notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderTask(task)
		if err != nil {
			logger.Error("invalid reminder task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if !p.Summary.StartsAt.IsZero() && time.Now().After(p.Summary.StartsAt) {
			logger.Warn("dropping stale reminder",
				zap.String("bookingId", p.Summary.BookingID),
				zap.Time("startsAt", p.Summary.StartsAt))
			return nil
		}

		if err := deliver.Send(ctx, p.Contact, p.Summary); err != nil {
			if errors.Is(err, notification.ErrNoRecipient) && !errors.Is(err, notification.ErrUnavailable) {
				logger.Warn("queued reminder has no recipient", zap.String("bookingId", p.Summary.BookingID))
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			logger.Error("failed to deliver queued reminder", zap.String("bookingId", p.Summary.BookingID), zap.Error(err))
			return err
		}

		logger.Info("queued reminder delivered", zap.String("bookingId", p.Summary.BookingID))
		return nil
	}
}
