package notification

import (
	"context"
	"errors"
	"fmt"

	"bookme/models"
	"bookme/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client used to queue reminders.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands reminders to the asynq worker instead of delivering inline.
type QueueNotifier struct {
	enqueuer Enqueuer
	logger   *zap.Logger
}

func NewQueueNotifier(enqueuer Enqueuer, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{enqueuer: enqueuer, logger: logger}
}

func (q *QueueNotifier) Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error {
	task, opts, err := tasks.NewReminderTask(models.ReminderPayload{Contact: contact, Summary: summary})
	if err != nil {
		return err
	}

	info, err := q.enqueuer.EnqueueContext(ctx, task, opts...)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict):
		q.logger.Debug("reminder already queued", zap.String("bookingId", summary.BookingID))
		return nil
	case err != nil:
		return fmt.Errorf("%w: enqueue: %v", ErrUnavailable, err)
	}
	q.logger.Debug("reminder queued", zap.String("bookingId", summary.BookingID), zap.String("taskId", info.ID))
	return nil
}
