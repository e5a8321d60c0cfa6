package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"bookme/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendReminder = "reminder:send"
	ReminderQueue    = "reminders"
)

// NewReminderTask builds a reminder delivery task. The task id is derived from the
// booking so the queue refuses a second reminder for the same booking.
func NewReminderTask(payload models.ReminderPayload) (*asynq.Task, []asynq.Option, error) {
	if payload.Summary.BookingID == "" {
		return nil, nil, fmt.Errorf("reminder task: missing booking id")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.TaskID(ReminderTaskID(payload.Summary.BookingID)),
		asynq.Queue(ReminderQueue),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

func ReminderTaskID(bookingID string) string {
	return "reminder:" + bookingID
}

// ParseReminderTask decodes a task built by NewReminderTask.
func ParseReminderTask(task *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("reminder task: %w", err)
	}
	if p.Summary.BookingID == "" {
		return p, fmt.Errorf("reminder task: missing booking id")
	}
	return p, nil
}
