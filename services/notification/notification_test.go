package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bookme/models"
	"bookme/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ub = time.FixedZone("UB", 8*3600)

func contact() models.Contact {
	return models.Contact{
		CustomerID: "u-1",
		Name:       "Bat",
		Email:      "bat@example.mn",
		Address:    "Zaisan 4",
		FCMToken:   "device-token",
	}
}

func summary() models.ReminderSummary {
	return models.ReminderSummary{
		BookingID:      "b-1",
		StartsAt:       time.Date(2025, 6, 2, 11, 0, 0, 0, ub),
		EmployeeName:   "Saraa",
		CompanyName:    "Lotus Salon",
		CompanyAddress: "Peace Avenue 12",
		TravelTime:     "23 mins",
	}
}

type captureTransport struct {
	from, to string
	msg      string
	err      error
}

func (c *captureTransport) Deliver(_ context.Context, from, to string, msg []byte) error {
	c.from, c.to, c.msg = from, to, string(msg)
	return c.err
}

func TestMailNotifierRendersReminder(t *testing.T) {
	tr := &captureTransport{}
	m := NewMailNotifier(MailConfig{From: "no-reply@bookme.mn", BookingsURL: "https://bookme.mn/bookings"}, nil, WithTransport(tr))

	require.NoError(t, m.Send(context.Background(), contact(), summary()))
	assert.Equal(t, "no-reply@bookme.mn", tr.from)
	assert.Equal(t, "bat@example.mn", tr.to)

	headers, body, ok := strings.Cut(tr.msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "To: bat@example.mn")
	assert.Contains(t, headers, "Subject: =?utf-8?q?")
	assert.Contains(t, headers, "Content-Type: text/html")

	assert.Contains(t, body, "Сайн байна уу, Bat!")
	assert.Contains(t, body, "2025-06-02 11:00")
	assert.Contains(t, body, "Saraa")
	assert.Contains(t, body, "Lotus Salon")
	assert.Contains(t, body, "b-1")
	assert.Contains(t, body, "23 mins")
	assert.Contains(t, body, "Zaisan 4")
	assert.Contains(t, body, `href="https://bookme.mn/bookings"`)
}

func TestMailNotifierOmitsTravelWhenUnknown(t *testing.T) {
	tr := &captureTransport{}
	s := summary()
	s.TravelTime = ""
	s.EmployeeName = ""

	require.NoError(t, NewMailNotifier(MailConfig{}, nil, WithTransport(tr)).Send(context.Background(), contact(), s))
	assert.NotContains(t, tr.msg, "Очих хугацаа")
	assert.Contains(t, tr.msg, "N/A")
}

func TestMailNotifierEscapesNames(t *testing.T) {
	tr := &captureTransport{}
	c := contact()
	c.Name = "<script>alert(1)</script>"

	require.NoError(t, NewMailNotifier(MailConfig{}, nil, WithTransport(tr)).Send(context.Background(), c, summary()))
	assert.NotContains(t, tr.msg, "<script>")
}

func TestMailNotifierErrors(t *testing.T) {
	c := contact()
	c.Email = " "
	err := NewMailNotifier(MailConfig{}, nil).Send(context.Background(), c, summary())
	assert.ErrorIs(t, err, ErrNoRecipient)

	tr := &captureTransport{err: errors.New("535 authentication failed")}
	err = NewMailNotifier(MailConfig{}, nil, WithTransport(tr)).Send(context.Background(), contact(), summary())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "535")
}

func TestMailNotifierDisabledIsNoop(t *testing.T) {
	m := NewMailNotifier(MailConfig{Enabled: true}, nil)
	assert.IsType(t, noopTransport{}, m.transport)
	assert.NoError(t, m.Send(context.Background(), contact(), summary()))
	assert.False(t, m.Delivers())

	m = NewMailNotifier(MailConfig{Enabled: true, Host: "smtp.example.mn", Port: 587}, nil)
	assert.IsType(t, &smtpTransport{}, m.transport)
	assert.True(t, m.Delivers())
}

func TestFanoutDelivers(t *testing.T) {
	dropped := NewMailNotifier(MailConfig{}, nil)
	live := NewMailNotifier(MailConfig{}, nil, WithTransport(&captureTransport{}))

	assert.False(t, NewFanout().Delivers())
	assert.False(t, NewFanout(dropped).Delivers())
	assert.True(t, NewFanout(dropped, live).Delivers())
	assert.True(t, NewFanout(dropped, NewPushNotifier(&fakeSender{}, nil)).Delivers())
}

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "projects/bookme/messages/1", nil
}

func TestPushNotifier(t *testing.T) {
	sender := &fakeSender{}
	p := NewPushNotifier(sender, nil)

	require.NoError(t, p.Send(context.Background(), contact(), summary()))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "device-token", msg.Token)
	assert.Contains(t, msg.Notification.Body, "11:00")
	assert.Contains(t, msg.Notification.Body, "23 mins")
	assert.Equal(t, "b-1", msg.Data["bookingId"])
	assert.Equal(t, "2025-06-02T11:00:00+08:00", msg.Data["startsAt"])
	assert.Equal(t, "high", msg.Android.Priority)

	c := contact()
	c.FCMToken = ""
	assert.ErrorIs(t, p.Send(context.Background(), c, summary()), ErrNoRecipient)

	sender.err = errors.New("registration-token-not-registered")
	assert.ErrorIs(t, p.Send(context.Background(), contact(), summary()), ErrUnavailable)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "reminder:b-1", Queue: tasks.ReminderQueue}, nil
}

func TestQueueNotifier(t *testing.T) {
	q := &fakeEnqueuer{}
	n := NewQueueNotifier(q, nil)

	require.NoError(t, n.Send(context.Background(), contact(), summary()))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypeSendReminder, q.tasks[0].Type())

	payload, err := tasks.ParseReminderTask(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "b-1", payload.Summary.BookingID)
	assert.Equal(t, "bat@example.mn", payload.Contact.Email)
	assert.True(t, payload.Summary.StartsAt.Equal(summary().StartsAt))

	q.err = asynq.ErrTaskIDConflict
	assert.NoError(t, n.Send(context.Background(), contact(), summary()))

	q.err = errors.New("dial tcp: connection refused")
	assert.ErrorIs(t, n.Send(context.Background(), contact(), summary()), ErrUnavailable)
}

func TestFanout(t *testing.T) {
	var calls []string
	ok := func(name string) Notifier {
		return NotifierFunc(func(context.Context, models.Contact, models.ReminderSummary) error {
			calls = append(calls, name)
			return nil
		})
	}
	fail := func(name string, err error) Notifier {
		return NotifierFunc(func(context.Context, models.Contact, models.ReminderSummary) error {
			calls = append(calls, name)
			return err
		})
	}

	err := NewFanout(fail("mail", ErrUnavailable), ok("push")).Send(context.Background(), contact(), summary())
	assert.NoError(t, err)
	assert.Equal(t, []string{"mail", "push"}, calls)

	err = NewFanout(fail("mail", ErrUnavailable), fail("push", ErrNoRecipient)).Send(context.Background(), contact(), summary())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrNoRecipient)

	assert.ErrorIs(t, NewFanout().Send(context.Background(), contact(), summary()), ErrNoRecipient)
}
