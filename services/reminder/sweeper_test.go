package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookme/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ub = time.FixedZone("UB", 8*3600)

// fakeSource plays the booking store: it honours reminderSent like the real query.
type fakeSource struct {
	mu       sync.Mutex
	bookings map[string]*fakeBooking
	listErr  error
	markErr  error
	windows  [][2]time.Time
}

type fakeBooking struct {
	candidate models.ReminderCandidate
	status    models.BookingStatus
	sent      bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{bookings: make(map[string]*fakeBooking)}
}

func (f *fakeSource) add(id, selectedTime string, status models.BookingStatus, customer *models.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[id] = &fakeBooking{
		candidate: models.ReminderCandidate{
			BookingID:      id,
			SelectedTime:   selectedTime,
			Customer:       customer,
			EmployeeName:   "Saraa",
			CompanyName:    "Lotus Salon",
			CompanyAddress: "Peace Avenue 12",
		},
		status: status,
	}
}

func (f *fakeSource) PendingReminders(_ context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, [2]time.Time{from, to})
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.ReminderCandidate
	for _, b := range f.bookings {
		if b.status == models.StatusConfirmed && !b.sent {
			out = append(out, b.candidate)
		}
	}
	return out, nil
}

func (f *fakeSource) MarkReminderSent(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	b, ok := f.bookings[id]
	if !ok || b.sent {
		return false, nil
	}
	b.sent = true
	return true, nil
}

func (f *fakeSource) sent(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id].sent
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []models.ReminderSummary
	contacts []models.Contact
	failFor  map[string]bool
}

func (n *recordingNotifier) Send(_ context.Context, c models.Contact, s models.ReminderSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[s.BookingID] {
		return errors.New("smtp: 421 service not available")
	}
	n.sent = append(n.sent, s)
	n.contacts = append(n.contacts, c)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type stubDirections struct {
	text string
	err  error
}

func (d stubDirections) EstimateTravelTime(context.Context, string, string) (string, error) {
	return d.text, d.err
}

type memClaimer struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
}

func newMemClaimer() *memClaimer { return &memClaimer{held: make(map[string]bool)} }

func (c *memClaimer) Claim(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[id] {
		return false, nil
	}
	c.held[id] = true
	return true, nil
}

func (c *memClaimer) Release(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, id)
	c.released = append(c.released, id)
	return nil
}

func customer() *models.Customer {
	return &models.Customer{ID: "u-1", Username: "Bat", Email: "bat@example.mn", Address: "Zaisan 4"}
}

func stamp(t time.Time) string { return t.Format("2006-01-02 15:04") }

func newSweeper(src Source, n Notifier, opts ...SweeperOption) *Sweeper {
	return NewSweeper(src, n, SweeperConfig{Location: ub}, nil, opts...)
}

func TestSweepRemindsOnceInsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(60*time.Minute)), models.StatusConfirmed, customer())
	notifier := &recordingNotifier{}
	s := newSweeper(src, notifier)

	report, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 1, Due: 1, Sent: 1}, report)
	assert.True(t, src.sent("b-1"))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "b-1", notifier.sent[0].BookingID)
	assert.True(t, notifier.sent[0].StartsAt.Equal(now.Add(time.Hour)))
	assert.Equal(t, "Lotus Salon", notifier.sent[0].CompanyName)
	assert.Equal(t, "bat@example.mn", notifier.contacts[0].Email)

	report, err = s.Sweep(context.Background(), now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, report)
	assert.Equal(t, 1, notifier.count())
}

func TestSweepWindowEdges(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	for id, offset := range map[string]time.Duration{
		"too-soon":  54 * time.Minute,
		"lower":     55 * time.Minute,
		"upper":     65 * time.Minute,
		"too-late":  66 * time.Minute,
		"in-past":   -10 * time.Minute,
		"next-week": 7 * 24 * time.Hour,
	} {
		src.add(id, stamp(now.Add(offset)), models.StatusConfirmed, customer())
	}
	src.add("pending", stamp(now.Add(time.Hour)), models.StatusPending, customer())
	notifier := &recordingNotifier{}

	report, err := newSweeper(src, notifier).Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 2, report.Sent)

	ids := []string{notifier.sent[0].BookingID, notifier.sent[1].BookingID}
	assert.ElementsMatch(t, []string{"lower", "upper"}, ids)

	require.Len(t, src.windows, 1)
	assert.True(t, src.windows[0][0].Equal(now.Add(55*time.Minute)))
	assert.True(t, src.windows[0][1].Equal(now.Add(65*time.Minute)))
}

func TestSweepSkipsUnparseableAndContinues(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("broken", "sometime soon", models.StatusConfirmed, customer())
	src.add("guest", stamp(now.Add(time.Hour)), models.StatusConfirmed, nil)
	src.add("ok", now.Add(time.Hour).UTC().Format(time.RFC3339), models.StatusConfirmed, customer())
	notifier := &recordingNotifier{}

	report, err := newSweeper(src, notifier).Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 3, Due: 2, Sent: 1, Skipped: 2}, report)
	assert.True(t, src.sent("ok"))
	assert.False(t, src.sent("broken"))
	assert.False(t, src.sent("guest"))
}

func TestSweepFailureDoesNotAbortOrMark(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-fail", stamp(now.Add(58*time.Minute)), models.StatusConfirmed, customer())
	src.add("b-ok", stamp(now.Add(62*time.Minute)), models.StatusConfirmed, customer())
	notifier := &recordingNotifier{failFor: map[string]bool{"b-fail": true}}
	claims := newMemClaimer()
	s := newSweeper(src, notifier, WithClaimer(claims))

	report, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 2, Due: 2, Sent: 1, Failed: 1}, report)
	assert.False(t, src.sent("b-fail"))
	assert.True(t, src.sent("b-ok"))
	assert.Equal(t, []string{"b-fail"}, claims.released)

	// Next cycle retries the failed booking while it is still due.
	notifier.failFor = nil
	report, err = s.Sweep(context.Background(), now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.True(t, src.sent("b-fail"))
}

func TestSweepHonoursClaims(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())
	claims := newMemClaimer()
	_, _ = claims.Claim(context.Background(), "b-1")
	notifier := &recordingNotifier{}

	report, err := newSweeper(src, notifier, WithClaimer(claims)).Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, notifier.count())
	assert.False(t, src.sent("b-1"))
}

func TestSweepTravelTimeIsBestEffort(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())

	notifier := &recordingNotifier{}
	_, err := newSweeper(src, notifier, WithDirections(stubDirections{text: "23 mins"})).Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "23 mins", notifier.sent[0].TravelTime)

	src.add("b-2", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())
	notifier = &recordingNotifier{}
	_, err = newSweeper(src, notifier, WithDirections(stubDirections{err: errors.New("OVER_QUERY_LIMIT")})).Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Empty(t, notifier.sent[0].TravelTime)
}

func TestSweepMarkFailureStillCountsDelivery(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())
	src.markErr = errors.New("connection reset")
	claims := newMemClaimer()

	report, err := newSweeper(src, &recordingNotifier{}, WithClaimer(claims)).Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Empty(t, claims.released)
}

func TestSweepListFailure(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("no primary")

	_, err := newSweeper(src, &recordingNotifier{}).Sweep(context.Background(), time.Now())
	assert.ErrorContains(t, err, "no primary")
}

func TestSweepStopsWhenCancelled(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := &recordingNotifier{}
	_, err := newSweeper(src, notifier).Sweep(ctx, now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, notifier.count())
}

func TestSweepMetrics(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())
	src.add("b-2", "??", models.StatusConfirmed, customer())
	m := NewMetrics(prometheus.NewRegistry())

	_, err := newSweeper(src, &recordingNotifier{}, WithMetrics(m)).Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersTotal.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepCandidates))
}
