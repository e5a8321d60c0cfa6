package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bookme/models"
	"bookme/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOverlapFilter(t *testing.T) {
	start := time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	f := overlapFilter("emp-1", "", start, end)
	assert.Equal(t, bson.M{
		"employee":     "emp-1",
		"active":       true,
		"selectedTime": bson.M{"$lt": end},
		"endTime":      bson.M{"$gt": start},
	}, f)

	f = overlapFilter("emp-1", "b-1", start, end)
	assert.Equal(t, bson.M{"$ne": "b-1"}, f["id"])
}

func TestListFilter(t *testing.T) {
	assert.Empty(t, listFilter(models.BookingFilter{}))

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	f := listFilter(models.BookingFilter{EmployeeID: "emp-1", CompanyID: "co-1", CustomerID: "u-1", From: from, To: to, ActiveOnly: true})
	assert.Equal(t, bson.M{
		"employee":     "emp-1",
		"company":      "co-1",
		"user":         "u-1",
		"active":       true,
		"selectedTime": bson.M{"$gte": from, "$lt": to},
	}, f)
}

func TestReminderFilterKeepsLegacyStrings(t *testing.T) {
	from := time.Date(2025, 6, 2, 2, 55, 0, 0, time.UTC)
	f := reminderFilter(from, from.Add(10*time.Minute))

	assert.Equal(t, models.StatusConfirmed, f["status"])
	assert.Equal(t, bson.M{"$ne": true}, f["reminderSent"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	assert.Contains(t, or, bson.M{"selectedTime": bson.M{"$type": "string"}})
}

func TestRawTimeString(t *testing.T) {
	when := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)

	_, dateBytes, err := bson.MarshalValue(when)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02T03:00:00Z", rawTimeString(bson.RawValue{Type: bson.TypeDateTime, Value: dateBytes}))

	_, strBytes, err := bson.MarshalValue("2025-06-02 11:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02 11:00", rawTimeString(bson.RawValue{Type: bson.TypeString, Value: strBytes}))

	assert.Equal(t, "", rawTimeString(bson.RawValue{}))
}

func TestReminderDocCandidate(t *testing.T) {
	_, strBytes, err := bson.MarshalValue("2025-06-02T11:00:00+08:00")
	require.NoError(t, err)

	doc := reminderDoc{
		ID:           "b-1",
		SelectedTime: bson.RawValue{Type: bson.TypeString, Value: strBytes},
		Customer:     &models.Customer{ID: "u-1", Email: "bat@example.mn"},
		Staff:        &models.Employee{EmployeeName: "Saraa"},
		Owner:        &models.Company{CompanyName: "Salon", Address: "Peace Ave 1"},
	}
	c := doc.candidate()
	assert.Equal(t, models.ReminderCandidate{
		BookingID:      "b-1",
		SelectedTime:   "2025-06-02T11:00:00+08:00",
		Customer:       doc.Customer,
		EmployeeName:   "Saraa",
		CompanyName:    "Salon",
		CompanyAddress: "Peace Ave 1",
	}, c)

	assert.Equal(t, models.ReminderCandidate{BookingID: "b-2"}, reminderDoc{ID: "b-2"}.candidate())
}

func TestUnavailableTagsTimeouts(t *testing.T) {
	err := unavailable(fmt.Errorf("find: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, ledger.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	plain := errors.New("(BadValue) unknown operator")
	assert.Same(t, plain, unavailable(plain))
}
