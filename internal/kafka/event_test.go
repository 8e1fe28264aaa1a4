package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingEvent(t *testing.T) {
	departure := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	b := testutil.Booking(t, 42, domain.BookingStatusCancelled, departure, departure.Add(-72*time.Hour))
	at := time.Date(2026, 10, 17, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	event := NewBookingEvent(BookingCancelled, b, "jane@example.com", at)

	assert.Equal(t, BookingCancelled, event.Type)
	assert.Equal(t, int64(42), event.BookingID)
	assert.Equal(t, int64(142), event.FlightID)
	assert.Equal(t, "EK-148", event.FlightNr)
	assert.Equal(t, "cancelled", event.Status)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
}

func TestDecodeBookingEvent(t *testing.T) {
	data, err := json.Marshal(BookingEvent{Type: BookingCreated, BookingID: 7, Email: "jane@example.com"})
	require.NoError(t, err)

	event, err := DecodeBookingEvent(data)
	require.NoError(t, err)
	assert.Equal(t, BookingCreated, event.Type)
	assert.Equal(t, "jane@example.com", event.Email)

	tests := []struct {
		name string
		data string
	}{
		{name: "Not JSON", data: "booking"},
		{name: "Missing type", data: `{"booking_id": 7}`},
		{name: "Missing booking id", data: `{"type": "booking.created"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBookingEvent([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}
