package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/repository"
	"github.com/Domenick1991/skyclient/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of fakeapi.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) List(ctx context.Context, account fakeapi.Account) ([]domain.Booking, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Create(ctx context.Context, account fakeapi.Account, input fakeapi.CreateBookingInput) (domain.Booking, error) {
	args := m.Called(ctx, account, input)
	return args.Get(0).(domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, account fakeapi.Account, id int64) (domain.Booking, error) {
	args := m.Called(ctx, account, id)
	return args.Get(0).(domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Delete(ctx context.Context, account fakeapi.Account, id int64) error {
	args := m.Called(ctx, account, id)
	return args.Error(0)
}

var testAccount = fakeapi.Account{UserID: 1, Email: "jane@example.com", FullName: "Jane Traveler"}

func newBookingContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(accountKey, testAccount)
	return c, w
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, logger.NewTestLogger(t))

	c, w := newBookingContext(http.MethodPost, "/bookings", remote.CreateBookingRequest{
		FlightID:      101,
		PassengerName: "Jane Traveler",
		SeatClass:     domain.SeatClassEconomy,
	})

	departure := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	booking := testutil.Booking(t, 1, domain.BookingStatusActive, departure, departure.Add(-48*time.Hour))
	input := fakeapi.CreateBookingInput{FlightID: 101, PassengerName: "Jane Traveler", SeatClass: domain.SeatClassEconomy}
	mockService.On("Create", c.Request.Context(), testAccount, input).Return(booking, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, booking.BookingNr, response.BookingNr)
	assert.Equal(t, domain.BookingStatusActive, response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "Missing flight", body: map[string]interface{}{"passengerName": "Jane", "chosenClass": "economy"}},
		{name: "Unknown class", body: map[string]interface{}{"flightId": 1, "passengerName": "Jane", "chosenClass": "first"}},
		{name: "Missing passenger", body: map[string]interface{}{"flightId": 1, "chosenClass": "economy"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService, logger.NewTestLogger(t))
			c, w := newBookingContext(http.MethodPost, "/bookings", tc.body)

			handler.create(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, logger.NewTestLogger(t))

	c, w := newBookingContext(http.MethodPost, "/bookings/1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	departure := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	booking := testutil.Booking(t, 1, domain.BookingStatusCancelled, departure, departure.Add(-48*time.Hour))
	mockService.On("Cancel", c.Request.Context(), testAccount, int64(1)).Return(booking, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.BookingStatusCancelled, response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "Not found", err: repository.ErrNotFound, expected: http.StatusNotFound},
		{name: "Already cancelled", err: domain.ErrInvalidTransition, expected: http.StatusUnprocessableEntity},
		{name: "Departed", err: domain.ErrFlightDeparted, expected: http.StatusUnprocessableEntity},
		{name: "Unexpected", err: assert.AnError, expected: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService, logger.NewTestLogger(t))

			c, w := newBookingContext(http.MethodDelete, "/bookings/7", nil)
			c.Params = gin.Params{{Key: "id", Value: "7"}}
			mockService.On("Delete", c.Request.Context(), testAccount, int64(7)).Return(tc.err)

			handler.delete(c)

			assert.Equal(t, tc.expected, w.Code)
			var response remote.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Error)
			if tc.expected == http.StatusInternalServerError {
				assert.NotContains(t, response.Error, assert.AnError.Error())
			}
		})
	}
}

func TestBookingHandler_InvalidID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, logger.NewTestLogger(t))

	c, w := newBookingContext(http.MethodDelete, "/bookings/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
