package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", WithLogger(logger.NewTestLogger(t)))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewHTTPClient_TimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}

	for name, opts := range map[string][]ClientOption{
		"timeout last":  {WithHTTPClient(shared), WithTimeout(3 * time.Second)},
		"timeout first": {WithTimeout(3 * time.Second), WithHTTPClient(shared)},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewHTTPClient("http://localhost", opts...)
			assert.Equal(t, 3*time.Second, c.http.Timeout)
			assert.NotSame(t, shared, c.http)
			assert.Zero(t, shared.Timeout)
		})
	}

	c := NewHTTPClient("http://localhost", WithHTTPClient(shared))
	assert.Same(t, shared, c.http, "without a timeout the given client is used as is")
}

func TestHTTPClient_SearchFlights(t *testing.T) {
	departure := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	ret := time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathSearchFlights, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "amsterdam", q.Get(ParamDepartureCity))
		assert.Equal(t, "singapore", q.Get(ParamArrivalCity))
		assert.Equal(t, "2026-11-02", q.Get(ParamDepartureDate))
		assert.Equal(t, "2026-11-09", q.Get(ParamReturnDate))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		writeJSON(t, w, http.StatusOK, []domain.RawFlight{testutil.RawFlight(1, departure)})
	})

	flights, err := client.SearchFlights(context.Background(), domain.FlightQuery{
		DepartureCity:   "amsterdam",
		DestinationCity: "singapore",
		DepartureDate:   departure,
		ReturnDate:      &ret,
		SeatClass:       domain.SeatClassEconomy,
	})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, int64(1), flights[0].ID())
	assert.Equal(t, 1, flights[0].Stops())
	assert.Equal(t, 14*time.Hour, flights[0].TotalDuration())
}

func TestHTTPClient_SearchFlights_RejectsBrokenItinerary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw := testutil.RawFlight(1, time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC))
		sin := testutil.Singapore
		raw.Legs[1].DepartureAirport = &sin
		writeJSON(t, w, http.StatusOK, []domain.RawFlight{raw})
	})

	_, err := client.SearchFlights(context.Background(), domain.FlightQuery{DepartureDate: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrDiscontinuousChain)
}

func TestHTTPClient_SignIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathSignIn, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			writeJSON(t, w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		writeJSON(t, w, http.StatusOK, AuthResponse{Token: "T1", Email: req.Email, FullName: "Jane Traveler"})
	})

	resp, err := client.SignIn(context.Background(), "jane@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthResponse{Token: "T1", Email: "jane@example.com", FullName: "Jane Traveler"}, resp)

	_, err = client.SignIn(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnauthorized, rerr.Status)
	assert.Equal(t, "invalid credentials", rerr.Message)
	assert.Equal(t, MsgUnauthorized, FriendlyMessage(err, ""))
}

func TestHTTPClient_Register_Conflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, ErrorResponse{Error: "email already registered"})
	})

	_, err := client.Register(context.Background(), "Jane Traveler", "jane@example.com", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, MsgConflict, FriendlyMessage(err, ""))
}

func TestHTTPClient_ValidateToken(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		body      interface{}
		wantValid bool
		wantErr   error
	}{
		{name: "Valid", status: http.StatusOK, body: ValidateResponse{Valid: true}, wantValid: true},
		{name: "Invalid", status: http.StatusOK, body: ValidateResponse{Valid: false}},
		{name: "Unauthorized counts as invalid", status: http.StatusUnauthorized, body: ErrorResponse{Error: "expired"}},
		{name: "Server error", status: http.StatusBadGateway, body: ErrorResponse{}, wantErr: domain.ErrServer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, PathValidateToken, r.URL.Path)
				assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
				writeJSON(t, w, tc.status, tc.body)
			})

			valid, err := client.ValidateToken(context.Background(), "T1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantValid, valid)
		})
	}
}

func TestHTTPClient_Bookings(t *testing.T) {
	departure := time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC)
	bookedAt := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	active := testutil.Booking(t, 42, domain.BookingStatusActive, departure, bookedAt)
	cancelled := active
	cancelled.Status = domain.BookingStatusCancelled

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == PathBookings:
			writeJSON(t, w, http.StatusOK, []domain.Booking{active})
		case r.Method == http.MethodPost && r.URL.Path == PathBookings:
			var req CreateBookingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(142), req.FlightID)
			writeJSON(t, w, http.StatusCreated, active)
		case r.Method == http.MethodPost && r.URL.Path == "/bookings/42/cancel":
			writeJSON(t, w, http.StatusOK, cancelled)
		case r.Method == http.MethodDelete && r.URL.Path == "/bookings/42":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	list, err := client.ListBookings(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].ID)
	assert.True(t, list[0].Flight.Equal(active.Flight))

	created, err := client.CreateBooking(ctx, "T1", CreateBookingRequest{FlightID: 142, PassengerName: "Jane Traveler", SeatClass: domain.SeatClassEconomy})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)

	got, err := client.CancelBooking(ctx, "T1", 42)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)

	require.NoError(t, client.DeleteBooking(ctx, "T1", 42))
}

func TestHTTPClient_InvalidBookingPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"id": 42, "status": "lost"})
	})

	_, err := client.CancelBooking(context.Background(), "T1", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewHTTPClient(srv.URL)

	_, err := client.ListBookings(context.Background(), "T1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetworkUnreachable)
	assert.Equal(t, MsgUnreachable, FriendlyMessage(err, "could not load bookings"))
}

func TestHTTPClient_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []domain.Booking{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListBookings(ctx, "T1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrNetworkUnreachable)
}

func TestFriendlyMessage_Precedence(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "Unreachable", err: &Error{Kind: KindUnreachable}, want: MsgUnreachable},
		{name: "Server", err: &Error{Kind: KindServer, Status: 503}, want: MsgServer},
		{name: "Unauthorized", err: &Error{Kind: KindAuth, Status: 401}, want: MsgUnauthorized},
		{name: "Forbidden", err: &Error{Kind: KindAuth, Status: 403}, want: MsgSessionExpired},
		{name: "Conflict", err: &Error{Kind: KindAuth, Status: 409}, want: MsgConflict},
		{name: "Validation falls back", err: &Error{Kind: KindValidation, Status: 400}, want: "fallback"},
		{name: "Wrapped server", err: errors.Join(errors.New("outer"), &Error{Kind: KindServer}), want: MsgServer},
		{name: "Plain error", err: errors.New("boom"), want: "fallback"},
		{name: "Nil", err: nil, want: "fallback"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FriendlyMessage(tc.err, "fallback"))
		})
	}
}
