package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/api"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/repository"
	"github.com/Domenick1991/skyclient/internal/session"
	"github.com/Domenick1991/skyclient/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	client  *remote.HTTPClient
	backend *storage.MemoryBackend
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	now := time.Now().UTC()

	catalog, err := fakeapi.LoadCatalog("", now)
	require.NoError(t, err)
	flightRepo := repository.NewMemoryFlightRepository()
	require.NoError(t, flightRepo.Upsert(context.Background(), catalog))

	tokens := fakeapi.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour, nil)
	srv := httptest.NewServer(api.NewRouter(api.Services{
		Auth:     fakeapi.NewAuthService(repository.NewMemoryUserRepository(), tokens, log, fakeapi.WithHashCost(bcrypt.MinCost)),
		Flights:  fakeapi.NewCatalogService(flightRepo),
		Bookings: fakeapi.NewBookingService(repository.NewMemoryBookingRepository(), flightRepo, log),
	}, log))
	t.Cleanup(srv.Close)

	return &testEnv{
		client:  remote.NewHTTPClient(srv.URL, remote.WithLogger(log)),
		backend: storage.NewMemoryBackend(),
		now:     now,
	}
}

// start simulates one launch of the client over the shared device storage.
func (e *testEnv) start(t *testing.T, input string) (*app, *bytes.Buffer) {
	t.Helper()
	log := logger.NewTestLogger(t)
	records, err := storage.NewRecords(e.backend, log)
	require.NoError(t, err)

	machine := session.NewMachine(context.Background(), e.client, records.Credential, records.Preferences, log)
	t.Cleanup(func() { _ = machine.Close() })

	var out bytes.Buffer
	a := newApp(machine, e.client, nil, strings.NewReader(input), &out, log)
	a.now = func() time.Time { return e.now }
	return a, &out
}

func (e *testEnv) tomorrow() string {
	return e.now.AddDate(0, 0, 1).Format(time.DateOnly)
}

func TestApp_BookingJourney(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, out := env.start(t, "")
	err := a.run(ctx, []string{"bookings"})
	assert.Equal(t, "You are not signed in", describe(err))

	require.NoError(t, a.run(ctx, []string{"register",
		"-name", "Jane Traveler", "-email", "jane@example.com", "-password", "secret", "-confirm", "secret"}))
	assert.Contains(t, out.String(), "Welcome, Jane Traveler")

	require.NoError(t, a.run(ctx, []string{"prefs", "preferredCurrency", "dollar"}))
	assert.Contains(t, out.String(), "preferredCurrency: dollar")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"search", "-from", "New York", "-to", "Chicago", "-date", env.tomorrow()}))
	assert.Contains(t, out.String(), "DL101")
	assert.Contains(t, out.String(), "$")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"book", "-flight", "1", "-passenger", "Jane Traveler"}))
	assert.Contains(t, out.String(), "Booked BR-")

	// a second launch restores the session from storage
	b, out := env.start(t, "n\ny\ny\n")
	require.NoError(t, b.run(ctx, []string{"status"}))
	assert.Contains(t, out.String(), "status: signed_in")
	assert.Contains(t, out.String(), "preferredCurrency: dollar")

	out.Reset()
	require.NoError(t, b.run(ctx, []string{"bookings"}))
	assert.Contains(t, out.String(), "DL101")
	assert.Contains(t, out.String(), "active")

	err = b.run(ctx, []string{"delete", "1"})
	assert.Contains(t, describe(err), "only cancelled bookings can be deleted")

	err = b.run(ctx, []string{"cancel", "1"})
	assert.Equal(t, "Nothing changed", describe(err), "declined at the prompt")

	out.Reset()
	require.NoError(t, b.run(ctx, []string{"cancel", "1"}))
	assert.Contains(t, out.String(), "[y/N]")
	assert.Contains(t, out.String(), "is cancelled")

	out.Reset()
	require.NoError(t, b.run(ctx, []string{"delete", "1"}))
	assert.Contains(t, out.String(), "deleted")

	out.Reset()
	require.NoError(t, b.run(ctx, []string{"bookings"}))
	assert.Contains(t, out.String(), "No bookings yet")

	require.NoError(t, b.run(ctx, []string{"signout"}))
	c, out := env.start(t, "")
	require.NoError(t, c.run(ctx, []string{"status"}))
	assert.Contains(t, out.String(), "status: signed_out")
}

func TestApp_InputErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a, _ := env.start(t, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "No command", args: nil, want: "usage: app"},
		{name: "Unknown command", args: []string{"fly"}, want: `unknown command "fly"`},
		{name: "Bad email", args: []string{"signin", "-email", "jane", "-password", "secret"}, want: "email: Expected a valid email address"},
		{name: "Passwords differ", args: []string{"register", "-name", "Jane", "-email", "jane@example.com", "-password", "secret", "-confirm", "other"}, want: "The two passwords do not match"},
		{name: "Bad date", args: []string{"search", "-from", "Paris", "-to", "Dubai", "-date", "tomorrow"}, want: "departureDate: Expected a date"},
		{name: "Past date", args: []string{"search", "-from", "Paris", "-to", "Dubai", "-date", "2020-01-01"}, want: "Departure date must be after today"},
		{name: "Short passenger", args: []string{"book", "-flight", "1", "-passenger", "Jo"}, want: "passengerName"},
		{name: "Bad booking id", args: []string{"cancel", "abc"}, want: `invalid booking id "abc"`},
		{name: "Wrong password", args: []string{"signin", "-email", "nobody@example.com", "-password", "secret"}, want: remote.MsgUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := a.run(ctx, tc.args)
			require.Error(t, err)
			assert.Contains(t, describe(err), tc.want)
		})
	}
}
