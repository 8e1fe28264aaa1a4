package fakeapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_Default(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

	flights, err := LoadCatalog("", now)
	require.NoError(t, err)
	require.NotEmpty(t, flights)

	first := flights[0]
	assert.Equal(t, "DL101", first.FlightNr())
	assert.Equal(t, time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), first.DepartureTime())
	assert.True(t, first.IsDirect())

	for _, f := range flights {
		assert.False(t, f.HasDeparted(now), "flight %s", f.FlightNr())
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	airports := "airports:\n  AMS: {city: Amsterdam, longName: Schiphol}\n  DXB: {city: Dubai, longName: Dubai International}\n  SIN: {city: Singapore, longName: Changi}\n"

	tests := []struct {
		name    string
		body    string
		wantErr error
		errText string
	}{
		{
			name:    "Not YAML",
			body:    "flights: [",
			errText: "decode catalog",
		},
		{
			name:    "Unknown airport",
			body:    airports + "flights:\n  - {id: 1, flightNr: X1, airline: A, price: 1, legs: [{from: AMS, to: JFK, day: 1, at: '08:00', duration: 2h}]}\n",
			errText: `unknown airport "JFK"`,
		},
		{
			name:    "Bad duration",
			body:    airports + "flights:\n  - {id: 1, flightNr: X1, airline: A, price: 1, legs: [{from: AMS, to: DXB, day: 1, at: '08:00', duration: soon}]}\n",
			errText: "duration",
		},
		{
			name: "Broken chain",
			body: airports + "flights:\n  - id: 1\n    flightNr: X1\n    airline: A\n    price: 1\n    legs:\n" +
				"      - {from: AMS, to: DXB, day: 1, at: '08:00', duration: 6h}\n" +
				"      - {from: SIN, to: AMS, day: 1, at: '16:00', duration: 6h}\n",
			wantErr: domain.ErrDiscontinuousChain,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.body), now)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.errText != "" {
				assert.Contains(t, err.Error(), tc.errText)
			}
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := "airports:\n  AMS: {city: Amsterdam, longName: Schiphol}\n  DXB: {city: Dubai, longName: Dubai International}\n" +
		"flights:\n  - {id: 5, flightNr: KL427, airline: KLM, price: 540, legs: [{from: AMS, to: DXB, day: 3, at: '21:15', duration: 6h20m}]}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	flights, err := LoadCatalog(path, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, time.Date(2026, 10, 21, 3, 35, 0, 0, time.UTC), flights[0].ArrivalTime())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), time.Now())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
