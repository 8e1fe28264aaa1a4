package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyclient_remote_request_duration_seconds",
			Help:    "Duration of calls to the booking API in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyclient_remote_request_errors_total",
			Help: "Total number of failed calls to the booking API",
		},
		[]string{"operation", "kind"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyclient_session_transitions_total",
			Help: "Session state changes by resulting state",
		},
		[]string{"action", "state"},
	)

	BookingMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyclient_booking_mutations_total",
			Help: "Booking list, create, cancel and delete outcomes",
		},
		[]string{"operation", "outcome"},
	)

	CachedBookings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyclient_cached_bookings",
			Help: "Number of bookings held in the local cache",
		},
	)

	FlightSearchCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyclient_flight_search_cache_total",
			Help: "Flight search cache lookups by result",
		},
		[]string{"result"},
	)
)
