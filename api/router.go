package api

import (
	"net/http"

	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Auth     fakeapi.AuthUseCase
	Flights  fakeapi.FlightUseCase
	Bookings fakeapi.BookingUseCase
}

// NewRouter mounts every route the booking client calls, plus /healthz and
// /metrics.
func NewRouter(services Services, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewAuthHandler(services.Auth, log).Register(router.Group("/auth"))
	NewFlightHandler(services.Flights, log).Register(router.Group("/flights"))
	NewBookingHandler(services.Bookings, log).Register(router.Group("/bookings", RequireAccount(services.Auth)))

	return router
}
