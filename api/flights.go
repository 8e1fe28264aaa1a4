package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service fakeapi.FlightUseCase
	logger  logger.Logger
}

func NewFlightHandler(service fakeapi.FlightUseCase, log logger.Logger) *FlightHandler {
	return &FlightHandler{service: service, logger: log}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
}

func (h *FlightHandler) search(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	flights, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func parseSearchQuery(c *gin.Context) (domain.FlightQuery, error) {
	query := domain.FlightQuery{
		DepartureCity:   strings.TrimSpace(c.Query(remote.ParamDepartureCity)),
		DestinationCity: strings.TrimSpace(c.Query(remote.ParamArrivalCity)),
		SeatClass:       domain.SeatClass(c.DefaultQuery(remote.ParamSeatClass, string(domain.SeatClassEconomy))),
	}
	if query.DepartureCity == "" || query.DestinationCity == "" {
		return domain.FlightQuery{}, errors.New("departureCity and arrivalCity are required")
	}
	if !query.SeatClass.Valid() {
		return domain.FlightQuery{}, fmt.Errorf("unknown seat class %q", query.SeatClass)
	}

	departure, err := time.Parse(remote.DateLayout, c.Query(remote.ParamDepartureDate))
	if err != nil {
		return domain.FlightQuery{}, fmt.Errorf("departureDate: %w", err)
	}
	query.DepartureDate = departure

	if raw := c.Query(remote.ParamReturnDate); raw != "" {
		ret, err := time.Parse(remote.DateLayout, raw)
		if err != nil {
			return domain.FlightQuery{}, fmt.Errorf("returnDate: %w", err)
		}
		if ret.Before(departure) {
			return domain.FlightQuery{}, errors.New("returnDate must not be before departureDate")
		}
		query.ReturnDate = &ret
	}
	return query, nil
}
