package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service fakeapi.BookingUseCase
	logger  logger.Logger
}

type createBookingRequest struct {
	FlightID      int64            `json:"flightId" binding:"required,gt=0"`
	PassengerName string           `json:"passengerName" binding:"required"`
	SeatClass     domain.SeatClass `json:"chosenClass" binding:"required,oneof=economy business"`
}

func NewBookingHandler(service fakeapi.BookingUseCase, log logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, logger: log}
}

// Register expects the group to be guarded by RequireAccount.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.POST("/:id/cancel", h.cancel)
	router.DELETE("/:id", h.delete)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.List(c.Request.Context(), accountFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.service.Create(c.Request.Context(), accountFrom(c), fakeapi.CreateBookingInput{
		FlightID:      req.FlightID,
		PassengerName: req.PassengerName,
		SeatClass:     req.SeatClass,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	booking, err := h.service.Cancel(c.Request.Context(), accountFrom(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), accountFrom(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
