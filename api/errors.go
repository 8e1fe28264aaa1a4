package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/repository"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto the status codes the client
// interprets. Anything unrecognised is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fakeapi.ErrInvalidCredentials), errors.Is(err, fakeapi.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrFlightDeparted),
		errors.Is(err, fakeapi.ErrSeatLocked):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, log logger.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{"path": c.FullPath(), "error": err})
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, remote.ErrorResponse{Error: message})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, remote.ErrorResponse{Error: err.Error()})
}
