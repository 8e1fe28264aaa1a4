package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	accountKey      = "account"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger echoes or assigns X-Request-ID and logs every request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		log.Info("request", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
}

// RequireAccount rejects requests without a valid bearer token and stores
// the token's account for the handlers.
func RequireAccount(auth fakeapi.AuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, remote.ErrorResponse{Error: "missing bearer token"})
			return
		}
		account, err := auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, remote.ErrorResponse{Error: "invalid or expired token"})
			return
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

func accountFrom(c *gin.Context) fakeapi.Account {
	account, _ := c.MustGet(accountKey).(fakeapi.Account)
	return account
}
