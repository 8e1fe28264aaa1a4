package api

import (
	"net/http"

	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service fakeapi.AuthUseCase
	logger  logger.Logger
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=3"`
}

func NewAuthHandler(service fakeapi.AuthUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: log}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/signin", h.signIn)
	router.POST("/register", h.register)
	router.POST("/validate", h.validate)
}

func (h *AuthHandler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(session))
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.service.Register(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse(session))
}

// validate answers 401 without a token and {"valid": false} for one that
// does not verify.
func (h *AuthHandler) validate(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, remote.ErrorResponse{Error: "missing bearer token"})
		return
	}
	_, err := h.service.Authenticate(token)
	c.JSON(http.StatusOK, remote.ValidateResponse{Valid: err == nil})
}

func authResponse(s fakeapi.Session) remote.AuthResponse {
	return remote.AuthResponse{
		Token:    s.Token,
		Email:    s.Account.Email,
		FullName: s.Account.FullName,
	}
}
