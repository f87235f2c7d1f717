package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth auth.Authenticator
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresIn string         `json:"expires_in"`
	User      auth.Principal `json:"user"`
}

func NewAuthHandler(a auth.Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// Register mounts login; validate sits behind the auth middleware.
func (h *AuthHandler) Register(router *gin.RouterGroup, protect gin.HandlerFunc) {
	router.POST("/login", h.login)
	router.POST("/validate", protect, h.validate)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err, "body"))
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ok(c, http.StatusOK, loginResponse{
		Token:     token.Token,
		ExpiresIn: token.ExpiresIn,
		User:      auth.Principal{Username: req.Username},
	}, "")
}

func (h *AuthHandler) validate(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"valid": true, "user": principalFrom(c)}, "")
}
