package handler

import (
	"net/http"
	"time"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/middleware"
	"github.com/amarkiccha/lead/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the token subject issued to the dashboard user.
const AdminSubject = "admin"

type AuthHandler struct {
	config *config.AuthConfig
}

func NewAuthHandler(cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Subject   string `json:"subject"`
}

// Login exchanges the admin password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.config.AdminEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login is not configured"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPasswordHash), []byte(req.Password)); err != nil {
		logger.Warn(c.Request.Context(), "admin login rejected", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(AdminSubject, middleware.RoleAdmin, h.config)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Subject:   AdminSubject,
	})
}

// Me returns the authenticated identity
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"subject": middleware.GetSubject(c),
		"role":    middleware.GetRole(c),
	})
}
