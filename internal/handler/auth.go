package handler

import (
	"net/http"

	"sprintdesk/internal/logger"
	"sprintdesk/internal/middleware"
	"sprintdesk/internal/model"
	"sprintdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ auth *service.AuthService }

func NewAuthHandler(auth *service.AuthService) *AuthHandler { return &AuthHandler{auth: auth} }

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login.failed", "email", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	logger.Info("login.ok", "uid", u.ID, "name", u.Name)
	c.JSON(http.StatusOK, model.LoginResponse{
		Token: middleware.NewToken(u.ID, u.Name, u.IsClient, u.IsConsultant),
		User:  *u,
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err == service.ErrEmailTaken {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.Info("signup.ok", "uid", u.ID, "email", u.Email)
	c.JSON(http.StatusOK, model.LoginResponse{
		Token: middleware.NewToken(u.ID, u.Name, u.IsClient, u.IsConsultant),
		User:  *u,
	})
}
