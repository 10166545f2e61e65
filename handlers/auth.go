package handlers

import (
	"net/http"

	"pizza-franchise-api/middleware"
	"pizza-franchise-api/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a diner account and returns it with a token.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req, "name, email, and password are required"); err != nil {
		middleware.WriteError(c, err)
		return
	}
	session, err := h.sessions.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Login authenticates a user and returns a token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req, "email and password are required"); err != nil {
		middleware.WriteError(c, err)
		return
	}
	session, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout revokes the bearer token of the request.
func (h *Handler) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)
	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		middleware.WriteAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}
