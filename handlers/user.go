package handlers

import (
	"net/http"

	"pizza-franchise-api/middleware"
	"pizza-franchise-api/models"
	"pizza-franchise-api/services"

	"github.com/gin-gonic/gin"
)

type UpdateUserRequest struct {
	Name     *string        `json:"name"`
	Email    *string        `json:"email"`
	Password *string        `json:"password"`
	Roles    *[]models.Role `json:"roles"`
}

// GetMe returns the authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	s := middleware.GetSubject(c)
	user, err := h.directory.Get(c.Request.Context(), s, s.UserID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers pages through the directory. Admin only.
func (h *Handler) ListUsers(c *gin.Context) {
	if err := h.directory.CanList(middleware.GetSubject(c)); err != nil {
		middleware.WriteError(c, err)
		return
	}
	q, err := bindPage(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	page, err := h.directory.List(c.Request.Context(), middleware.GetSubject(c), services.NewPage(q.Page, q.Limit), q.Name)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := idParam(c, "userId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	user, err := h.directory.Get(c.Request.Context(), middleware.GetSubject(c), id)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser changes a user. A user updating themself also gets a new
// token carrying the new name, email and roles.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := idParam(c, "userId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	var req UpdateUserRequest
	if err := bindJSON(c, &req, "invalid user update"); err != nil {
		middleware.WriteError(c, err)
		return
	}

	s := middleware.GetSubject(c)
	user, err := h.directory.Update(c.Request.Context(), s, id, services.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	resp := gin.H{"user": user}
	if s.UserID == user.ID {
		token, err := h.tokens.Issue(user)
		if err != nil {
			middleware.WriteError(c, err)
			return
		}
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := idParam(c, "userId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if err := h.directory.Delete(c.Request.Context(), middleware.GetSubject(c), id); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
