package handlers

import (
	"net/http"

	"pizza-franchise-api/middleware"
	"pizza-franchise-api/services"

	"github.com/gin-gonic/gin"
)

type CreateFranchiseRequest struct {
	Name   string `json:"name" binding:"required"`
	Admins []struct {
		Email string `json:"email" binding:"required"`
	} `json:"admins"`
}

type CreateStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListFranchises is the public franchise catalog.
func (h *Handler) ListFranchises(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	page, err := h.hierarchy.ListFranchises(c.Request.Context(), middleware.GetSubject(c), services.NewPage(q.Page, q.Limit), q.Name)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListUserFranchises returns the franchises a user administers.
func (h *Handler) ListUserFranchises(c *gin.Context) {
	userID, err := idParam(c, "id")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	list, err := h.hierarchy.ListUserFranchises(c.Request.Context(), middleware.GetSubject(c), userID)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateFranchise(c *gin.Context) {
	var req CreateFranchiseRequest
	if err := bindJSON(c, &req, "franchise name is required"); err != nil {
		middleware.WriteError(c, err)
		return
	}
	emails := make([]string, 0, len(req.Admins))
	for _, a := range req.Admins {
		emails = append(emails, a.Email)
	}
	f, err := h.hierarchy.CreateFranchise(c.Request.Context(), middleware.GetSubject(c), req.Name, emails)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFranchise(c *gin.Context) {
	id, err := idParam(c, "franchiseId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if err := h.hierarchy.DeleteFranchise(c.Request.Context(), middleware.GetSubject(c), id); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
}

func (h *Handler) CreateStore(c *gin.Context) {
	franchiseID, err := idParam(c, "franchiseId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	var req CreateStoreRequest
	if err := bindJSON(c, &req, "store name is required"); err != nil {
		middleware.WriteError(c, err)
		return
	}
	st, err := h.hierarchy.CreateStore(c.Request.Context(), middleware.GetSubject(c), franchiseID, req.Name)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStore(c *gin.Context) {
	franchiseID, err := idParam(c, "franchiseId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	storeID, err := idParam(c, "storeId")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if err := h.hierarchy.DeleteStore(c.Request.Context(), middleware.GetSubject(c), franchiseID, storeID); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

// ListFranchiseOrders returns a franchise's orders to its admins.
func (h *Handler) ListFranchiseOrders(c *gin.Context) {
	franchiseID, err := idParam(c, "id")
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	q, err := bindPage(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	page, err := h.orders.ListFranchiseOrders(c.Request.Context(), middleware.GetSubject(c), franchiseID, q.Page)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
