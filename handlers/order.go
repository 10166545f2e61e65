package handlers

import (
	"net/http"

	"pizza-franchise-api/middleware"
	"pizza-franchise-api/services"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type CreateOrderRequest struct {
	FranchiseID uint `json:"franchiseId" binding:"required"`
	StoreID     uint `json:"storeId" binding:"required"`
	Items       []struct {
		MenuID      uint    `json:"menuId"`
		Description string  `json:"description" binding:"required"`
		Price       float64 `json:"price"`
	} `json:"items" binding:"required,min=1,dive"`
}

// GetMenu returns the public catalog.
func (h *Handler) GetMenu(c *gin.Context) {
	items, err := h.orders.Menu(c.Request.Context(), middleware.GetSubject(c))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(c *gin.Context) {
	q, err := bindPage(c)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	page, err := h.orders.List(c.Request.Context(), middleware.GetSubject(c), q.Page)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateOrder places an order. Retrying with the same Idempotency-Key
// returns the original order instead of placing another.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := bindJSON(c, &req, "franchiseId, storeId and at least one item are required"); err != nil {
		middleware.WriteError(c, err)
		return
	}
	in := services.OrderRequest{
		FranchiseID:    req.FranchiseID,
		StoreID:        req.StoreID,
		Items:          make([]services.OrderItemInput, len(req.Items)),
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	}
	for i, it := range req.Items {
		in.Items[i] = services.OrderItemInput{MenuID: it.MenuID, Description: it.Description, Price: it.Price}
	}

	placed, err := h.orders.Create(c.Request.Context(), middleware.GetSubject(c), in)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if placed.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(http.StatusOK, placed)
}
