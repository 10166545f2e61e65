package routes

import (
	"pizza-franchise-api/handlers"
	"pizza-franchise-api/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API under /api. Authorization beyond "has a
// valid token" is decided by the services, not by route groups.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, authn *middleware.Authenticator, loginLimit *middleware.RateLimiter) {
	r.GET("/health", handlers.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth", h.Register)
		public.PUT("/auth", loginLimit.Middleware(), h.Login)

		public.GET("/order/menu", h.GetMenu)
		public.GET("/policy", handlers.GetPolicy)
	}

	// ── Optionally authenticated routes ────────────────────────────
	optional := r.Group("/api")
	optional.Use(authn.Optional())
	{
		optional.GET("/franchise", h.ListFranchises)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authn.Required())
	{
		auth.DELETE("/auth", h.Logout)

		// Users
		auth.GET("/user/me", h.GetMe)
		auth.GET("/user", h.ListUsers)
		auth.GET("/user/:userId", h.GetUser)
		auth.PUT("/user/:userId", h.UpdateUser)
		auth.DELETE("/user/:userId", h.DeleteUser)

		// Franchises and stores. GET /franchise/:id is the franchises
		// administered by user :id; GET /franchise/:id/order is the orders of
		// franchise :id.
		auth.GET("/franchise/:id", h.ListUserFranchises)
		auth.GET("/franchise/:id/order", h.ListFranchiseOrders)
		auth.POST("/franchise", h.CreateFranchise)
		auth.DELETE("/franchise/:franchiseId", h.DeleteFranchise)
		auth.POST("/franchise/:franchiseId/store", h.CreateStore)
		auth.DELETE("/franchise/:franchiseId/store/:storeId", h.DeleteStore)

		// Orders
		auth.GET("/order", h.ListOrders)
		auth.POST("/order", h.CreateOrder)
	}
}
