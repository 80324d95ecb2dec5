package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront/internal/middleware"
	"github.com/flicky/storefront/internal/model"
)

type Handlers struct {
	Auth         *AuthHandler
	Store        *StoreHandler
	Product      *ProductHandler
	Cart         *CartHandler
	Order        *OrderHandler
	Inventory    *InventoryHandler
	Notification *NotificationHandler
	Health       *HealthHandler
}

// NewRouter mounts every route under /api/v1, with health probes at the root.
func NewRouter(h Handlers, jwtSecret string, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(mw...)

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	authed := middleware.AuthMiddleware(jwtSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		stores := v1.Group("/stores")
		stores.GET("", h.Store.List)
		stores.GET("/me", authed, h.Store.Mine)
		stores.GET("/:id", h.Store.GetByID)
		stores.POST("", authed, adminOnly, h.Store.Create)
		stores.PATCH("/:id", authed, h.Store.Update)

		products := v1.Group("/products")
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.GetByID)

		adminProducts := products.Group("", authed, adminOnly)
		adminProducts.POST("", h.Product.Create)
		adminProducts.PUT("/:id", h.Product.Update)
		adminProducts.DELETE("/:id", h.Product.Delete)

		cart := v1.Group("/cart", authed)
		cart.GET("", h.Cart.GetCart)
		cart.POST("/add", h.Cart.AddItem)
		cart.PATCH("/:id", h.Cart.UpdateItem)
		cart.DELETE("/:id", h.Cart.DeleteItem)
		cart.DELETE("", h.Cart.Clear)

		orders := v1.Group("/orders", authed)
		orders.POST("/place", h.Order.PlaceOrder)
		orders.GET("/my-orders", h.Order.MyOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.DELETE("/:id/cancel", h.Order.Cancel)
		orders.GET("", adminOnly, h.Order.ListAll)
		orders.PATCH("/:id/status", adminOnly, h.Order.UpdateStatus)

		inventory := v1.Group("/inventory", authed)
		inventory.PATCH("/product/:id/adjust", h.Inventory.Adjust)
		inventory.POST("/product/:id/restock", h.Inventory.Restock)
		inventory.GET("/product/:id/history", h.Inventory.History)
		inventory.GET("/store/:storeId", h.Inventory.StoreInventory)
		inventory.GET("/alerts", h.Inventory.Alerts)
		inventory.GET("/low-stock", adminOnly, h.Inventory.LowStock)

		notifications := v1.Group("/notifications", authed)
		notifications.GET("", h.Notification.List)
		notifications.PATCH("/:id/read", h.Notification.MarkRead)
	}

	return router
}
