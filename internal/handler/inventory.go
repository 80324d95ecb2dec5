package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/middleware"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

type InventoryService interface {
	Adjust(ctx context.Context, actor service.Actor, productID uuid.UUID, change int, reason string) (*model.Product, *model.StockHistory, error)
	Restock(ctx context.Context, actor service.Actor, productID uuid.UUID, quantity int, reason string) (*model.Product, *model.StockHistory, error)
	StoreInventory(ctx context.Context, actor service.Actor, storeID uuid.UUID) ([]model.Product, error)
	Alerts(ctx context.Context, actor service.Actor) (*service.Alerts, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	History(ctx context.Context, actor service.Actor, productID uuid.UUID) ([]model.StockHistory, error)
}

type InventoryHandler struct {
	svc InventoryService
	log *slog.Logger
}

func NewInventoryHandler(svc InventoryService, log *slog.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, log: log}
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, entry, err := h.svc.Adjust(c.Request.Context(), middleware.Actor(c), id, req.Change, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdjustStockResponse{
		Product: dto.ToProductResponse(product),
		History: dto.ToStockHistoryResponse(entry),
	})
}

func (h *InventoryHandler) Restock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, entry, err := h.svc.Restock(c.Request.Context(), middleware.Actor(c), id, req.Quantity, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdjustStockResponse{
		Product: dto.ToProductResponse(product),
		History: dto.ToStockHistoryResponse(entry),
	})
}

func (h *InventoryHandler) StoreInventory(c *gin.Context) {
	storeID, ok := paramID(c, "storeId")
	if !ok {
		return
	}

	products, err := h.svc.StoreInventory(c.Request.Context(), middleware.Actor(c), storeID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponses(products))
}

func (h *InventoryHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.AlertsResponse{
		LowStock:     dto.ToProductResponses(alerts.LowStock),
		ExpiringSoon: dto.ToProductResponses(alerts.ExpiringSoon),
	})
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	products, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductResponses(products))
}

func (h *InventoryHandler) History(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	entries, err := h.svc.History(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToStockHistoryResponses(entries))
}
