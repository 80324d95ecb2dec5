package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/middleware"
	"github.com/flicky/storefront/internal/service"
)

type StoreService interface {
	Create(ctx context.Context, actor service.Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	List(ctx context.Context) ([]dto.StoreResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.StoreResponse, error)
	Mine(ctx context.Context, userID uuid.UUID) (*dto.StoreResponse, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, req dto.UpdateStoreRequest) (*dto.StoreResponse, error)
}

type StoreHandler struct {
	svc StoreService
	log *slog.Logger
}

func NewStoreHandler(svc StoreService, log *slog.Logger) *StoreHandler {
	return &StoreHandler{svc: svc, log: log}
}

func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) Mine(c *gin.Context) {
	resp, err := h.svc.Mine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
