package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.AuthResponse)
	return resp, args.Error(1)
}

type mockCartService struct{ mock.Mock }

func (m *mockCartService) Snapshot(ctx context.Context, userID uuid.UUID) (model.CartSnapshot, error) {
	args := m.Called(ctx, userID)
	snap, _ := args.Get(0).(model.CartSnapshot)
	return snap, args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, userID, productID, quantity)
	item, _ := args.Get(0).(*model.CartItem)
	return item, args.Error(1)
}

func (m *mockCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	return m.Called(ctx, userID, itemID, quantity).Error(0)
}

func (m *mockCartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *mockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, userID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, orderID, userID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *mockOrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, orderID, userID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*model.Order, error) {
	args := m.Called(ctx, orderID, status)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

type mockInventoryService struct{ mock.Mock }

func (m *mockInventoryService) Adjust(ctx context.Context, actor service.Actor, productID uuid.UUID, change int, reason string) (*model.Product, *model.StockHistory, error) {
	args := m.Called(ctx, actor, productID, change, reason)
	p, _ := args.Get(0).(*model.Product)
	h, _ := args.Get(1).(*model.StockHistory)
	return p, h, args.Error(2)
}

func (m *mockInventoryService) Restock(ctx context.Context, actor service.Actor, productID uuid.UUID, quantity int, reason string) (*model.Product, *model.StockHistory, error) {
	args := m.Called(ctx, actor, productID, quantity, reason)
	p, _ := args.Get(0).(*model.Product)
	h, _ := args.Get(1).(*model.StockHistory)
	return p, h, args.Error(2)
}

func (m *mockInventoryService) StoreInventory(ctx context.Context, actor service.Actor, storeID uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, actor, storeID)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockInventoryService) Alerts(ctx context.Context, actor service.Actor) (*service.Alerts, error) {
	args := m.Called(ctx, actor)
	alerts, _ := args.Get(0).(*service.Alerts)
	return alerts, args.Error(1)
}

func (m *mockInventoryService) LowStock(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockInventoryService) History(ctx context.Context, actor service.Actor, productID uuid.UUID) ([]model.StockHistory, error) {
	args := m.Called(ctx, actor, productID)
	entries, _ := args.Get(0).([]model.StockHistory)
	return entries, args.Error(1)
}

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.ProductResponse)
	return resp, args.Error(1)
}

func (m *mockProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*dto.ProductResponse)
	return resp, args.Error(1)
}

func (m *mockProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.ProductListResponse)
	return resp, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	resp, _ := args.Get(0).(*dto.ProductResponse)
	return resp, args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockStoreService struct{ mock.Mock }

func (m *mockStoreService) Create(ctx context.Context, actor service.Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	args := m.Called(ctx, actor, req)
	resp, _ := args.Get(0).(*dto.StoreResponse)
	return resp, args.Error(1)
}

func (m *mockStoreService) List(ctx context.Context) ([]dto.StoreResponse, error) {
	args := m.Called(ctx)
	stores, _ := args.Get(0).([]dto.StoreResponse)
	return stores, args.Error(1)
}

func (m *mockStoreService) GetByID(ctx context.Context, id uuid.UUID) (*dto.StoreResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*dto.StoreResponse)
	return resp, args.Error(1)
}

func (m *mockStoreService) Mine(ctx context.Context, userID uuid.UUID) (*dto.StoreResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*dto.StoreResponse)
	return resp, args.Error(1)
}

func (m *mockStoreService) Update(ctx context.Context, actor service.Actor, id uuid.UUID, req dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	args := m.Called(ctx, actor, id, req)
	resp, _ := args.Get(0).(*dto.StoreResponse)
	return resp, args.Error(1)
}
