package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// --- Store ---

// CreateStoreRequest assigns the caller as owner unless OwnerID is set.
type CreateStoreRequest struct {
	Name     string     `json:"name" binding:"required"`
	Location string     `json:"location" binding:"required"`
	OwnerID  *uuid.UUID `json:"owner_id"`
}

type UpdateStoreRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Location *string `json:"location"`
}

type StoreOwner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type StoreResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Location  string            `json:"location"`
	Owner     StoreOwner        `json:"owner"`
	Products  []ProductResponse `json:"products,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func ToStoreResponse(s *model.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Location:  s.Location,
		Owner:     StoreOwner{ID: s.OwnerID, Name: s.OwnerName, Email: s.OwnerEmail},
		CreatedAt: s.CreatedAt,
	}
}

// --- Product ---

type CreateProductRequest struct {
	StoreID      uuid.UUID        `json:"store_id" binding:"required"`
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Price        *decimal.Decimal `json:"price" binding:"required"`
	Stock        int              `json:"stock" binding:"min=0"`
	ReorderLevel *int             `json:"reorder_level" binding:"omitempty,min=0"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
}

// UpdateProductRequest has no stock field; stock moves through inventory adjustments.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	Price        *decimal.Decimal `json:"price"`
	ReorderLevel *int             `json:"reorder_level" binding:"omitempty,min=0"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	StoreID      uuid.UUID       `json:"store_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ReorderLevel *int            `json:"reorder_level"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

func ToProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		StoreID:      p.StoreID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Price:        p.Price,
		Stock:        p.Stock,
		ReorderLevel: p.ReorderLevel,
		ExpiryDate:   p.ExpiryDate,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func ToCartResponse(s model.CartSnapshot) CartResponse {
	items := make([]CartItemResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, CartItemResponse{
			ID:        l.ItemID,
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Stock:     l.Product.Stock,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	return CartResponse{Items: items, Total: s.Total()}
}

// --- Order ---

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Status    model.OrderStatus   `json:"status"`
	Total     decimal.Decimal     `json:"total"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Product   *ProductResponse `json:"product,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

func ToOrderResponse(order *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		ir := OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			p := ToProductResponse(item.Product)
			ir.Product = &p
		}
		items = append(items, ir)
	}
	return OrderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.Total,
		Items:     items,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func ToOrderListResponse(orders []model.Order) OrderListResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return OrderListResponse{Orders: out, Total: len(out)}
}

// --- Inventory ---

type AdjustStockRequest struct {
	Change int    `json:"change"`
	Reason string `json:"reason"`
}

type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason"`
}

type StockHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Change    int       `json:"change"`
	Reason    string    `json:"reason"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type AdjustStockResponse struct {
	Product ProductResponse      `json:"product"`
	History StockHistoryResponse `json:"history"`
}

type AlertsResponse struct {
	LowStock     []ProductResponse `json:"lowStock"`
	ExpiringSoon []ProductResponse `json:"expiringSoon"`
}

func ToStockHistoryResponse(h *model.StockHistory) StockHistoryResponse {
	return StockHistoryResponse{
		ID:        h.ID,
		ProductID: h.ProductID,
		Change:    h.Change,
		Reason:    h.Reason,
		CreatedBy: h.CreatedBy,
		CreatedAt: h.CreatedAt,
	}
}

func ToStockHistoryResponses(entries []model.StockHistory) []StockHistoryResponse {
	out := make([]StockHistoryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToStockHistoryResponse(&entries[i]))
	}
	return out
}

// --- Notifications ---

type NotificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	StoreID   uuid.UUID              `json:"store_id"`
	Message   string                 `json:"message"`
	Type      model.NotificationType `json:"type"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

func ToNotificationResponses(list []model.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			StoreID:   n.StoreID,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
