package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store carries its owner's contact details so notifications need no second lookup.
type Store struct {
	ID         uuid.UUID
	Name       string
	Location   string
	OwnerID    uuid.UUID
	OwnerName  string
	OwnerEmail string
	CreatedAt  time.Time
}

type Product struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Name         string
	Description  string
	Category     string
	Price        decimal.Decimal
	Stock        int
	ReorderLevel *int
	ExpiryDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LowStockThreshold is the reorder level if set, else defaultLevel.
func (p *Product) LowStockThreshold(defaultLevel int) int {
	if p.ReorderLevel != nil {
		return *p.ReorderLevel
	}
	return defaultLevel
}

func (p *Product) IsLowStock(defaultLevel int) bool {
	return p.Stock <= p.LowStockThreshold(defaultLevel)
}

// CartItem is one (user, product) line; the pair is unique.
type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StockHistory struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Change    int
	Reason    string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

type NotificationType string

const (
	NotificationLowStock NotificationType = "LOW_STOCK"
	NotificationExpiry   NotificationType = "EXPIRY"
	NotificationOrder    NotificationType = "ORDER"
	NotificationSystem   NotificationType = "SYSTEM"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	StoreID   uuid.UUID
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}

// EmailMessage is the payload carried on the email queue.
type EmailMessage struct {
	ID      uuid.UUID `json:"id"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
}
