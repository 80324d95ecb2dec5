package model

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsTerminal reports whether no transition leaves this status.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    OrderStatus
	Total     decimal.Decimal
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem captures the unit price at placement time; Product is the
// hydrated current product and may be nil.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	Product   *Product
}

// CartLine is a cart item resolved to its product at read time.
type CartLine struct {
	ItemID   uuid.UUID
	Product  Product
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is an immutable view of a user's cart, lines ordered by product id.
type CartSnapshot struct {
	UserID uuid.UUID
	Lines  []CartLine
}

func NewCartSnapshot(userID uuid.UUID, lines []CartLine) CartSnapshot {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b CartLine) int {
		return bytes.Compare(a.Product.ID[:], b.Product.ID[:])
	})
	return CartSnapshot{UserID: userID, Lines: sorted}
}

func (s CartSnapshot) IsEmpty() bool { return len(s.Lines) == 0 }

func (s CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ProductIDs returns the snapshot's product ids in lock order.
func (s CartSnapshot) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Lines))
	for _, l := range s.Lines {
		ids = append(ids, l.Product.ID)
	}
	return ids
}

// SortIDs orders ids the way PostgreSQL orders uuid values.
func SortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
}
