package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront/internal/model"
)

const testDefaultReorder = 5

type fixture struct {
	t             *testing.T
	db            *mockDB
	dispatcher    *mockDispatcher
	notifications *NotificationService
	orders        *OrderService
	inventory     *InventoryService
	carts         *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMockDB()
	dispatcher := &mockDispatcher{}
	log := discardLogger()

	notifications := NewNotificationService(db.stores(), db.notifications(), dispatcher, testDefaultReorder, log, nil)
	return &fixture{
		t:             t,
		db:            db,
		dispatcher:    dispatcher,
		notifications: notifications,
		orders:        NewOrderService(db.users(), db.orders(), db, notifications, nil, testDefaultReorder, log, nil),
		inventory: NewInventoryService(db.stores(), db.products(), db.histories(), db, notifications, nil,
			testDefaultReorder, 7, log, nil),
		carts: NewCartService(db.users(), db.carts(), db.products()),
	}
}

func (f *fixture) addUser(name string, role model.Role) model.User {
	f.t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Password: "x", Role: role}
	require.NoError(f.t, f.db.users().Create(context.Background(), u))
	return *u
}

func (f *fixture) addStore(owner model.User) model.Store {
	f.t.Helper()
	s := &model.Store{Name: owner.Name + "'s shop", OwnerID: owner.ID}
	require.NoError(f.t, f.db.stores().Create(context.Background(), s))
	return *s
}

type productOpt func(p *model.Product)

func withReorder(level int) productOpt {
	return func(p *model.Product) { p.ReorderLevel = &level }
}

func withExpiry(at time.Time) productOpt {
	return func(p *model.Product) { p.ExpiryDate = &at }
}

func (f *fixture) addProduct(store model.Store, name, price string, stock int, opts ...productOpt) model.Product {
	f.t.Helper()
	p := &model.Product{StoreID: store.ID, Name: name, Category: "grocery", Price: decimal.RequireFromString(price), Stock: stock}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(f.t, f.db.products().Create(context.Background(), p))
	return *p
}

func (f *fixture) addToCart(userID, productID uuid.UUID, qty int) {
	f.t.Helper()
	require.NoError(f.t, f.db.carts().AddItem(context.Background(), &model.CartItem{UserID: userID, ProductID: productID, Quantity: qty}))
}

func (f *fixture) stock(productID uuid.UUID) int {
	var stock int
	f.db.view(func(s *mockState) { stock = s.products[productID].Stock })
	return stock
}

func (f *fixture) counts() (orders, history, notifications, cartLines int) {
	f.db.view(func(s *mockState) {
		orders, history, notifications, cartLines = len(s.orders), len(s.history), len(s.notifications), len(s.cart)
	})
	return
}

func (f *fixture) setStatus(orderID uuid.UUID, status model.OrderStatus) {
	f.db.view(func(s *mockState) {
		for i := range s.orders {
			if s.orders[i].ID == orderID {
				s.orders[i].Status = status
			}
		}
	})
}
