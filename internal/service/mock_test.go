package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

// mockState is one consistent view of every table.
type mockState struct {
	users         map[uuid.UUID]model.User
	stores        map[uuid.UUID]model.Store
	products      map[uuid.UUID]model.Product
	cart          map[uuid.UUID]model.CartItem
	orders        []model.Order
	history       []model.StockHistory
	notifications []model.Notification
}

func (s *mockState) clone() *mockState {
	c := &mockState{
		users:         maps.Clone(s.users),
		stores:        maps.Clone(s.stores),
		products:      maps.Clone(s.products),
		cart:          maps.Clone(s.cart),
		history:       slices.Clone(s.history),
		notifications: slices.Clone(s.notifications),
		orders:        make([]model.Order, len(s.orders)),
	}
	for i, o := range s.orders {
		o.Items = slices.Clone(o.Items)
		c.orders[i] = o
	}
	return c
}

// mockDB is an in-memory database. WithTx serializes units of work and runs
// each against a private copy that replaces the state only on success.
type mockDB struct {
	mu     sync.Mutex
	state  *mockState
	fail   map[string]error
	hook   func(op string, arg any) error
	// before runs against the state an op is about to see, so a test can
	// change rows underneath a unit of work.
	before func(op string, s *mockState)
}

func newMockDB() *mockDB {
	return &mockDB{
		state: &mockState{
			users:    map[uuid.UUID]model.User{},
			stores:   map[uuid.UUID]model.Store{},
			products: map[uuid.UUID]model.Product{},
			cart:     map[uuid.UUID]model.CartItem{},
		},
		fail: map[string]error{},
	}
}

func (db *mockDB) failOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[op] = err
}

func (db *mockDB) view(fn func(s *mockState)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.state)
}

func (db *mockDB) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	work := db.state.clone()
	if err := fn(ctx, mockTx{db: db, st: work}); err != nil {
		return err
	}
	db.state = work
	return nil
}

type mockTx struct {
	db *mockDB
	st *mockState
}

func (t mockTx) Products() repository.ProductRepository {
	return &mockProductRepo{mockRepo{db: t.db, st: t.st}}
}
func (t mockTx) Carts() repository.CartRepository { return &mockCartRepo{mockRepo{db: t.db, st: t.st}} }
func (t mockTx) Orders() repository.OrderRepository {
	return &mockOrderRepo{mockRepo{db: t.db, st: t.st}}
}
func (t mockTx) StockHistory() repository.StockHistoryRepository {
	return &mockHistoryRepo{mockRepo{db: t.db, st: t.st}}
}

func (db *mockDB) users() *mockUserRepo                 { return &mockUserRepo{mockRepo{db: db}} }
func (db *mockDB) stores() *mockStoreRepo               { return &mockStoreRepo{mockRepo{db: db}} }
func (db *mockDB) products() *mockProductRepo           { return &mockProductRepo{mockRepo{db: db}} }
func (db *mockDB) carts() *mockCartRepo                 { return &mockCartRepo{mockRepo{db: db}} }
func (db *mockDB) orders() *mockOrderRepo               { return &mockOrderRepo{mockRepo{db: db}} }
func (db *mockDB) histories() *mockHistoryRepo          { return &mockHistoryRepo{mockRepo{db: db}} }
func (db *mockDB) notifications() *mockNotificationRepo { return &mockNotificationRepo{mockRepo{db: db}} }

// mockRepo runs against the transaction copy when st is set, else against
// the committed state under the lock.
type mockRepo struct {
	db *mockDB
	st *mockState
}

func (r mockRepo) do(op string, arg any, fn func(s *mockState) error) error {
	if r.st == nil {
		r.db.mu.Lock()
		defer r.db.mu.Unlock()
	}
	if err := r.db.fail[op]; err != nil {
		return err
	}
	if r.db.hook != nil {
		if err := r.db.hook(op, arg); err != nil {
			return err
		}
	}
	st := r.db.state
	if r.st != nil {
		st = r.st
	}
	if r.db.before != nil {
		r.db.before(op, st)
	}
	return fn(st)
}

func compareIDs(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }

// --- users ---

type mockUserRepo struct{ mockRepo }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	return m.do("users.Create", user, func(s *mockState) error {
		user.ID = uuid.New()
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
		s.users[user.ID] = *user
		return nil
	})
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	var out *model.User
	err := m.do("users.GetByID", id, func(s *mockState) error {
		if u, ok := s.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	var out *model.User
	err := m.do("users.GetByEmail", email, func(s *mockState) error {
		for _, u := range s.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

// --- stores ---

type mockStoreRepo struct{ mockRepo }

func (m *mockStoreRepo) Create(_ context.Context, store *model.Store) error {
	return m.do("stores.Create", store, func(s *mockState) error {
		if err := storeConflict(s, store); err != nil {
			return err
		}
		store.ID = uuid.New()
		store.CreatedAt = time.Now()
		if owner, ok := s.users[store.OwnerID]; ok {
			store.OwnerName, store.OwnerEmail = owner.Name, owner.Email
		}
		s.stores[store.ID] = *store
		return nil
	})
}

func (m *mockStoreRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	var out *model.Store
	err := m.do("stores.GetByID", id, func(s *mockState) error {
		if st, ok := s.stores[id]; ok {
			out = &st
		}
		return nil
	})
	return out, err
}

func (m *mockStoreRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*model.Store, error) {
	var out *model.Store
	err := m.do("stores.GetByOwnerID", ownerID, func(s *mockState) error {
		for _, st := range s.stores {
			if st.OwnerID == ownerID {
				out = &st
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *mockStoreRepo) List(_ context.Context) ([]model.Store, error) {
	var out []model.Store
	err := m.do("stores.List", nil, func(s *mockState) error {
		out = slices.Collect(maps.Values(s.stores))
		slices.SortFunc(out, func(a, b model.Store) int { return strings.Compare(a.Name, b.Name) })
		return nil
	})
	return out, err
}

func (m *mockStoreRepo) Update(_ context.Context, store *model.Store) error {
	return m.do("stores.Update", store, func(s *mockState) error {
		cur, ok := s.stores[store.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		if err := storeConflict(s, store); err != nil {
			return err
		}
		cur.Name, cur.Location = store.Name, store.Location
		s.stores[store.ID] = cur
		return nil
	})
}

// storeConflict mirrors the unique constraints on stores.name and stores.owner_id.
func storeConflict(s *mockState, store *model.Store) error {
	for id, other := range s.stores {
		if id == store.ID {
			continue
		}
		if other.Name == store.Name {
			return repository.ErrStoreNameTaken
		}
		if other.OwnerID == store.OwnerID {
			return repository.ErrStoreOwnerTaken
		}
	}
	return nil
}

// --- products ---

type mockProductRepo struct{ mockRepo }

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	return m.do("products.Create", p, func(s *mockState) error {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()
		p.UpdatedAt = p.CreatedAt
		s.products[p.ID] = *p
		return nil
	})
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	var out *model.Product
	err := m.do("products.GetByID", id, func(s *mockState) error {
		if p, ok := s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (m *mockProductRepo) GetStock(_ context.Context, id uuid.UUID) (int, bool, error) {
	var stock int
	var ok bool
	err := m.do("products.GetStock", id, func(s *mockState) error {
		var p model.Product
		if p, ok = s.products[id]; ok {
			stock = p.Stock
		}
		return nil
	})
	return stock, ok, err
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	var total int
	err := m.do("products.List", f, func(s *mockState) error {
		var all []model.Product
		for _, p := range s.products {
			if f.Category != "" && p.Category != f.Category {
				continue
			}
			if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
				continue
			}
			all = append(all, p)
		}
		slices.SortFunc(all, func(a, b model.Product) int { return strings.Compare(a.Name, b.Name) })
		total = len(all)
		start := min(f.Offset, total)
		end := total
		if f.Limit > 0 {
			end = min(start+f.Limit, total)
		}
		out = all[start:end]
		return nil
	})
	return out, total, err
}

func (m *mockProductRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]model.Product, error) {
	return m.filter("products.ListByStore", func(p model.Product) bool { return p.StoreID == storeID })
}

func (m *mockProductRepo) filter(op string, keep func(p model.Product) bool) ([]model.Product, error) {
	var out []model.Product
	err := m.do(op, nil, func(s *mockState) error {
		for _, p := range s.products {
			if keep(p) {
				out = append(out, p)
			}
		}
		slices.SortFunc(out, func(a, b model.Product) int { return compareIDs(a.ID, b.ID) })
		return nil
	})
	return out, err
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	return m.do("products.Update", p, func(s *mockState) error {
		cur, ok := s.products[p.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		p.Stock = cur.Stock
		p.UpdatedAt = time.Now()
		s.products[p.ID] = *p
		return nil
	})
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	return m.do("products.Delete", id, func(s *mockState) error {
		if _, ok := s.products[id]; !ok {
			return pgx.ErrNoRows
		}
		delete(s.products, id)
		return nil
	})
}

func (m *mockProductRepo) LockByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	return m.filter("products.LockByIDs", func(p model.Product) bool { return slices.Contains(ids, p.ID) })
}

func (m *mockProductRepo) ApplyStockDelta(_ context.Context, id uuid.UUID, delta int) (*model.Product, error) {
	var out *model.Product
	err := m.do("products.ApplyStockDelta", id, func(s *mockState) error {
		p, ok := s.products[id]
		if !ok {
			return pgx.ErrNoRows
		}
		if p.Stock+delta < 0 {
			return repository.ErrInsufficientStock
		}
		p.Stock += delta
		p.UpdatedAt = time.Now()
		s.products[id] = p
		out = &p
		return nil
	})
	return out, err
}

func (m *mockProductRepo) ListLowStock(_ context.Context, storeID *uuid.UUID, defaultLevel int) ([]model.Product, error) {
	return m.filter("products.ListLowStock", func(p model.Product) bool {
		return (storeID == nil || p.StoreID == *storeID) && p.IsLowStock(defaultLevel)
	})
}

func (m *mockProductRepo) ListExpiring(_ context.Context, storeID *uuid.UUID, before time.Time) ([]model.Product, error) {
	return m.filter("products.ListExpiring", func(p model.Product) bool {
		return (storeID == nil || p.StoreID == *storeID) && p.ExpiryDate != nil && !p.ExpiryDate.After(before)
	})
}

// --- cart ---

type mockCartRepo struct{ mockRepo }

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return m.list("carts.ListByUser", userID)
}

func (m *mockCartRepo) LockByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return m.list("carts.LockByUser", userID)
}

func (m *mockCartRepo) list(op string, userID uuid.UUID) ([]model.CartItem, error) {
	var out []model.CartItem
	err := m.do(op, userID, func(s *mockState) error {
		for _, item := range s.cart {
			if item.UserID == userID {
				out = append(out, item)
			}
		}
		slices.SortFunc(out, func(a, b model.CartItem) int { return compareIDs(a.ProductID, b.ProductID) })
		return nil
	})
	return out, err
}

func (m *mockCartRepo) GetItem(_ context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	var out *model.CartItem
	err := m.do("carts.GetItem", itemID, func(s *mockState) error {
		if item, ok := s.cart[itemID]; ok {
			out = &item
		}
		return nil
	})
	return out, err
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	return m.do("carts.AddItem", item, func(s *mockState) error {
		for id, existing := range s.cart {
			if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
				existing.Quantity += item.Quantity
				existing.UpdatedAt = time.Now()
				s.cart[id] = existing
				*item = existing
				return nil
			}
		}
		item.ID = uuid.New()
		item.CreatedAt = time.Now()
		item.UpdatedAt = item.CreatedAt
		s.cart[item.ID] = *item
		return nil
	})
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	return m.do("carts.UpdateQuantity", itemID, func(s *mockState) error {
		item, ok := s.cart[itemID]
		if !ok {
			return pgx.ErrNoRows
		}
		item.Quantity = quantity
		s.cart[itemID] = item
		return nil
	})
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	return m.do("carts.DeleteItem", itemID, func(s *mockState) error {
		if _, ok := s.cart[itemID]; !ok {
			return pgx.ErrNoRows
		}
		delete(s.cart, itemID)
		return nil
	})
}

func (m *mockCartRepo) ClearByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := m.do("carts.ClearByUser", userID, func(s *mockState) error {
		for id, item := range s.cart {
			if item.UserID == userID {
				delete(s.cart, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- orders ---

type mockOrderRepo struct{ mockRepo }

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	return m.do("orders.Create", order, func(s *mockState) error {
		order.ID = uuid.New()
		order.CreatedAt = time.Now()
		order.UpdatedAt = order.CreatedAt
		stored := *order
		stored.Items = nil
		s.orders = append(s.orders, stored)
		return nil
	})
}

func (m *mockOrderRepo) CreateItem(_ context.Context, item *model.OrderItem) error {
	return m.do("orders.CreateItem", item, func(s *mockState) error {
		for i := range s.orders {
			if s.orders[i].ID == item.OrderID {
				item.ID = uuid.New()
				stored := *item
				stored.Product = nil
				s.orders[i].Items = append(s.orders[i].Items, stored)
				return nil
			}
		}
		return pgx.ErrNoRows
	})
}

func hydrate(s *mockState, o model.Order) model.Order {
	o.Items = slices.Clone(o.Items)
	for i := range o.Items {
		if p, ok := s.products[o.Items[i].ProductID]; ok {
			o.Items[i].Product = &p
		}
	}
	return o
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	var out *model.Order
	err := m.do("orders.GetByID", id, func(s *mockState) error {
		for _, o := range s.orders {
			if o.ID == id {
				h := hydrate(s, o)
				out = &h
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	return m.list("orders.ListByUser", func(o model.Order) bool { return o.UserID == userID })
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	return m.list("orders.ListAll", func(model.Order) bool { return true })
}

func (m *mockOrderRepo) list(op string, keep func(o model.Order) bool) ([]model.Order, error) {
	var out []model.Order
	err := m.do(op, nil, func(s *mockState) error {
		for i := len(s.orders) - 1; i >= 0; i-- {
			if keep(s.orders[i]) {
				out = append(out, hydrate(s, s.orders[i]))
			}
		}
		return nil
	})
	return out, err
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	var ok bool
	err := m.do("orders.UpdateStatus", id, func(s *mockState) error {
		for i := range s.orders {
			if s.orders[i].ID == id && s.orders[i].Status == from {
				s.orders[i].Status = to
				s.orders[i].UpdatedAt = time.Now()
				ok = true
			}
		}
		return nil
	})
	return ok, err
}

// --- stock history ---

type mockHistoryRepo struct{ mockRepo }

func (m *mockHistoryRepo) Append(_ context.Context, entry *model.StockHistory) error {
	return m.do("history.Append", entry, func(s *mockState) error {
		entry.ID = uuid.New()
		entry.CreatedAt = time.Now()
		s.history = append(s.history, *entry)
		return nil
	})
}

func (m *mockHistoryRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.StockHistory, error) {
	var out []model.StockHistory
	err := m.do("history.ListByProduct", productID, func(s *mockState) error {
		for i := len(s.history) - 1; i >= 0; i-- {
			if s.history[i].ProductID == productID {
				out = append(out, s.history[i])
			}
		}
		return nil
	})
	return out, err
}

// --- notifications ---

type mockNotificationRepo struct{ mockRepo }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	return m.do("notifications.Create", n, func(s *mockState) error {
		n.ID = uuid.New()
		n.CreatedAt = time.Now()
		s.notifications = append(s.notifications, *n)
		return nil
	})
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	var out *model.Notification
	err := m.do("notifications.GetByID", id, func(s *mockState) error {
		for _, n := range s.notifications {
			if n.ID == id {
				out = &n
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Notification, error) {
	var out []model.Notification
	err := m.do("notifications.ListByUser", userID, func(s *mockState) error {
		for i := len(s.notifications) - 1; i >= 0; i-- {
			if s.notifications[i].UserID == userID {
				out = append(out, s.notifications[i])
			}
		}
		return nil
	})
	return out, err
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	return m.do("notifications.MarkRead", id, func(s *mockState) error {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].IsRead = true
				return nil
			}
		}
		return pgx.ErrNoRows
	})
}

// --- collaborators ---

type mockDispatcher struct {
	mu   sync.Mutex
	sent []model.EmailMessage
	err  error
}

func (d *mockDispatcher) Dispatch(_ context.Context, msg model.EmailMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *mockDispatcher) messages() []model.EmailMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) NotifyLowStock(context.Context, model.Product) error {
	n.calls++
	return io.ErrUnexpectedEOF
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
