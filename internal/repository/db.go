package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientStock is returned when a stock delta would drive stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrProductReferenced is returned when deleting a product that order lines still point at.
var ErrProductReferenced = errors.New("product is referenced by orders")

// ErrStoreNameTaken and ErrStoreOwnerTaken report the stores unique constraints.
var (
	ErrStoreNameTaken  = errors.New("store name already exists")
	ErrStoreOwnerTaken = errors.New("owner already has a store")
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx exposes the repositories bound to one database transaction.
type Tx interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	StockHistory() StockHistoryRepository
}

// TxManager runs fn as one unit of work: fn's error rolls everything back.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type pgTx struct{ db DBTX }

func (t pgTx) Products() ProductRepository          { return &pgProductRepo{db: t.db} }
func (t pgTx) Carts() CartRepository                { return &pgCartRepo{db: t.db} }
func (t pgTx) Orders() OrderRepository              { return &pgOrderRepo{db: t.db} }
func (t pgTx) StockHistory() StockHistoryRepository { return &pgStockHistoryRepo{db: t.db} }

type pgTxManager struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxManager runs units of work at READ COMMITTED; stock rows are
// serialized by the row locks the repositories take.
func NewTxManager(pool *pgxpool.Pool, timeout time.Duration) TxManager {
	return &pgTxManager{pool: pool, timeout: timeout}
}

func (m *pgTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(ctx, pgTx{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
