package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/flicky/storefront/internal/model"
)

type ProductFilter struct {
	Limit    int
	Offset   int
	Search   string
	Category string
	Sort     string
	Order    string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// GetStock reads only the stock column; ok is false when the product is gone.
	GetStock(ctx context.Context, id uuid.UUID) (stock int, ok bool, err error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// LockByIDs reads and row-locks the products in ascending id order.
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	// ApplyStockDelta adds delta to stock in place. It returns
	// ErrInsufficientStock when the result would be negative and
	// pgx.ErrNoRows when the product does not exist.
	ApplyStockDelta(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error)

	// A nil storeID means all stores.
	ListLowStock(ctx context.Context, storeID *uuid.UUID, defaultLevel int) ([]model.Product, error)
	ListExpiring(ctx context.Context, storeID *uuid.UUID, before time.Time) ([]model.Product, error)
}

type pgProductRepo struct{ db DBTX }

func NewProductRepository(db DBTX) ProductRepository {
	return &pgProductRepo{db: db}
}

const productColumns = `id, store_id, name, description, category, price, stock, reorder_level, expiry_date, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.Stock, &p.ReorderLevel, &p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt,
	)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, store_id, name, description, category, price, stock, reorder_level, expiry_date, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.ID, product.StoreID, product.Name, product.Description, product.Category,
		product.Price, product.Stock, product.ReorderLevel, product.ExpiryDate,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetStock(ctx context.Context, id uuid.UUID) (int, bool, error) {
	var stock int
	err := r.db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get product stock: %w", err)
	}
	return stock, true, nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "created_at": true}
	if !allowedSorts[f.Sort] {
		f.Sort = "created_at"
	}
	if f.Order != "asc" && f.Order != "desc" {
		f.Order = "desc"
	}

	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, f.Search, f.Category).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY %s %s LIMIT $3 OFFSET $4`,
		productColumns, where, f.Sort, f.Order)
	rows, err := r.db.Query(ctx, query, f.Search, f.Category, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *pgProductRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = $1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	return collectProducts(rows)
}

// Update writes catalog fields only; stock moves through ApplyStockDelta.
func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, category=$4, price=$5, reorder_level=$6, expiry_date=$7, updated_at=NOW()
			  WHERE id=$1 RETURNING stock, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Category,
		product.Price, product.ReorderLevel, product.ExpiryDate,
	).Scan(&product.Stock, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrProductReferenced
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	return collectProducts(rows)
}

func (r *pgProductRepo) ApplyStockDelta(ctx context.Context, id uuid.UUID, delta int) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.db.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW()
		 WHERE id = $1 AND stock + $2 >= 0
		 RETURNING `+productColumns,
		id, delta,
	), p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return nil, ErrInsufficientStock
}

func (r *pgProductRepo) ListLowStock(ctx context.Context, storeID *uuid.UUID, defaultLevel int) ([]model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE ($1::uuid IS NULL OR store_id = $1) AND stock <= COALESCE(reorder_level, $2)
		 ORDER BY stock, name`,
		storeID, defaultLevel)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return collectProducts(rows)
}

func (r *pgProductRepo) ListExpiring(ctx context.Context, storeID *uuid.UUID, before time.Time) ([]model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE ($1::uuid IS NULL OR store_id = $1) AND expiry_date IS NOT NULL AND expiry_date <= $2
		 ORDER BY expiry_date`,
		storeID, before)
	if err != nil {
		return nil, fmt.Errorf("list expiring: %w", err)
	}
	return collectProducts(rows)
}
