package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/flicky/storefront/internal/model"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	// Update writes name and location. It returns pgx.ErrNoRows for an unknown id.
	Update(ctx context.Context, store *model.Store) error
}

type pgStoreRepo struct{ db DBTX }

func NewStoreRepository(db DBTX) StoreRepository {
	return &pgStoreRepo{db: db}
}

const storeSelect = `SELECT s.id, s.name, s.location, s.owner_id, u.name, u.email, s.created_at
	FROM stores s JOIN users u ON u.id = s.owner_id `

func (r *pgStoreRepo) Create(ctx context.Context, store *model.Store) error {
	store.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO stores (id, name, location, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
		store.ID, store.Name, store.Location, store.OwnerID,
	).Scan(&store.CreatedAt)
	if err != nil {
		return storeWriteError("create store", err)
	}
	return nil
}

func (r *pgStoreRepo) Update(ctx context.Context, store *model.Store) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE stores SET name = $2, location = $3 WHERE id = $1`,
		store.ID, store.Name, store.Location,
	)
	if err != nil {
		return storeWriteError("update store", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func storeWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "stores_name_key":
			return ErrStoreNameTaken
		case "stores_owner_id_key":
			return ErrStoreOwnerTaken
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *pgStoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	return r.getOne(ctx, `WHERE s.id = $1`, id)
}

func (r *pgStoreRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*model.Store, error) {
	return r.getOne(ctx, `WHERE s.owner_id = $1`, ownerID)
}

func (r *pgStoreRepo) getOne(ctx context.Context, where string, arg any) (*model.Store, error) {
	s := &model.Store{}
	err := r.db.QueryRow(ctx, storeSelect+where, arg).Scan(
		&s.ID, &s.Name, &s.Location, &s.OwnerID, &s.OwnerName, &s.OwnerEmail, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return s, nil
}

func (r *pgStoreRepo) List(ctx context.Context) ([]model.Store, error) {
	rows, err := r.db.Query(ctx, storeSelect+`ORDER BY s.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var stores []model.Store
	for rows.Next() {
		var s model.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.OwnerID, &s.OwnerName, &s.OwnerEmail, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
