package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyops/agencyops/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, companyID int64, activeOnly bool) ([]Item, error)
	// Upsert inserts or updates by (company, name) and reports whether a row was created.
	Upsert(ctx context.Context, item Item) (created bool, err error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const itemColumns = `id, company_id, name, description, category, unit_price::float8, active, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CompanyID, &it.Name, &it.Description, &it.Category, &it.UnitPrice,
		&it.Active, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

func (r *repository) List(ctx context.Context, companyID int64, activeOnly bool) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM catalog_items
		WHERE company_id = $1 AND (active OR NOT $2)
		ORDER BY category, name`, companyID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Upsert relies on xmax being zero only for freshly inserted rows.
func (r *repository) Upsert(ctx context.Context, item Item) (bool, error) {
	var created bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO catalog_items (company_id, name, description, category, unit_price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, name) DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			unit_price = EXCLUDED.unit_price,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING (xmax = 0)`,
		item.CompanyID, item.Name, item.Description, item.Category, item.UnitPrice, item.Active,
	).Scan(&created)
	return created, err
}
