package reporting

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	StatusTotals(ctx context.Context, companyID int64) ([]StatusTotals, error)
	ActiveClients(ctx context.Context, companyID int64) (int, error)
	Companies(ctx context.Context) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) StatusTotals(ctx context.Context, companyID int64) ([]StatusTotals, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_value), 0)::float8
		FROM proposals WHERE company_id = $1
		GROUP BY status ORDER BY status`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusTotals
	for rows.Next() {
		var st StatusTotals
		if err := rows.Scan(&st.Status, &st.Count, &st.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *repository) ActiveClients(ctx context.Context, companyID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clients WHERE company_id = $1 AND status = 'active'`, companyID).Scan(&n)
	return n, err
}

// Companies lists every company that has at least one proposal.
func (r *repository) Companies(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT company_id FROM proposals ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
