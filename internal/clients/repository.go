package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyops/agencyops/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	InsertDeliverable(ctx context.Context, d Deliverable) (int64, error)
	GetDeliverable(ctx context.Context, id int64) (*Deliverable, error)
	ListDeliverables(ctx context.Context, req ListDeliverablesRequest) ([]Deliverable, error)
	UpdateDeliverableProgress(ctx context.Context, id int64, completed int) error
}

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds a repository to an open transaction owned by the caller.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const clientColumns = `id, company_id, name, contact_name, email, phone, address, contract_type,
	start_date, total_contract_value::float8, status, source_proposal_id, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.ContactName, &c.Email, &c.Phone, &c.Address,
		&c.ContractType, &c.StartDate, &c.TotalContractValue, &c.Status, &c.SourceProposalID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{req.CompanyID}

	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		clientColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (company_id, name, contact_name, email, phone, address, contract_type,
			start_date, total_contract_value, status, source_proposal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		c.CompanyID, c.Name, c.ContactName, c.Email, c.Phone, c.Address, c.ContractType,
		c.StartDate, c.TotalContractValue, c.Status, c.SourceProposalID,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE clients SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertDeliverable(ctx context.Context, d Deliverable) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO deliverables (client_id, proposal_id, type, total, completed, billing_period)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		d.ClientID, d.ProposalID, d.Type, d.Total, d.Completed, d.BillingPeriod,
	).Scan(&id)
	return id, err
}

const deliverableColumns = `id, client_id, proposal_id, type, total, completed, billing_period, created_at, updated_at`

func scanDeliverable(row pgx.Row) (*Deliverable, error) {
	var d Deliverable
	if err := row.Scan(&d.ID, &d.ClientID, &d.ProposalID, &d.Type, &d.Total, &d.Completed,
		&d.BillingPeriod, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) GetDeliverable(ctx context.Context, id int64) (*Deliverable, error) {
	d, err := scanDeliverable(r.db.QueryRow(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *repository) ListDeliverables(ctx context.Context, req ListDeliverablesRequest) ([]Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE client_id = $1`
	args := []interface{}{req.ClientID}
	if req.BillingPeriod != "" {
		query += ` AND billing_period = $2`
		args = append(args, req.BillingPeriod)
	}
	query += ` ORDER BY billing_period DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *repository) UpdateDeliverableProgress(ctx context.Context, id int64, completed int) error {
	tag, err := r.db.Exec(ctx, `UPDATE deliverables SET completed = $2, updated_at = NOW() WHERE id = $1`, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
