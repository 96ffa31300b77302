package proposals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyops/agencyops/internal/clients"
	"github.com/agencyops/agencyops/internal/platform/db"
	"github.com/agencyops/agencyops/internal/pricing"
)

// ActivationUpdate is the proposal-side write of a successful activation.
type ActivationUpdate struct {
	ProposalID     int64
	Status         Status
	ClientID       int64
	ContractNumber string
	AcceptedAt     time.Time
	AcceptedVia    TriggerSource
}

// Repository is the persistence port of the proposal service. Implementations
// must run WithTx callbacks atomically: either every write inside fn is
// committed or none is.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Proposal, error)
	GetForUpdate(ctx context.Context, id int64) (*Proposal, error)
	List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error)
	ListItems(ctx context.Context, proposalID int64) ([]LineItem, error)
	Create(ctx context.Context, p Proposal) (int64, error)
	Update(ctx context.Context, p Proposal) error
	ReplaceItems(ctx context.Context, proposalID int64, items []LineItem) error
	MarkSent(ctx context.Context, id int64, tokenHash string, at time.Time) error
	SetShareTokenHash(ctx context.Context, id int64, tokenHash string) error
	Archive(ctx context.Context, id int64, at time.Time) error
	MarkActivated(ctx context.Context, u ActivationUpdate) error
	CreateClient(ctx context.Context, c clients.Client) (int64, error)
	InsertDeliverable(ctx context.Context, d clients.Deliverable) (int64, error)
}

type repository struct {
	db      clients.DBTX
	pool    *pgxpool.Pool
	clients clients.Repository
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool, clients: clients.NewRepository(pool)}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, clients: clients.NewTxRepository(tx)})
	})
}

const proposalColumns = `id, company_id, title, client_name, client_contact, client_email, client_phone,
	client_address, client_id, converted_to_client_id, duration, start_date, end_date, payment_type,
	discount_percentage::float8, subtotal_before_discount::float8, discount_amount::float8,
	total_value::float8, payment_schedule, notes, status, share_token_hash, contract_number,
	accepted_via, sent_at, accepted_at, archived_at, created_by, created_at, updated_at`

func scanProposal(row pgx.Row) (*Proposal, error) {
	var (
		p           Proposal
		duration    string
		paymentType string
		status      string
		acceptedVia *string
		endDate     *time.Time
		schedule    []byte
	)
	err := row.Scan(&p.ID, &p.CompanyID, &p.Title, &p.ClientName, &p.ClientContact, &p.ClientEmail,
		&p.ClientPhone, &p.ClientAddress, &p.ClientID, &p.ConvertedToClientID, &duration, &p.StartDate,
		&endDate, &paymentType, &p.DiscountPercentage, &p.SubtotalBeforeDiscount, &p.DiscountAmount,
		&p.TotalValue, &schedule, &p.Notes, &status, &p.ShareTokenHash, &p.ContractNumber,
		&acceptedVia, &p.SentAt, &p.AcceptedAt, &p.ArchivedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Duration = pricing.DurationCode(duration)
	p.PaymentType = pricing.PaymentType(paymentType)
	p.Status = Status(status)
	if acceptedVia != nil {
		via := TriggerSource(*acceptedVia)
		p.AcceptedVia = &via
	}
	if endDate != nil {
		p.EndDate = *endDate
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &p.PaymentSchedule); err != nil {
			return nil, fmt.Errorf("decode payment schedule: %w", err)
		}
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Proposal, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate loads the proposal and holds a row lock until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Proposal, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repository) get(ctx context.Context, id int64, suffix string) (*Proposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

func (r *repository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{req.CompanyID}

	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(client_name ILIKE $%d OR title ILIKE $%d)", len(args), len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM proposals "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s FROM proposals %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		proposalColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, proposalID int64) ([]LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, proposal_id, catalog_item_id, name, description, category, quantity,
		       catalog_price::float8, unit_price::float8, position
		FROM proposal_items WHERE proposal_id = $1 ORDER BY position, id`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.ProposalID, &item.CatalogItemID, &item.Name, &item.Description,
			&item.Category, &item.Quantity, &item.CatalogPrice, &item.UnitPrice, &item.Position); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Proposal) (int64, error) {
	schedule, err := json.Marshal(p.PaymentSchedule)
	if err != nil {
		return 0, fmt.Errorf("encode payment schedule: %w", err)
	}
	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO proposals (company_id, title, client_name, client_contact, client_email, client_phone,
			client_address, client_id, duration, start_date, end_date, payment_type, discount_percentage,
			subtotal_before_discount, discount_amount, total_value, payment_schedule, notes, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		p.CompanyID, p.Title, p.ClientName, p.ClientContact, p.ClientEmail, p.ClientPhone, p.ClientAddress,
		p.ClientID, string(p.Duration), p.StartDate, nullableDate(p.EndDate), string(p.PaymentType),
		p.DiscountPercentage, p.SubtotalBeforeDiscount, p.DiscountAmount, p.TotalValue, schedule, p.Notes,
		string(p.Status), p.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, p Proposal) error {
	schedule, err := json.Marshal(p.PaymentSchedule)
	if err != nil {
		return fmt.Errorf("encode payment schedule: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE proposals SET title = $2, client_name = $3, client_contact = $4, client_email = $5,
			client_phone = $6, client_address = $7, duration = $8, start_date = $9, end_date = $10,
			payment_type = $11, discount_percentage = $12, subtotal_before_discount = $13,
			discount_amount = $14, total_value = $15, payment_schedule = $16, notes = $17, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.ClientName, p.ClientContact, p.ClientEmail, p.ClientPhone, p.ClientAddress,
		string(p.Duration), p.StartDate, nullableDate(p.EndDate), string(p.PaymentType),
		p.DiscountPercentage, p.SubtotalBeforeDiscount, p.DiscountAmount, p.TotalValue, schedule, p.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, proposalID int64, items []LineItem) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM proposal_items WHERE proposal_id = $1`, proposalID); err != nil {
		return err
	}
	for _, item := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO proposal_items (proposal_id, catalog_item_id, name, description, category, quantity,
				catalog_price, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			proposalID, item.CatalogItemID, item.Name, item.Description, item.Category, item.Quantity,
			item.CatalogPrice, item.UnitPrice, item.Position)
		if err != nil {
			return fmt.Errorf("insert item %q: %w", item.Name, err)
		}
	}
	return nil
}

func (r *repository) MarkSent(ctx context.Context, id int64, tokenHash string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE proposals SET status = 'sent', share_token_hash = $2, sent_at = $3, updated_at = NOW()
		WHERE id = $1`, id, tokenHash, at)
}

func (r *repository) SetShareTokenHash(ctx context.Context, id int64, tokenHash string) error {
	return r.exec(ctx, `UPDATE proposals SET share_token_hash = $2, updated_at = NOW() WHERE id = $1`, id, tokenHash)
}

func (r *repository) Archive(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `
		UPDATE proposals SET status = 'archived', share_token_hash = NULL, archived_at = $2, updated_at = NOW()
		WHERE id = $1`, id, at)
}

func (r *repository) MarkActivated(ctx context.Context, u ActivationUpdate) error {
	return r.exec(ctx, `
		UPDATE proposals SET status = $2, client_id = $3, converted_to_client_id = $3, contract_number = $4,
			accepted_at = $5, accepted_via = $6, updated_at = NOW()
		WHERE id = $1`,
		u.ProposalID, string(u.Status), u.ClientID, u.ContractNumber, u.AcceptedAt, string(u.AcceptedVia))
}

func (r *repository) CreateClient(ctx context.Context, c clients.Client) (int64, error) {
	return r.clients.Create(ctx, c)
}

func (r *repository) InsertDeliverable(ctx context.Context, d clients.Deliverable) (int64, error) {
	return r.clients.InsertDeliverable(ctx, d)
}

func (r *repository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
