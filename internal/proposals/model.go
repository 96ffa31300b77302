// Package proposals manages the proposal lifecycle from draft through activation,
// where an accepted offer becomes a client engagement with deliverables.
package proposals

import (
	"errors"
	"time"

	"github.com/agencyops/agencyops/internal/pricing"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrValidation    = errors.New("validation failed")
	// ErrInvalidToken is returned for any share-token acceptance that does not
	// match a sent proposal. The message does not reveal which part was wrong.
	ErrInvalidToken = errors.New("invalid proposal or token")
	// ErrActivationInProgress indicates a concurrent activation holds the proposal lock.
	ErrActivationInProgress = errors.New("activation already in progress")
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// IsConverted reports whether the proposal has already produced a client engagement.
func (s Status) IsConverted() bool {
	return s == StatusAccepted || s == StatusActive
}

// TriggerSource records how an activation was authorised.
type TriggerSource string

const (
	TriggerSession    TriggerSource = "session"
	TriggerShareToken TriggerSource = "share_token"
)

// TargetStatus is the status an activation lands in for the trigger.
func (t TriggerSource) TargetStatus() Status {
	if t == TriggerShareToken {
		return StatusAccepted
	}
	return StatusActive
}

type Proposal struct {
	ID                     int64                   `json:"id" db:"id"`
	CompanyID              int64                   `json:"company_id" db:"company_id"`
	Title                  string                  `json:"title" db:"title"`
	ClientName             string                  `json:"client_name" db:"client_name"`
	ClientContact          string                  `json:"client_contact" db:"client_contact"`
	ClientEmail            string                  `json:"client_email" db:"client_email"`
	ClientPhone            string                  `json:"client_phone" db:"client_phone"`
	ClientAddress          string                  `json:"client_address" db:"client_address"`
	ClientID               *int64                  `json:"client_id,omitempty" db:"client_id"`
	ConvertedToClientID    *int64                  `json:"converted_to_client_id,omitempty" db:"converted_to_client_id"`
	Duration               pricing.DurationCode    `json:"duration" db:"duration"`
	StartDate              time.Time               `json:"start_date" db:"start_date"`
	EndDate                time.Time               `json:"end_date" db:"end_date"`
	PaymentType            pricing.PaymentType     `json:"payment_type" db:"payment_type"`
	DiscountPercentage     float64                 `json:"discount_percentage" db:"discount_percentage"`
	SubtotalBeforeDiscount float64                 `json:"subtotal_before_discount" db:"subtotal_before_discount"`
	DiscountAmount         float64                 `json:"discount_amount" db:"discount_amount"`
	TotalValue             float64                 `json:"total_value" db:"total_value"`
	PaymentSchedule        []pricing.ScheduleEntry `json:"payment_schedule" db:"payment_schedule"`
	Notes                  string                  `json:"notes" db:"notes"`
	Status                 Status                  `json:"status" db:"status"`
	ShareTokenHash         *string                 `json:"-" db:"share_token_hash"`
	ContractNumber         *string                 `json:"contract_number,omitempty" db:"contract_number"`
	AcceptedVia            *TriggerSource          `json:"accepted_via,omitempty" db:"accepted_via"`
	SentAt                 *time.Time              `json:"sent_at,omitempty" db:"sent_at"`
	AcceptedAt             *time.Time              `json:"accepted_at,omitempty" db:"accepted_at"`
	ArchivedAt             *time.Time              `json:"archived_at,omitempty" db:"archived_at"`
	CreatedBy              int64                   `json:"created_by" db:"created_by"`
	CreatedAt              time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at" db:"updated_at"`
	Items                  []LineItem              `json:"items,omitempty" db:"-"`
}

// MonthCount resolves the proposal's duration.
func (p *Proposal) MonthCount() int {
	return pricing.MonthCount(p.Duration)
}

// LinkedClientID returns the client the proposal is attached to, if any.
func (p *Proposal) LinkedClientID() (int64, bool) {
	switch {
	case p.ConvertedToClientID != nil:
		return *p.ConvertedToClientID, true
	case p.ClientID != nil:
		return *p.ClientID, true
	}
	return 0, false
}

// LineItem is one priced row of a proposal.
type LineItem struct {
	ID            int64   `json:"id" db:"id"`
	ProposalID    int64   `json:"proposal_id" db:"proposal_id"`
	CatalogItemID *int64  `json:"catalog_item_id,omitempty" db:"catalog_item_id"`
	Name          string  `json:"name" db:"name"`
	Description   string  `json:"description" db:"description"`
	Category      string  `json:"category" db:"category"`
	Quantity      int     `json:"quantity" db:"quantity"`
	CatalogPrice  float64 `json:"catalog_price" db:"catalog_price"`
	UnitPrice     float64 `json:"unit_price" db:"unit_price"`
	Position      int     `json:"position" db:"position"`
}

// Total is quantity × price-at-sale.
func (l LineItem) Total() float64 {
	return l.pricingLine().Total()
}

func (l LineItem) pricingLine() pricing.Line {
	return pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
}

func pricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = item.pricingLine()
	}
	return lines
}

// ApplyQuote copies a computed pricing bundle onto the proposal.
func (p *Proposal) ApplyQuote(q pricing.Quote) {
	p.DiscountPercentage = q.DiscountPercentage
	p.SubtotalBeforeDiscount = q.SubtotalBeforeDiscount
	p.DiscountAmount = q.DiscountAmount
	p.TotalValue = q.TotalValue
	p.EndDate = q.EndDate
	p.PaymentSchedule = q.PaymentSchedule
}
