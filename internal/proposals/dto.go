package proposals

import (
	"time"

	"github.com/agencyops/agencyops/internal/pricing"
)

// ProposalRequest is the editable form of a proposal.
type ProposalRequest struct {
	Title              string                  `json:"title" validate:"max=200"`
	ClientName         string                  `json:"client_name" validate:"required,max=200"`
	ClientContact      string                  `json:"client_contact" validate:"required_without=ClientEmail,max=200"`
	ClientEmail        string                  `json:"client_email" validate:"omitempty,email"`
	ClientPhone        string                  `json:"client_phone" validate:"max=50"`
	ClientAddress      string                  `json:"client_address" validate:"max=500"`
	Duration           pricing.DurationCode    `json:"duration" validate:"required"`
	StartDate          time.Time               `json:"start_date" validate:"required"`
	PaymentType        pricing.PaymentType     `json:"payment_type" validate:"required,oneof=monthly_split upfront_full custom"`
	DiscountPercentage float64                 `json:"discount_percentage" validate:"gte=0,lte=100"`
	CustomSchedule     []pricing.ScheduleEntry `json:"custom_schedule,omitempty" validate:"required_if=PaymentType custom"`
	Notes              string                  `json:"notes"`
	Items              []LineItemRequest       `json:"items" validate:"required,min=1,dive"`
}

type LineItemRequest struct {
	CatalogItemID *int64   `json:"catalog_item_id,omitempty" validate:"omitempty,gt=0"`
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=1000"`
	Category      string   `json:"category" validate:"max=100"`
	Quantity      int      `json:"quantity" validate:"required,gt=0"`
	CatalogPrice  *float64 `json:"catalog_price,omitempty" validate:"omitempty,gte=0"`
	UnitPrice     float64  `json:"unit_price" validate:"gte=0"`
}

type ListProposalsRequest struct {
	CompanyID int64   `json:"company_id" validate:"required,gt=0"`
	Status    *Status `json:"status,omitempty" validate:"omitempty,oneof=draft sent accepted active archived"`
	Search    string  `json:"search,omitempty" validate:"max=200"`
	Limit     int     `json:"limit" validate:"gte=0,lte=100"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

type AcceptRequest struct {
	Token string `json:"token" validate:"required,max=200"`
}

// SendResult carries the share token, which is only ever returned here and on rotation.
type SendResult struct {
	Proposal   *Proposal `json:"proposal"`
	ShareToken string    `json:"share_token"`
}

// PreviewResult is the pricing bundle of an unsaved form.
type PreviewResult struct {
	pricing.Quote
	LineTotals []float64 `json:"line_totals"`
}

func (r ProposalRequest) lineItems() []LineItem {
	items := make([]LineItem, len(r.Items))
	for i, in := range r.Items {
		catalogPrice := in.UnitPrice
		if in.CatalogPrice != nil {
			catalogPrice = *in.CatalogPrice
		}
		items[i] = LineItem{
			CatalogItemID: in.CatalogItemID,
			Name:          in.Name,
			Description:   in.Description,
			Category:      in.Category,
			Quantity:      in.Quantity,
			CatalogPrice:  catalogPrice,
			UnitPrice:     in.UnitPrice,
			Position:      i + 1,
		}
	}
	return items
}

func (r ProposalRequest) pricingInput() pricing.Input {
	return pricing.Input{
		Lines:              pricingLines(r.lineItems()),
		Duration:           r.Duration,
		DiscountPercentage: r.DiscountPercentage,
		PaymentType:        r.PaymentType,
		StartDate:          r.StartDate,
		CustomSchedule:     r.CustomSchedule,
	}
}
