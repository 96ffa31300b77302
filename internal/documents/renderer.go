// Package documents renders proposals and contracts as HTML and PDF.
package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agencyops/agencyops/internal/pricing"
	"github.com/agencyops/agencyops/internal/proposals"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dateLayout = "2 Jan 2006"

// Renderer fills the contract template from a proposal's stored pricing bundle.
type Renderer struct {
	tmpl    *template.Template
	printer *message.Printer
	lang    language.Tag
	symbol  string
}

// NewRenderer parses the embedded template. lang is a BCP 47 tag; unknown tags fall back to English.
func NewRenderer(lang, currencySymbol string) (*Renderer, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	tmpl, err := template.ParseFS(templateFS, "templates/contract.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse contract template: %w", err)
	}
	return &Renderer{
		tmpl:    tmpl,
		printer: message.NewPrinter(tag),
		lang:    tag,
		symbol:  currencySymbol,
	}, nil
}

type itemView struct {
	Name        string
	Description string
	Category    string
	Quantity    int
	UnitPrice   string
	Total       string
}

type installmentView struct {
	Index   int
	DueDate string
	Amount  string
	Status  pricing.InstallmentStatus
}

type contractView struct {
	Lang               string
	ID                 int64
	Title              string
	ContractNumber     string
	Status             proposals.Status
	ClientName         string
	ClientContact      string
	ClientEmail        string
	ClientPhone        string
	ClientAddress      string
	Duration           pricing.DurationCode
	MonthCount         int
	StartDate          string
	EndDate            string
	Items              []itemView
	MonthlySubtotal    string
	Subtotal           string
	HasDiscount        bool
	DiscountPercentage string
	DiscountAmount     string
	Total              string
	Schedule           []installmentView
	Notes              string
}

// RenderContract produces the HTML page for p. Amounts come from the stored
// bundle and are only rounded here for display.
func (r *Renderer) RenderContract(p *proposals.Proposal) ([]byte, error) {
	view := contractView{
		Lang:               r.lang.String(),
		ID:                 p.ID,
		Title:              p.Title,
		Status:             p.Status,
		ClientName:         p.ClientName,
		ClientContact:      p.ClientContact,
		ClientEmail:        p.ClientEmail,
		ClientPhone:        p.ClientPhone,
		ClientAddress:      p.ClientAddress,
		Duration:           p.Duration,
		MonthCount:         p.MonthCount(),
		StartDate:          displayDate(p.StartDate),
		EndDate:            displayDate(p.EndDate),
		Subtotal:           r.Money(p.SubtotalBeforeDiscount),
		HasDiscount:        p.DiscountAmount > 0,
		DiscountPercentage: strconv.FormatFloat(p.DiscountPercentage, 'f', -1, 64),
		DiscountAmount:     r.Money(p.DiscountAmount),
		Total:              r.Money(p.TotalValue),
		Notes:              p.Notes,
	}
	if p.ContractNumber != nil {
		view.ContractNumber = *p.ContractNumber
	}

	var monthly float64
	for _, item := range p.Items {
		monthly += item.Total()
		view.Items = append(view.Items, itemView{
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   r.Money(item.UnitPrice),
			Total:       r.Money(item.Total()),
		})
	}
	view.MonthlySubtotal = r.Money(monthly)

	for _, entry := range p.PaymentSchedule {
		view.Schedule = append(view.Schedule, installmentView{
			Index:   entry.Index,
			DueDate: displayDate(entry.DueDate),
			Amount:  r.Money(entry.Amount),
			Status:  entry.Status,
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render contract %d: %w", p.ID, err)
	}
	return buf.Bytes(), nil
}

// Money formats an amount with locale grouping and two decimals.
func (r *Renderer) Money(v float64) string {
	return r.symbol + r.printer.Sprintf("%.2f", v)
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
