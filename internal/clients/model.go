// Package clients holds the client accounts and deliverables produced when a proposal is activated.
package clients

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrInvalidInput  = errors.New("invalid input")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// CanTransition reports whether a client may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusPaused || next == StatusCompleted
	case StatusPaused:
		return next == StatusActive || next == StatusCompleted
	}
	return false
}

type Client struct {
	ID                 int64      `json:"id" db:"id"`
	CompanyID          int64      `json:"company_id" db:"company_id"`
	Name               string     `json:"name" db:"name"`
	ContactName        string     `json:"contact_name" db:"contact_name"`
	Email              string     `json:"email" db:"email"`
	Phone              string     `json:"phone" db:"phone"`
	Address            string     `json:"address" db:"address"`
	ContractType       string     `json:"contract_type" db:"contract_type"`
	StartDate          *time.Time `json:"start_date,omitempty" db:"start_date"`
	TotalContractValue float64    `json:"total_contract_value" db:"total_contract_value"`
	Status             Status     `json:"status" db:"status"`
	SourceProposalID   *int64     `json:"source_proposal_id,omitempty" db:"source_proposal_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Deliverable tracks monthly progress on one contracted service.
type Deliverable struct {
	ID            int64     `json:"id" db:"id"`
	ClientID      int64     `json:"client_id" db:"client_id"`
	ProposalID    *int64    `json:"proposal_id,omitempty" db:"proposal_id"`
	Type          string    `json:"type" db:"type"`
	Total         int       `json:"total" db:"total"`
	Completed     int       `json:"completed" db:"completed"`
	BillingPeriod string    `json:"billing_period" db:"billing_period"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BillingPeriodLayout formats a deliverable billing period.
const BillingPeriodLayout = "2006-01"

// BillingPeriod returns the calendar month of t as YYYY-MM.
func BillingPeriod(t time.Time) string {
	return t.Format(BillingPeriodLayout)
}
