// Package catalog holds the agency's priced service catalog that proposal line items are drawn from.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidImport = errors.New("invalid catalog import")
)

type Item struct {
	ID          int64     `json:"id" db:"id"`
	CompanyID   int64     `json:"company_id" db:"company_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// RowError points at a rejected line of an import file.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportErrors collects every rejected row of one import.
type ImportErrors []RowError

func (e ImportErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, row := range e {
		parts = append(parts, fmt.Sprintf("line %d: %s", row.Line, row.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidImport, strings.Join(parts, "; "))
}

func (e ImportErrors) Unwrap() error { return ErrInvalidImport }

// ImportResult summarises a committed import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
