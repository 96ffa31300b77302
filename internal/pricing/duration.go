// Package pricing computes proposal subtotals, duration discounts and payment schedules.
package pricing

import (
	"strings"
	"time"
)

// DurationCode identifies a contract billing term.
type DurationCode string

const (
	DurationMonthly    DurationCode = "monthly"
	DurationQuarterly  DurationCode = "quarterly"
	Duration3Months    DurationCode = "3-months"
	DurationSemiAnnual DurationCode = "semi-annual"
	Duration6Months    DurationCode = "6-months"
	DurationAnnual     DurationCode = "annual"
	Duration12Months   DurationCode = "12-months"
)

var durationMonths = map[DurationCode]int{
	DurationMonthly:    1,
	DurationQuarterly:  3,
	Duration3Months:    3,
	DurationSemiAnnual: 6,
	Duration6Months:    6,
	DurationAnnual:     12,
	Duration12Months:   12,
}

// MonthCount resolves a duration code to its number of months. Unknown codes
// resolve to a single month.
func MonthCount(code DurationCode) int {
	if months, ok := durationMonths[normalizeDuration(code)]; ok {
		return months
	}
	return 1
}

// ValidDuration reports whether the code is one of the recognised terms.
func ValidDuration(code DurationCode) bool {
	_, ok := durationMonths[normalizeDuration(code)]
	return ok
}

// EndDate adds the resolved month count to start.
func EndDate(start time.Time, code DurationCode) time.Time {
	if start.IsZero() {
		return time.Time{}
	}
	return start.AddDate(0, MonthCount(code), 0)
}

func normalizeDuration(code DurationCode) DurationCode {
	return DurationCode(strings.ToLower(strings.TrimSpace(string(code))))
}
