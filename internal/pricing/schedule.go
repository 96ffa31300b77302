package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PaymentType selects how the total is split into installments.
type PaymentType string

const (
	PaymentMonthlySplit PaymentType = "monthly_split"
	PaymentUpfrontFull  PaymentType = "upfront_full"
	PaymentCustom       PaymentType = "custom"
)

// InstallmentStatus tracks settlement of a single installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
)

// SplitSecondInstallmentDays is the gap between the two monthly_split installments.
const SplitSecondInstallmentDays = 15

// ScheduleTolerance is the largest accepted gap between a schedule sum and the total.
const ScheduleTolerance = 0.005

var (
	// ErrUnknownPaymentType is returned for payment types outside the supported set.
	ErrUnknownPaymentType = errors.New("unknown payment type")
	// ErrScheduleMismatch indicates a schedule that does not add up to the total.
	ErrScheduleMismatch = errors.New("payment schedule does not sum to total")
)

// ScheduleEntry is one installment of a payment schedule.
type ScheduleEntry struct {
	Index   int               `json:"installment"`
	Amount  float64           `json:"amount"`
	DueDate time.Time         `json:"due_date"`
	Status  InstallmentStatus `json:"status"`
}

// ValidPaymentType reports whether pt is supported.
func ValidPaymentType(pt PaymentType) bool {
	switch pt {
	case PaymentMonthlySplit, PaymentUpfrontFull, PaymentCustom:
		return true
	}
	return false
}

// GenerateSchedule builds the installment list for total. The schedule is
// always rebuilt from scratch; custom schedules are passed through with their
// indexes normalised.
func GenerateSchedule(total float64, pt PaymentType, start time.Time, custom []ScheduleEntry) ([]ScheduleEntry, error) {
	switch pt {
	case PaymentUpfrontFull:
		return []ScheduleEntry{
			{Index: 1, Amount: total, DueDate: start, Status: InstallmentPending},
		}, nil
	case PaymentMonthlySplit:
		half := total / 2
		return []ScheduleEntry{
			{Index: 1, Amount: half, DueDate: start, Status: InstallmentPending},
			{Index: 2, Amount: total - half, DueDate: start.AddDate(0, 0, SplitSecondInstallmentDays), Status: InstallmentPending},
		}, nil
	case PaymentCustom:
		entries := make([]ScheduleEntry, len(custom))
		for i, entry := range custom {
			entry.Index = i + 1
			if entry.Status == "" {
				entry.Status = InstallmentPending
			}
			entries[i] = entry
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentType, pt)
	}
}

// ScheduleTotal sums installment amounts.
func ScheduleTotal(entries []ScheduleEntry) float64 {
	var sum float64
	for _, entry := range entries {
		sum += entry.Amount
	}
	return sum
}

// CheckScheduleTotal returns ErrScheduleMismatch when the entries do not add up to total.
func CheckScheduleTotal(entries []ScheduleEntry, total float64) error {
	sum := ScheduleTotal(entries)
	if math.Abs(sum-total) > ScheduleTolerance {
		return fmt.Errorf("%w: schedule %.2f, total %.2f", ErrScheduleMismatch, sum, total)
	}
	return nil
}

// MergeStatuses carries installment statuses from previous onto next wherever
// the installment index, amount and due date are unchanged.
func MergeStatuses(previous, next []ScheduleEntry) []ScheduleEntry {
	if len(previous) == 0 {
		return next
	}
	byIndex := make(map[int]ScheduleEntry, len(previous))
	for _, entry := range previous {
		byIndex[entry.Index] = entry
	}
	merged := make([]ScheduleEntry, len(next))
	for i, entry := range next {
		if prev, ok := byIndex[entry.Index]; ok &&
			math.Abs(prev.Amount-entry.Amount) <= ScheduleTolerance &&
			prev.DueDate.Equal(entry.DueDate) {
			entry.Status = prev.Status
		}
		merged[i] = entry
	}
	return merged
}
