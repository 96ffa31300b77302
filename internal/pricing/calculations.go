package pricing

const (
	// MinDiscountMonths is the shortest term that qualifies for a discount.
	MinDiscountMonths = 3
	// DiscountFloor is the lowest non-zero discount percentage.
	DiscountFloor = 10.0
	// DiscountCeiling is the highest discount percentage.
	DiscountCeiling = 25.0
)

// Line is the priced part of a line item.
type Line struct {
	Quantity  int
	UnitPrice float64
}

// Total returns quantity × price-at-sale.
func (l Line) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// MonthlySubtotal sums the line totals.
func MonthlySubtotal(lines []Line) float64 {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Total()
	}
	return subtotal
}

// Subtotal returns the contract-level subtotal before discount.
func Subtotal(lines []Line, months int) float64 {
	return MonthlySubtotal(lines) * float64(months)
}

// EligibleForDiscount reports whether a term of the given length can carry a discount.
func EligibleForDiscount(months int) bool {
	return months >= MinDiscountMonths
}

// ClampDiscount maps a requested percentage into the allowed band. A request of
// zero stays zero; ineligible terms always yield zero.
func ClampDiscount(requested float64, months int) float64 {
	if !EligibleForDiscount(months) || requested == 0 {
		return 0
	}
	if requested < DiscountFloor {
		return DiscountFloor
	}
	if requested > DiscountCeiling {
		return DiscountCeiling
	}
	return requested
}

// ApplyDiscount clamps the requested percentage and derives the discount amount
// and the resulting total.
func ApplyDiscount(subtotal, requested float64, months int) (percentage, amount, total float64) {
	percentage = ClampDiscount(requested, months)
	if percentage > 0 {
		amount = subtotal * percentage / 100
	}
	total = subtotal - amount
	return
}
