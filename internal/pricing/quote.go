package pricing

import "time"

// Input carries the contract parameters of a proposal form.
type Input struct {
	Lines              []Line
	Duration           DurationCode
	DiscountPercentage float64
	PaymentType        PaymentType
	StartDate          time.Time
	CustomSchedule     []ScheduleEntry
}

// Quote is the numeric bundle produced for a proposal.
type Quote struct {
	MonthCount             int             `json:"month_count"`
	MonthlySubtotal        float64         `json:"monthly_subtotal"`
	SubtotalBeforeDiscount float64         `json:"subtotal_before_discount"`
	DiscountPercentage     float64         `json:"discount_percentage"`
	DiscountAmount         float64         `json:"discount_amount"`
	TotalValue             float64         `json:"total_value"`
	EndDate                time.Time       `json:"end_date"`
	PaymentSchedule        []ScheduleEntry `json:"payment_schedule"`
}

// Calculate runs duration resolution, subtotal, discount and schedule generation.
func Calculate(in Input) (Quote, error) {
	months := MonthCount(in.Duration)
	monthly := MonthlySubtotal(in.Lines)
	subtotal := monthly * float64(months)
	percentage, discount, total := ApplyDiscount(subtotal, in.DiscountPercentage, months)

	schedule, err := GenerateSchedule(total, in.PaymentType, in.StartDate, in.CustomSchedule)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		MonthCount:             months,
		MonthlySubtotal:        monthly,
		SubtotalBeforeDiscount: subtotal,
		DiscountPercentage:     percentage,
		DiscountAmount:         discount,
		TotalValue:             total,
		EndDate:                EndDate(in.StartDate, in.Duration),
		PaymentSchedule:        schedule,
	}, nil
}
