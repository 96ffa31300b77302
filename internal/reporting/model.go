// Package reporting computes pipeline summaries over proposals and clients.
package reporting

import "time"

// StatusTotals is the count and summed total value of proposals in one status.
type StatusTotals struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

type PipelineSummary struct {
	CompanyID      int64          `json:"company_id"`
	Statuses       []StatusTotals `json:"statuses"`
	ActiveClients  int            `json:"active_clients"`
	ConversionRate float64        `json:"conversion_rate"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// ConversionRate is converted / (sent + converted), where converted counts
// accepted and active proposals. It is zero when nothing was ever sent.
func ConversionRate(statuses []StatusTotals) float64 {
	var sent, converted int
	for _, s := range statuses {
		switch s.Status {
		case "sent":
			sent += s.Count
		case "accepted", "active":
			converted += s.Count
		}
	}
	if sent+converted == 0 {
		return 0
	}
	return float64(converted) / float64(sent+converted)
}
