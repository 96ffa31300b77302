package clients

type ListClientsRequest struct {
	CompanyID int64   `json:"company_id" validate:"required,gt=0"`
	Status    *Status `json:"status,omitempty" validate:"omitempty,oneof=active paused completed"`
	Search    string  `json:"search,omitempty" validate:"max=200"`
	Limit     int     `json:"limit" validate:"gte=0,lte=100"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=active paused completed"`
}

type RecordProgressRequest struct {
	Completed int `json:"completed" validate:"gte=0"`
}

type ListDeliverablesRequest struct {
	ClientID      int64  `json:"client_id" validate:"required,gt=0"`
	BillingPeriod string `json:"billing_period,omitempty" validate:"omitempty,datetime=2006-01"`
}
