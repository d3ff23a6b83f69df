package entity

// Metrics are the aggregate summary statistics shown on the dashboard.
type Metrics struct {
	TotalExtractions int64  `json:"total_extractions"`
	ThisWeek         int64  `json:"this_week"`
	AvgSize          string `json:"avg_size"`
	SuccessRate      string `json:"success_rate"`
}
