// Package transport defines the analytics response shapes.
package transport

// MonthBucket is one calendar-month bucket of the forward renewal histogram.
type MonthBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CategoryCount is one lead-source category with its member count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// StateCount is one state with its member count.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// GrowthPoint is one month of the cumulative customer-growth series.
type GrowthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Overview is the dashboard aggregate over the caller's visible book.
type Overview struct {
	TotalCustomers      int             `json:"totalCustomers"`
	TotalPolicies       int             `json:"totalPolicies"`
	TotalPremium        float64         `json:"totalPremium"`
	AvgPoliciesPerCust  float64         `json:"avgPoliciesPerCustomer"`
	RenewalsByMonth     []MonthBucket   `json:"renewalsByMonth"`
	LeadSourceBreakdown []CategoryCount `json:"leadSourceBreakdown"`
	CustomerGrowth      []GrowthPoint   `json:"customerGrowth"`
	StateCounts         []StateCount    `json:"stateCounts"`
}

// ForecastResponse extends the growth series with an AI projection. When the
// projection is unavailable the Forecast slice is empty and Fallback is true;
// otherwise Forecast starts at the last historical point so the two series
// join without a gap.
type ForecastResponse struct {
	History  []GrowthPoint `json:"history"`
	Forecast []GrowthPoint `json:"forecast"`
	Fallback bool          `json:"fallback"`
}
