package transport

import (
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"

	"github.com/google/uuid"
)

// CommissionStatusAll disables the commission-status filter.
const CommissionStatusAll = "All"

// Filters narrows the flattened (member, policy) rows. Zero values mean
// "no constraint" for their field.
type Filters struct {
	RenewalStart     *time.Time  `json:"renewalStart,omitempty"`
	RenewalEnd       *time.Time  `json:"renewalEnd,omitempty"`
	PremiumMin       *float64    `json:"premiumMin,omitempty"`
	PremiumMax       *float64    `json:"premiumMax,omitempty"`
	Advisors         []uuid.UUID `json:"advisors,omitempty"`
	Branches         []uuid.UUID `json:"branches,omitempty"`
	CommissionStatus string      `json:"commissionStatus,omitempty"`
}

// SortKey selects the row ordering.
type SortKey string

const (
	SortSeq           SortKey = "seq"
	SortMemberName    SortKey = "memberName"
	SortPolicyType    SortKey = "policyType"
	SortPremium       SortKey = "premium"
	SortRenewalDate   SortKey = "renewalDate"
	SortDaysLeft      SortKey = "daysLeft"
	SortRenewalStatus SortKey = "renewalStatus"
	SortAdvisorName   SortKey = "advisorName"
	SortBranchName    SortKey = "branchName"
)

// Row is one derived (member, policy) pair.
type Row struct {
	Seq           int                  `json:"seq"`
	MemberID      uuid.UUID            `json:"memberId"`
	MemberName    string               `json:"memberName"`
	PolicyID      uuid.UUID            `json:"policyId"`
	PolicyType    string               `json:"policyType"`
	Premium       float64              `json:"premium"`
	Coverage      float64              `json:"coverage"`
	RenewalDate   time.Time            `json:"renewalDate"`
	DaysLeft      int                  `json:"daysLeft"`
	RenewalStatus domain.RenewalStatus `json:"renewalStatus"`
	AdvisorName   string               `json:"advisorName"`
	BranchName    string               `json:"branchName"`
	Commission    *domain.Commission   `json:"commission,omitempty"`
}

// Summary carries the renewal counters derived from the same filtered rows
// the page was cut from.
type Summary struct {
	Total        int     `json:"total"`
	DueIn7       int     `json:"dueIn7"`
	DueIn30      int     `json:"dueIn30"`
	Overdue      int     `json:"overdue"`
	TotalPremium float64 `json:"totalPremium"`
}

// ListResponse is the policy pipeline's page payload.
type ListResponse struct {
	paging.Page[Row]
	Summary Summary `json:"summary"`
	// PremiumBounds are the observed min/max across all visible policies,
	// for the UI's range slider defaults.
	PremiumBounds [2]float64 `json:"premiumBounds"`
}

// ExtractPaymentRequest carries free text to run through payment extraction.
type ExtractPaymentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExtractPaymentResponse returns the structured extraction. Fallback means
// the gateway degraded and nothing was persisted.
type ExtractPaymentResponse struct {
	Payment  domain.PaymentDetails `json:"payment"`
	Fallback bool                  `json:"fallback"`
}
