package transport

import (
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// ListPoliciesRequest carries the query parameters of the policy listing
// endpoint. Dates use YYYY-MM-DD; advisor and branch filters are
// comma-separated UUID lists.
type ListPoliciesRequest struct {
	RenewalStart     string  `form:"renewalStart"`
	RenewalEnd       string  `form:"renewalEnd"`
	PremiumMin       *float64 `form:"premiumMin"`
	PremiumMax       *float64 `form:"premiumMax"`
	Advisors         string  `form:"advisors"`
	Branches         string  `form:"branches"`
	CommissionStatus string  `form:"commissionStatus"`
	SortBy           string  `form:"sortBy"`
	SortDesc         bool    `form:"sortDesc"`
	Page             int     `form:"page"`
	PageSize         int     `form:"pageSize"`
}

// Parse validates the raw query values and produces typed filters.
func (r ListPoliciesRequest) Parse() (Filters, SortKey, bool, int, int, error) {
	var f Filters

	start, err := parseDate(r.RenewalStart)
	if err != nil {
		return f, "", false, 0, 0, apperr.Validation("invalid renewalStart date")
	}
	end, err := parseDate(r.RenewalEnd)
	if err != nil {
		return f, "", false, 0, 0, apperr.Validation("invalid renewalEnd date")
	}
	advisors, err := ParseUUIDList(r.Advisors)
	if err != nil {
		return f, "", false, 0, 0, apperr.Validation("invalid advisors filter")
	}
	branches, err := ParseUUIDList(r.Branches)
	if err != nil {
		return f, "", false, 0, 0, apperr.Validation("invalid branches filter")
	}

	f = Filters{
		RenewalStart:     start,
		RenewalEnd:       end,
		PremiumMin:       r.PremiumMin,
		PremiumMax:       r.PremiumMax,
		Advisors:         advisors,
		Branches:         branches,
		CommissionStatus: r.CommissionStatus,
	}

	page := r.Page
	if page < 1 {
		page = 1
	}
	pageSize := r.PageSize
	if pageSize < 1 {
		pageSize = paging.DefaultPageSize
	}

	return f, SortKey(r.SortBy), r.SortDesc, page, pageSize, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseUUIDList splits a comma-separated list of UUIDs. Empty input yields
// nil, which filters treat as "no restriction".
func ParseUUIDList(value string) ([]uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
