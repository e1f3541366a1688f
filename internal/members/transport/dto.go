// Package transport defines the wire types of the member listing endpoints.
package transport

import (
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// TierAll disables tier filtering.
const TierAll = "All"

// StatusFilter narrows members by active flag.
type StatusFilter string

const (
	StatusActive   StatusFilter = "Active"
	StatusInactive StatusFilter = "Inactive"
	StatusAll      StatusFilter = "All"
)

// FamilyGroup labels for the familyGrouping column.
const (
	GroupFamily     = "Family"
	GroupIndividual = "Individual"
)

// Filters holds the advanced-mode filters. They apply only when Advanced is
// set; quick mode ignores them.
type Filters struct {
	Advanced    bool
	Name        string
	City        string
	Tier        string
	CreatedByMe bool
}

// SortKey selects the member list ordering.
type SortKey string

const (
	SortName     SortKey = "name"
	SortAdvisors SortKey = "advisors"
	SortBranch   SortKey = "branch"
	SortTier     SortKey = "memberType"
	SortFamily   SortKey = "familyGrouping"
	SortCity     SortKey = "city"
	SortStatus   SortKey = "status"
	SortCreated  SortKey = "createdAt"
)

// Row is one member as rendered in the listing.
type Row struct {
	ID           uuid.UUID  `json:"id"`
	MemberCode   string     `json:"memberId"`
	Name         string     `json:"name"`
	Mobile       string     `json:"mobile"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	Tier         string     `json:"memberType"`
	Status       string     `json:"status"`
	FamilyGroup  string     `json:"familyGrouping"`
	AdvisorNames string     `json:"advisorNames"`
	BranchName   string     `json:"branchName"`
	PolicyCount  int        `json:"policyCount"`
	TotalPremium float64    `json:"totalPremium"`
	CreatedAt    time.Time  `json:"createdAt"`
	DOB          *time.Time `json:"dob,omitempty"`
}

// ListResponse is the paginated member listing.
type ListResponse struct {
	paging.Page[Row]
}

// ListMembersRequest carries the member listing query parameters.
type ListMembersRequest struct {
	Status      string `form:"status"`
	Advanced    bool   `form:"advanced"`
	Name        string `form:"name"`
	City        string `form:"city"`
	Tier        string `form:"memberType"`
	CreatedByMe bool   `form:"createdByMe"`
	MatchedIDs  string `form:"matchedIds"`
	SortBy      string `form:"sortBy"`
	SortDesc    bool   `form:"sortDesc"`
	Page        int    `form:"page"`
	PageSize    int    `form:"pageSize"`
}

// ParseStatus maps the raw status parameter, defaulting to All.
func ParseStatus(value string) (StatusFilter, error) {
	switch StatusFilter(value) {
	case StatusActive, StatusInactive, StatusAll:
		return StatusFilter(value), nil
	case "":
		return StatusAll, nil
	default:
		return "", apperr.Validation("invalid status filter")
	}
}

// ParseMatchedIDs decodes the optional AI match set. The distinction between
// nil (no search performed) and an empty slice (search found nothing) is
// load bearing for the pipeline.
func ParseMatchedIDs(value string, present bool) (*[]uuid.UUID, error) {
	if !present {
		return nil, nil
	}
	ids := []uuid.UUID{}
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, apperr.Validation("invalid matchedIds filter")
		}
		ids = append(ids, id)
	}
	return &ids, nil
}

// AISearchRequest is the body of the semantic member search endpoint.
type AISearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// AISearchResponse returns the matched ids; Fallback marks a degraded answer
// from the AI gateway (empty set rather than an error).
type AISearchResponse struct {
	IDs      []uuid.UUID `json:"ids"`
	Fallback bool        `json:"fallback"`
}

// StatusLabel renders the active flag the way the listing shows it.
func StatusLabel(m domain.Member) string {
	if m.Active {
		return string(StatusActive)
	}
	return string(StatusInactive)
}
