// Package service implements the policy derivation pipeline: flatten members'
// policies, classify renewals against an explicit clock, filter, sort, page.
// The pipeline is a pure function of its inputs; callers re-run it on every
// collection change.
package service

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/crm/directory"
	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/internal/policies/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/apperr"
)

// pendingWindowDays is the renewal window that classifies a policy as Pending.
const pendingWindowDays = 30

// Collections is the read surface the pipeline needs from the store.
type Collections interface {
	ListMembers() []domain.Member
	ListUsers() []domain.User
	ListBranches() []domain.Branch
}

// PaymentRecorder is the store mutation payment extraction writes through.
type PaymentRecorder interface {
	GetMember(id uuid.UUID) (domain.Member, error)
	SetPolicyPayment(memberID, policyID uuid.UUID, payment domain.PaymentDetails) error
}

// Service derives policy rows.
type Service struct {
	data     Collections
	payments PaymentRecorder
}

// New creates the policy pipeline service.
func New(data Collections, payments PaymentRecorder) *Service {
	return &Service{data: data, payments: payments}
}

// ListParams bundles the user-controlled knobs of a listing request.
type ListParams struct {
	Filters  transport.Filters
	Sort     transport.SortKey
	Desc     bool
	Page     int
	PageSize int
}

// List runs the full pipeline for the given scope at the given instant.
func (s *Service) List(scope visibility.Scope, now time.Time, params ListParams) transport.ListResponse {
	members := scope.Members(s.data.ListMembers())
	dir := directory.New(s.data.ListUsers(), s.data.ListBranches())

	rows := flatten(members, dir, now)
	bounds := premiumBounds(rows)
	rows = applyFilters(rows, params.Filters, dir, memberAdvisors(members))
	sortRows(rows, params.Sort, params.Desc)
	renumber(rows)

	return transport.ListResponse{
		Page:          paging.Slice(rows, params.Page, params.PageSize),
		Summary:       summarize(rows),
		PremiumBounds: bounds,
	}
}

// DaysLeft computes whole days until renewal, comparing day-truncated dates
// so a renewal later today counts as 0, not -1. The renewal counters and the
// row classification share this exact computation.
func DaysLeft(renewalDate, now time.Time) int {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(day(renewalDate).Sub(day(now)).Hours() / 24)
}

// Classify maps days-left to a renewal status. The boundaries are load
// bearing: exactly 0 and exactly 30 days are both Pending.
func Classify(daysLeft int) domain.RenewalStatus {
	switch {
	case daysLeft < 0:
		return domain.RenewalOverdue
	case daysLeft <= pendingWindowDays:
		return domain.RenewalPending
	default:
		return domain.RenewalActive
	}
}

// RecordPayment attaches extracted payment details to a policy the caller
// can see.
func (s *Service) RecordPayment(scope visibility.Scope, memberID, policyID uuid.UUID, payment domain.PaymentDetails) error {
	m, err := s.payments.GetMember(memberID)
	if err != nil {
		return apperr.NotFound("Member not found")
	}
	if !scope.CanSeeMember(m) {
		return apperr.Forbidden("Member is outside your book")
	}
	if err := s.payments.SetPolicyPayment(memberID, policyID, payment); err != nil {
		return apperr.NotFound("Policy not found")
	}
	return nil
}

func flatten(members []domain.Member, dir *directory.Directory, now time.Time) []transport.Row {
	var rows []transport.Row
	for _, m := range members {
		for _, p := range m.Policies {
			if !m.PolicyVisible(p) {
				continue
			}

			daysLeft := DaysLeft(p.RenewalDate, now)
			r := transport.Row{
				MemberID:      m.ID,
				MemberName:    m.Name,
				PolicyID:      p.ID,
				PolicyType:    p.PolicyType,
				Premium:       p.Premium,
				Coverage:      p.Coverage,
				RenewalDate:   p.RenewalDate,
				DaysLeft:      daysLeft,
				RenewalStatus: Classify(daysLeft),
				AdvisorName:   directory.NotAvailable,
				BranchName:    directory.NotAvailable,
				Commission:    p.Commission,
			}

			if advisorID, ok := m.FirstAdvisor(); ok {
				r.AdvisorName = dir.AdvisorName(advisorID)
				r.BranchName = dir.BranchNameForAdvisor(advisorID)
			}

			rows = append(rows, r)
		}
	}
	return rows
}

func premiumBounds(rows []transport.Row) [2]float64 {
	if len(rows) == 0 {
		return [2]float64{0, 0}
	}
	min, max := rows[0].Premium, rows[0].Premium
	for _, r := range rows[1:] {
		if r.Premium < min {
			min = r.Premium
		}
		if r.Premium > max {
			max = r.Premium
		}
	}
	return [2]float64{min, max}
}

// memberAdvisors maps each member to its first assigned advisor.
func memberAdvisors(members []domain.Member) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(members))
	for _, m := range members {
		if advisorID, ok := m.FirstAdvisor(); ok {
			out[m.ID] = advisorID
		}
	}
	return out
}

func applyFilters(rows []transport.Row, f transport.Filters, dir *directory.Directory, advisors map[uuid.UUID]uuid.UUID) []transport.Row {
	advisorSet := uuidSet(f.Advisors)
	branchSet := uuidSet(f.Branches)

	out := rows[:0]
	for _, r := range rows {
		advisorID, hasAdvisor := advisors[r.MemberID]
		if len(advisorSet) > 0 {
			if !hasAdvisor || !advisorSet[advisorID] {
				continue
			}
		}
		if len(branchSet) > 0 {
			branchID, ok := branchOf(dir, advisorID, hasAdvisor)
			if !ok || !branchSet[branchID] {
				continue
			}
		}
		if f.PremiumMin != nil && r.Premium < *f.PremiumMin {
			continue
		}
		if f.PremiumMax != nil && r.Premium > *f.PremiumMax {
			continue
		}
		if f.RenewalStart != nil && r.RenewalDate.Before(*f.RenewalStart) {
			continue
		}
		if f.RenewalEnd != nil && r.RenewalDate.After(endOfDay(*f.RenewalEnd)) {
			continue
		}
		if !commissionMatches(r.Commission, f.CommissionStatus) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func commissionMatches(c *domain.Commission, status string) bool {
	if status == "" || status == transport.CommissionStatusAll {
		return true
	}
	return c != nil && c.Status == status
}

// endOfDay extends the inclusive upper bound of a date filter to 23:59:59.999...
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func uuidSet(ids []uuid.UUID) map[uuid.UUID]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func branchOf(dir *directory.Directory, advisorID uuid.UUID, hasAdvisor bool) (uuid.UUID, bool) {
	if !hasAdvisor {
		return uuid.Nil, false
	}
	branchID := dir.BranchForAdvisor(advisorID)
	if branchID == nil {
		return uuid.Nil, false
	}
	return *branchID, true
}

func sortRows(rows []transport.Row, key transport.SortKey, desc bool) {
	less := lessFunc(key)
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func lessFunc(key transport.SortKey) func(a, b transport.Row) bool {
	switch key {
	case transport.SortMemberName:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.MemberName) < strings.ToLower(b.MemberName)
		}
	case transport.SortPolicyType:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.PolicyType) < strings.ToLower(b.PolicyType)
		}
	case transport.SortPremium:
		return func(a, b transport.Row) bool { return a.Premium < b.Premium }
	case transport.SortRenewalDate:
		return func(a, b transport.Row) bool { return a.RenewalDate.Before(b.RenewalDate) }
	case transport.SortDaysLeft:
		return func(a, b transport.Row) bool { return a.DaysLeft < b.DaysLeft }
	case transport.SortRenewalStatus:
		return func(a, b transport.Row) bool {
			return statusRank(a.RenewalStatus) < statusRank(b.RenewalStatus)
		}
	case transport.SortAdvisorName:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.AdvisorName) < strings.ToLower(b.AdvisorName)
		}
	case transport.SortBranchName:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.BranchName) < strings.ToLower(b.BranchName)
		}
	default: // SortSeq: keep flatten order
		return func(a, b transport.Row) bool { return false }
	}
}

// statusRank orders Overdue before Pending before Active, most urgent first.
func statusRank(s domain.RenewalStatus) int {
	switch s {
	case domain.RenewalOverdue:
		return 0
	case domain.RenewalPending:
		return 1
	default:
		return 2
	}
}

func renumber(rows []transport.Row) {
	for i := range rows {
		rows[i].Seq = i + 1
	}
}

func summarize(rows []transport.Row) transport.Summary {
	var s transport.Summary
	s.Total = len(rows)
	for _, r := range rows {
		s.TotalPremium += r.Premium
		switch {
		case r.DaysLeft < 0:
			s.Overdue++
		case r.DaysLeft <= 7:
			s.DueIn7++
			s.DueIn30++
		case r.DaysLeft <= pendingWindowDays:
			s.DueIn30++
		}
	}
	return s
}
