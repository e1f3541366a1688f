// Package service implements the member listing pipeline: scope, intersect
// with an optional AI match set, filter, sort, paginate.
package service

import (
	"sort"
	"strings"

	"finroots_crm_backend/internal/crm/directory"
	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/internal/members/transport"
	"finroots_crm_backend/internal/visibility"

	"github.com/google/uuid"
)

// Collections is the read surface the pipeline needs from the store.
type Collections interface {
	ListMembers() []domain.Member
	ListUsers() []domain.User
	ListBranches() []domain.Branch
}

// Service derives member rows.
type Service struct {
	data Collections
}

func New(data Collections) *Service {
	return &Service{data: data}
}

// ListParams bundles the user-controlled knobs of a listing request.
type ListParams struct {
	Status   transport.StatusFilter
	Filters  transport.Filters
	// Matched is nil when no AI search was performed and a (possibly empty)
	// id set when one was: nil shows the whole scoped set, empty shows none.
	Matched  *[]uuid.UUID
	Sort     transport.SortKey
	Desc     bool
	Page     int
	PageSize int
}

// List runs the member pipeline for the given scope.
func (s *Service) List(scope visibility.Scope, params ListParams) transport.ListResponse {
	members := scope.Members(s.data.ListMembers())
	dir := directory.New(s.data.ListUsers(), s.data.ListBranches())

	members = intersect(members, params.Matched)
	members = filterStatus(members, params.Status)
	members = filterAdvanced(members, params.Filters, scope)

	rows := toRows(members, dir)
	sortRows(rows, params.Sort, params.Desc)

	return transport.ListResponse{Page: paging.Slice(rows, params.Page, params.PageSize)}
}

// ScopedMembers exposes the role-scoped member set for the AI search
// endpoint, which matches only against members the caller may see.
func (s *Service) ScopedMembers(scope visibility.Scope) []domain.Member {
	return scope.Members(s.data.ListMembers())
}

func intersect(members []domain.Member, matched *[]uuid.UUID) []domain.Member {
	if matched == nil {
		return members
	}
	set := make(map[uuid.UUID]bool, len(*matched))
	for _, id := range *matched {
		set[id] = true
	}
	out := members[:0]
	for _, m := range members {
		if set[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func filterStatus(members []domain.Member, status transport.StatusFilter) []domain.Member {
	if status == "" || status == transport.StatusAll {
		return members
	}
	wantActive := status == transport.StatusActive
	out := members[:0]
	for _, m := range members {
		if m.Active == wantActive {
			out = append(out, m)
		}
	}
	return out
}

func filterAdvanced(members []domain.Member, f transport.Filters, scope visibility.Scope) []domain.Member {
	if !f.Advanced && !f.CreatedByMe {
		return members
	}
	name := strings.ToLower(f.Name)
	city := strings.ToLower(f.City)

	out := members[:0]
	for _, m := range members {
		if f.CreatedByMe && m.CreatedBy != scope.UserID {
			continue
		}
		if !f.Advanced {
			out = append(out, m)
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(m.Name), name) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(m.City), city) {
			continue
		}
		if f.Tier != "" && f.Tier != transport.TierAll && string(m.Tier) != f.Tier {
			continue
		}
		out = append(out, m)
	}
	return out
}

func toRows(members []domain.Member, dir *directory.Directory) []transport.Row {
	rows := make([]transport.Row, 0, len(members))
	for _, m := range members {
		r := transport.Row{
			ID:          m.ID,
			MemberCode:  m.MemberCode,
			Name:        m.Name,
			Mobile:      m.Mobile,
			City:        m.City,
			State:       m.State,
			Tier:        string(m.Tier),
			Status:      transport.StatusLabel(m),
			FamilyGroup: familyGroup(m),
			CreatedAt:   m.CreatedAt,
			DOB:         m.DOB,
		}
		r.AdvisorNames = advisorNames(m, dir)
		if advisorID, ok := m.FirstAdvisor(); ok {
			r.BranchName = dir.BranchNameForAdvisor(advisorID)
		} else {
			r.BranchName = directory.NotAvailable
		}
		for _, p := range m.Policies {
			if !m.PolicyVisible(p) {
				continue
			}
			r.PolicyCount++
			r.TotalPremium += p.Premium
		}
		rows = append(rows, r)
	}
	return rows
}

func familyGroup(m domain.Member) string {
	if m.InFamily() {
		return transport.GroupFamily
	}
	return transport.GroupIndividual
}

func advisorNames(m domain.Member, dir *directory.Directory) string {
	if len(m.AssignedTo) == 0 {
		return directory.NotAvailable
	}
	names := make([]string, 0, len(m.AssignedTo))
	for _, id := range m.AssignedTo {
		names = append(names, dir.AdvisorName(id))
	}
	return strings.Join(names, ", ")
}

func sortRows(rows []transport.Row, key transport.SortKey, desc bool) {
	if key == transport.SortCreated {
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return rows[j].CreatedAt.Before(rows[i].CreatedAt)
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
		return
	}

	get := textKey(key)
	if get == nil {
		return
	}
	// Missing values stay last under either direction, so the check sits
	// outside the direction flip.
	sort.SliceStable(rows, func(i, j int) bool {
		av, bv := get(rows[i]), get(rows[j])
		am, bm := textMissing(av), textMissing(bv)
		if am || bm {
			return !am && bm
		}
		if desc {
			return strings.ToLower(bv) < strings.ToLower(av)
		}
		return strings.ToLower(av) < strings.ToLower(bv)
	})
}

func textKey(key transport.SortKey) func(transport.Row) string {
	switch key {
	case transport.SortName:
		return func(r transport.Row) string { return r.Name }
	case transport.SortAdvisors:
		return func(r transport.Row) string { return r.AdvisorNames }
	case transport.SortBranch:
		return func(r transport.Row) string { return r.BranchName }
	case transport.SortTier:
		return func(r transport.Row) string { return r.Tier }
	case transport.SortFamily:
		return func(r transport.Row) string { return r.FamilyGroup }
	case transport.SortCity:
		return func(r transport.Row) string { return r.City }
	case transport.SortStatus:
		return func(r transport.Row) string { return r.Status }
	default:
		return nil
	}
}

func textMissing(v string) bool {
	return v == "" || v == directory.NotAvailable
}
