// Package directory resolves advisor and branch references to display names.
// Unresolvable references render as the literal "N/A" rather than erroring,
// matching how the UI treats data-consistency gaps.
package directory

import (
	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

// NotAvailable is the placeholder for unresolvable references.
const NotAvailable = "N/A"

// Directory indexes users and branches for per-row lookups.
type Directory struct {
	users    map[uuid.UUID]domain.User
	branches map[uuid.UUID]domain.Branch
}

// New builds a directory from the loaded collections.
func New(users []domain.User, branches []domain.Branch) *Directory {
	d := &Directory{
		users:    make(map[uuid.UUID]domain.User, len(users)),
		branches: make(map[uuid.UUID]domain.Branch, len(branches)),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	for _, b := range branches {
		d.branches[b.ID] = b
	}
	return d
}

// User returns the user record for an id.
func (d *Directory) User(id uuid.UUID) (domain.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// AdvisorName returns the advisor's display name, or "N/A".
func (d *Directory) AdvisorName(id uuid.UUID) string {
	if u, ok := d.users[id]; ok {
		return u.Name
	}
	return NotAvailable
}

// BranchName returns the branch display name, or "N/A".
func (d *Directory) BranchName(id *uuid.UUID) string {
	if id == nil {
		return NotAvailable
	}
	if b, ok := d.branches[*id]; ok {
		return b.Name
	}
	return NotAvailable
}

// BranchForAdvisor resolves an advisor to their branch id, if any.
func (d *Directory) BranchForAdvisor(advisorID uuid.UUID) *uuid.UUID {
	u, ok := d.users[advisorID]
	if !ok {
		return nil
	}
	return u.BranchID
}

// BranchNameForAdvisor resolves an advisor's branch display name, or "N/A".
func (d *Directory) BranchNameForAdvisor(advisorID uuid.UUID) string {
	return d.BranchName(d.BranchForAdvisor(advisorID))
}

// AdvisorsInBranches returns the ids of all advisors whose branch is in the
// given set.
func (d *Directory) AdvisorsInBranches(branchIDs []uuid.UUID) []uuid.UUID {
	wanted := make(map[uuid.UUID]bool, len(branchIDs))
	for _, id := range branchIDs {
		wanted[id] = true
	}

	var out []uuid.UUID
	for _, u := range d.users {
		if u.Role != domain.RoleAdvisor || u.BranchID == nil {
			continue
		}
		if wanted[*u.BranchID] {
			out = append(out, u.ID)
		}
	}
	return out
}

// Advisors returns the ids of all advisor users.
func (d *Directory) Advisors() []uuid.UUID {
	var out []uuid.UUID
	for _, u := range d.users {
		if u.Role == domain.RoleAdvisor {
			out = append(out, u.ID)
		}
	}
	return out
}
