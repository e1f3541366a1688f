// Package visibility implements the role-based scoping policy shared by every
// pipeline. Centralizing the Admin/Advisor branching here keeps the pipelines
// from drifting apart in how they interpret ownership.
package visibility

import (
	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

// Scope is the visibility of one authenticated user. It is a plain value so
// pipelines remain pure functions of (collections, scope, filters, clock).
type Scope struct {
	UserID uuid.UUID
	Role   domain.Role
}

// Admin returns an all-seeing scope.
func Admin(userID uuid.UUID) Scope {
	return Scope{UserID: userID, Role: domain.RoleAdmin}
}

// Advisor returns a scope restricted to the advisor's own records.
func Advisor(userID uuid.UUID) Scope {
	return Scope{UserID: userID, Role: domain.RoleAdvisor}
}

// ForRole maps a role claim string to a scope. Unknown roles get the most
// restrictive scope.
func ForRole(userID uuid.UUID, role string) Scope {
	if domain.Role(role) == domain.RoleAdmin {
		return Admin(userID)
	}
	return Advisor(userID)
}

// IsAdmin reports whether the scope sees everything.
func (s Scope) IsAdmin() bool {
	return s.Role == domain.RoleAdmin
}

// CanSeeMember reports whether the member is visible: admins see all,
// advisors see members they are assigned to or created.
func (s Scope) CanSeeMember(m domain.Member) bool {
	if s.IsAdmin() {
		return true
	}
	return m.AssignedToAdvisor(s.UserID) || m.CreatedBy == s.UserID
}

// CanSeeTask reports whether the task is visible: admins see all, advisors
// see tasks they own.
func (s Scope) CanSeeTask(t domain.Task) bool {
	if s.IsAdmin() {
		return true
	}
	return t.PrimaryContactPerson == s.UserID
}

// CanSeeLead reports whether the lead is visible: admins see all, advisors
// see leads assigned to them.
func (s Scope) CanSeeLead(l domain.Lead) bool {
	if s.IsAdmin() {
		return true
	}
	return l.AssignedTo == s.UserID
}

// Members filters a member collection down to what the scope can see,
// preserving order.
func (s Scope) Members(members []domain.Member) []domain.Member {
	if s.IsAdmin() {
		return members
	}
	out := make([]domain.Member, 0, len(members))
	for _, m := range members {
		if s.CanSeeMember(m) {
			out = append(out, m)
		}
	}
	return out
}

// Tasks filters a task collection down to what the scope can see,
// preserving order.
func (s Scope) Tasks(tasks []domain.Task) []domain.Task {
	if s.IsAdmin() {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if s.CanSeeTask(t) {
			out = append(out, t)
		}
	}
	return out
}

// Leads filters a lead collection down to what the scope can see,
// preserving order.
func (s Scope) Leads(leads []domain.Lead) []domain.Lead {
	if s.IsAdmin() {
		return leads
	}
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if s.CanSeeLead(l) {
			out = append(out, l)
		}
	}
	return out
}
