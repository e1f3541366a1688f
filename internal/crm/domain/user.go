package domain

import "github.com/google/uuid"

// Role is the user's role in the CRM.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAdvisor Role = "Advisor"
)

// User is an advisor or administrator.
type User struct {
	ID       uuid.UUID  `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Email    string     `json:"email" yaml:"email"`
	Role     Role       `json:"role" yaml:"role"`
	BranchID *uuid.UUID `json:"employeeBranchId,omitempty" yaml:"employeeBranchId,omitempty"`
}

// Branch is a FinRoots branch office referenced by user profiles.
type Branch struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

// LeadSourceMaster is a node of the lead-source forest. The root ancestor's
// name is the category used for grouping.
type LeadSourceMaster struct {
	ID       uuid.UUID  `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	ParentID *uuid.UUID `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}
