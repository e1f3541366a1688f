// Package transport defines the wire types of the task endpoints.
package transport

import (
	"time"

	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// ActiveView narrows the listing to a task class.
type ActiveView string

const (
	ViewAll      ActiveView = "all"
	ViewCustomer ActiveView = "customer"
	ViewPersonal ActiveView = "personal"
)

// TaskType display labels derived from linkage, not stored.
const (
	TypeCustomer = "Customer"
	TypePersonal = "Personal"
)

// SortKey selects the task list ordering.
type SortKey string

const (
	SortAssignedTo  SortKey = "assignedTo"
	SortStatus      SortKey = "status"
	SortBranch      SortKey = "branch"
	SortTaskType    SortKey = "taskType"
	SortCreated     SortKey = "creationDateTime"
	SortExpected    SortKey = "expectedCompletionDateTime"
	SortDescription SortKey = "taskDescription"
)

// Filters holds the task listing filters.
type Filters struct {
	View     ActiveView
	Search   string
	Status   string
	Branches []uuid.UUID
	Advisors []uuid.UUID
}

// Row is one task as rendered in the listing.
type Row struct {
	ID           uuid.UUID  `json:"id"`
	Description  string     `json:"taskDescription"`
	Status       string     `json:"statusId"`
	AssignedTo   uuid.UUID  `json:"primaryContactPerson"`
	AssigneeName string     `json:"assigneeName"`
	BranchName   string     `json:"branchName"`
	TaskType     string     `json:"taskType"`
	ClientName   string     `json:"clientName"`
	MemberID     *uuid.UUID `json:"memberId,omitempty"`
	LeadID       *uuid.UUID `json:"leadId,omitempty"`
	Expected     *time.Time `json:"expectedCompletionDateTime,omitempty"`
	CreatedAt    time.Time  `json:"creationDateTime"`
	Source       string     `json:"source"`
}

// ListResponse is the paginated task listing.
type ListResponse struct {
	paging.Page[Row]
}

// ListTasksRequest carries the task listing query parameters.
type ListTasksRequest struct {
	View     string `form:"view"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Branches string `form:"branches"`
	Advisors string `form:"advisors"`
	SortBy   string `form:"sortBy"`
	SortDesc bool   `form:"sortDesc"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ParseView maps the raw view parameter, defaulting to all.
func ParseView(value string) (ActiveView, error) {
	switch ActiveView(value) {
	case ViewAll, ViewCustomer, ViewPersonal:
		return ActiveView(value), nil
	case "":
		return ViewAll, nil
	default:
		return "", apperr.Validation("invalid view filter")
	}
}

// CreateTaskRequest is the body of the single-task creation endpoint.
type CreateTaskRequest struct {
	Description string      `json:"taskDescription" validate:"required,min=1,max=500"`
	AssignedTo  *uuid.UUID  `json:"primaryContactPerson"`
	Alternates  []uuid.UUID `json:"alternateContactPersons"`
	MemberID    *uuid.UUID  `json:"memberId"`
	LeadID      *uuid.UUID  `json:"leadId"`
	Expected    *time.Time  `json:"expectedCompletionDateTime"`
	IsShared    bool        `json:"isShared"`
}

// BulkTarget selects the advisor fan-out set for bulk creation.
type BulkTarget string

const (
	TargetAllAdvisors BulkTarget = "allAdvisors"
	TargetBranches    BulkTarget = "branches"
)

// BulkCreateRequest fans a task template out to a set of advisors.
type BulkCreateRequest struct {
	Description string      `json:"taskDescription" validate:"required,min=1,max=500"`
	MemberID    *uuid.UUID  `json:"memberId"`
	LeadID      *uuid.UUID  `json:"leadId"`
	Expected    *time.Time  `json:"expectedCompletionDateTime"`
	Target      BulkTarget  `json:"target" validate:"required,oneof=allAdvisors branches"`
	BranchIDs   []uuid.UUID `json:"branchIds"`
}

// BulkCreateResponse returns one id per created copy.
type BulkCreateResponse struct {
	TaskIDs []uuid.UUID `json:"taskIds"`
}

// ReassignRequest moves a task to a new owner.
type ReassignRequest struct {
	ToAdvisorID uuid.UUID `json:"toAdvisorId" validate:"required"`
}

// UpdateStatusRequest transitions a task's status.
type UpdateStatusRequest struct {
	Status string `json:"statusId" validate:"required"`
}
