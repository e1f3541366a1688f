package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus mirrors the task status master.
type TaskStatus string

const (
	TaskAssigned   TaskStatus = "Assigned"
	TaskPending    TaskStatus = "Pending"
	TaskViewed     TaskStatus = "Viewed"
	TaskInProgress TaskStatus = "InProgress"
	TaskCompleted  TaskStatus = "Completed"
	TaskCancelled  TaskStatus = "Cancelled"
)

// ValidTaskStatuses is the closed set of statuses accepted on updates.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskAssigned:   true,
	TaskPending:    true,
	TaskViewed:     true,
	TaskInProgress: true,
	TaskCompleted:  true,
	TaskCancelled:  true,
}

// TaskType distinguishes advisor-created tasks from scheduler-generated ones.
type TaskType string

const (
	TaskManual TaskType = "Manual"
	TaskAuto   TaskType = "Auto"
)

// Task is an independent work item. At most one of MemberID/LeadID is set;
// a task with neither is a personal task.
type Task struct {
	ID                      uuid.UUID   `json:"id" yaml:"id"`
	Description             string      `json:"taskDescription" yaml:"taskDescription"`
	Status                  TaskStatus  `json:"statusId" yaml:"statusId"`
	PrimaryContactPerson    uuid.UUID   `json:"primaryContactPerson" yaml:"primaryContactPerson"`
	AlternateContactPersons []uuid.UUID `json:"alternateContactPersons,omitempty" yaml:"alternateContactPersons,omitempty"`
	MemberID                *uuid.UUID  `json:"memberId,omitempty" yaml:"memberId,omitempty"`
	LeadID                  *uuid.UUID  `json:"leadId,omitempty" yaml:"leadId,omitempty"`
	ExpectedCompletionAt    *time.Time  `json:"expectedCompletionDateTime,omitempty" yaml:"expectedCompletionDateTime,omitempty"`
	CreatedAt               time.Time   `json:"creationDateTime" yaml:"creationDateTime"`
	CreatedBy               uuid.UUID   `json:"createdBy" yaml:"createdBy"`
	Type                    TaskType    `json:"taskType" yaml:"taskType"`
	IsShared                bool        `json:"isShared" yaml:"isShared"`
}

// IsCustomerLinked reports whether the task relates to a member or lead.
func (t Task) IsCustomerLinked() bool {
	return t.MemberID != nil || t.LeadID != nil
}

// IsOpen reports whether the task still requires action.
func (t Task) IsOpen() bool {
	return t.Status != TaskCompleted && t.Status != TaskCancelled
}

// TaskReassignment is the audit record written when a task changes owner.
// Reassignment is a distinct operation from a field edit because it changes
// visibility and ownership.
type TaskReassignment struct {
	ID             uuid.UUID `json:"id"`
	TaskID         uuid.UUID `json:"taskId"`
	FromAdvisorID  uuid.UUID `json:"fromAdvisorId"`
	ToAdvisorID    uuid.UUID `json:"toAdvisorId"`
	PerformedBy    uuid.UUID `json:"performedBy"`
	PerformedAt    time.Time `json:"performedAt"`
}
