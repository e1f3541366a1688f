// Package events defines the domain events exchanged between modules over
// the platform event bus.
package events

import (
	"finroots_crm_backend/platform/events"
	"finroots_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export the platform contracts so modules import a single events package.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent { return events.NewBaseEvent() }

// NewInMemoryBus creates the in-process bus used by both binaries.
func NewInMemoryBus(log *logger.Logger) *events.InMemoryBus { return events.NewInMemoryBus(log) }

// TaskCreated is published for every task that enters the system, including
// each copy of a bulk fan-out and scheduler-generated tasks.
type TaskCreated struct {
	BaseEvent
	TaskID     uuid.UUID  `json:"taskId"`
	AssignedTo uuid.UUID  `json:"assignedTo"`
	MemberID   *uuid.UUID `json:"memberId,omitempty"`
	LeadID     *uuid.UUID `json:"leadId,omitempty"`
	TaskType   string     `json:"taskType"`
}

func (e TaskCreated) EventName() string { return "tasks.created" }

// TaskReassigned is published when a task changes owner.
type TaskReassigned struct {
	BaseEvent
	TaskID        uuid.UUID `json:"taskId"`
	FromAdvisorID uuid.UUID `json:"fromAdvisorId"`
	ToAdvisorID   uuid.UUID `json:"toAdvisorId"`
	PerformedBy   uuid.UUID `json:"performedBy"`
}

func (e TaskReassigned) EventName() string { return "tasks.reassigned" }

// TaskStatusChanged is published on status transitions.
type TaskStatusChanged struct {
	BaseEvent
	TaskID    uuid.UUID `json:"taskId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

func (e TaskStatusChanged) EventName() string { return "tasks.status_changed" }

// ActionItemConverted is published when a voice-note action item becomes a
// task.
type ActionItemConverted struct {
	BaseEvent
	NoteID   uuid.UUID  `json:"noteId"`
	TaskID   uuid.UUID  `json:"taskId"`
	MemberID *uuid.UUID `json:"memberId,omitempty"`
	LeadID   *uuid.UUID `json:"leadId,omitempty"`
}

func (e ActionItemConverted) EventName() string { return "notes.action_item.converted" }
