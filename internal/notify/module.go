package notify

import (
	"context"
	"fmt"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/events"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/platform/httpkit"
	"finroots_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Collections is the read surface the module needs to resolve a task's owner.
type Collections interface {
	GetTask(id uuid.UUID) (domain.Task, error)
}

// Module is the notification bounded context module implementing http.Module
// and events.Handler.
type Module struct {
	feed *Feed
	data Collections
	log  *logger.Logger
}

// NewModule creates the notification module.
func NewModule(data Collections, log *logger.Logger, now func() time.Time) *Module {
	return &Module{
		feed: NewFeed(now),
		data: data,
		log:  log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notifications"
}

// RegisterHandlers subscribes to the task lifecycle events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TaskCreated{}.EventName(), m)
	bus.Subscribe(events.TaskReassigned{}.EventName(), m)
	bus.Subscribe(events.TaskStatusChanged{}.EventName(), m)
	bus.Subscribe(events.ActionItemConverted{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TaskCreated:
		return m.handleTaskCreated(e)
	case events.TaskReassigned:
		return m.handleTaskReassigned(e)
	case events.TaskStatusChanged:
		return m.handleTaskStatusChanged(e)
	case events.ActionItemConverted:
		return m.handleActionItemConverted(e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleTaskCreated(e events.TaskCreated) error {
	msg := "A new task was assigned to you"
	if e.TaskType == string(domain.TaskAuto) {
		msg = "A renewal follow-up task was created for you"
	}
	m.feed.Push(e.AssignedTo, e.TaskID, msg)
	return nil
}

func (m *Module) handleTaskReassigned(e events.TaskReassigned) error {
	m.feed.Push(e.ToAdvisorID, e.TaskID, "A task was reassigned to you")
	return nil
}

func (m *Module) handleTaskStatusChanged(e events.TaskStatusChanged) error {
	t, err := m.data.GetTask(e.TaskID)
	if err != nil {
		return fmt.Errorf("resolve task %s for status notification: %w", e.TaskID, err)
	}
	// Advisors changing their own task's status don't need to hear about it.
	if t.PrimaryContactPerson == e.ChangedBy {
		return nil
	}
	m.feed.Push(t.PrimaryContactPerson, e.TaskID,
		fmt.Sprintf("Task status changed from %s to %s", e.OldStatus, e.NewStatus))
	return nil
}

func (m *Module) handleActionItemConverted(e events.ActionItemConverted) error {
	// The created task already produced an assignment notification; this
	// event is the audit record linking note and task.
	m.log.Info("action item converted", "noteId", e.NoteID, "taskId", e.TaskID)
	return nil
}

// ListResponse wraps the caller's notification feed.
type ListResponse struct {
	Items []Notification `json:"items"`
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/notifications")
	rg.GET("", m.list)
}

func (m *Module) list(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	items := m.feed.ForAdvisor(id.UserID())
	if items == nil {
		items = []Notification{}
	}
	httpkit.OK(c, ListResponse{Items: items})
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
