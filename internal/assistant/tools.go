package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"finroots_crm_backend/internal/crm/domain"
	taskstransport "finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"

	"github.com/google/uuid"
)

// TaskCreator is the slice of the tasks module the assistant can drive.
type TaskCreator interface {
	Create(ctx context.Context, scope visibility.Scope, req taskstransport.CreateTaskRequest) (domain.Task, error)
}

// MemberReader is the store surface the assistant tools need.
type MemberReader interface {
	ListMembers() []domain.Member
}

// ToolDependencies carries the per-request scope into tool executions. The
// runner does not thread request values through tool callbacks, so the scope
// is set before each run under a lock.
type ToolDependencies struct {
	Members MemberReader
	Tasks   TaskCreator

	mu    sync.RWMutex
	scope visibility.Scope
}

func (d *ToolDependencies) SetScope(scope visibility.Scope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scope = scope
}

func (d *ToolDependencies) Scope() visibility.Scope {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scope
}

// FindMembersInput searches the caller's visible members.
type FindMembersInput struct {
	Query string `json:"query"` // Name or city substring
}

type FindMemberResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	Tier string `json:"memberType"`
}

type FindMembersOutput struct {
	Members []FindMemberResult `json:"members"`
}

func createFindMembersTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "FindMembers",
		Description: "Finds customers visible to the current advisor by name or city substring. Returns id, name, city and tier for each match. Use the returned id when creating tasks.",
	}, func(ctx tool.Context, input FindMembersInput) (FindMembersOutput, error) {
		scope := deps.Scope()
		query := strings.ToLower(input.Query)

		var out FindMembersOutput
		for _, m := range scope.Members(deps.Members.ListMembers()) {
			if query != "" &&
				!strings.Contains(strings.ToLower(m.Name), query) &&
				!strings.Contains(strings.ToLower(m.City), query) {
				continue
			}
			out.Members = append(out.Members, FindMemberResult{
				ID:   m.ID.String(),
				Name: m.Name,
				City: m.City,
				Tier: string(m.Tier),
			})
		}
		return out, nil
	})
}

// CreateTaskInput creates a follow-up task for the current advisor.
type CreateTaskInput struct {
	Description string `json:"description"`
	MemberID    string `json:"memberId"` // From FindMembers; empty for a personal task
}

type CreateTaskOutput struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId,omitempty"`
	Message string `json:"message,omitempty"`
}

func createCreateTaskTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "CreateTask",
		Description: "Creates a follow-up task assigned to the current advisor. Pass the member id from FindMembers to link the task to a customer.",
	}, func(ctx tool.Context, input CreateTaskInput) (CreateTaskOutput, error) {
		scope := deps.Scope()

		req := taskstransport.CreateTaskRequest{
			Description: input.Description,
			AssignedTo:  &scope.UserID,
		}
		if input.MemberID != "" {
			memberID, err := uuid.Parse(input.MemberID)
			if err != nil {
				return CreateTaskOutput{Success: false, Message: "Invalid member id"}, nil
			}
			req.MemberID = &memberID
		}

		task, err := deps.Tasks.Create(context.Background(), scope, req)
		if err != nil {
			return CreateTaskOutput{Success: false, Message: err.Error()}, nil
		}
		return CreateTaskOutput{Success: true, TaskID: task.ID.String()}, nil
	})
}

func buildTools(deps *ToolDependencies) ([]tool.Tool, error) {
	find, err := createFindMembersTool(deps)
	if err != nil {
		return nil, fmt.Errorf("build FindMembers tool: %w", err)
	}
	create, err := createCreateTaskTool(deps)
	if err != nil {
		return nil, fmt.Errorf("build CreateTask tool: %w", err)
	}
	return []tool.Tool{find, create}, nil
}
