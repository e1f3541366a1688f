// Package service implements the task pipeline and task lifecycle
// operations: listing, creation, bulk fan-out, audited reassignment, and
// status transitions.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/directory"
	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Collections is the read/write surface the task module needs from the store.
type Collections interface {
	ListTasks() []domain.Task
	GetTask(id uuid.UUID) (domain.Task, error)
	CreateTask(t domain.Task)
	UpdateTask(t domain.Task) error
	AppendReassignment(r domain.TaskReassignment)
	ListReassignments(taskID uuid.UUID) []domain.TaskReassignment
	ListUsers() []domain.User
	ListBranches() []domain.Branch
	GetMember(id uuid.UUID) (domain.Member, error)
	GetLead(id uuid.UUID) (domain.Lead, error)
}

// Service owns task operations.
type Service struct {
	data Collections
	bus  events.Bus
	now  func() time.Time
}

func New(data Collections, bus events.Bus, now func() time.Time) *Service {
	return &Service{data: data, bus: bus, now: now}
}

// ListParams bundles the user-controlled knobs of a listing request.
type ListParams struct {
	Filters  transport.Filters
	Sort     transport.SortKey
	Desc     bool
	Page     int
	PageSize int
}

// List runs the task pipeline for the given scope.
func (s *Service) List(scope visibility.Scope, params ListParams) transport.ListResponse {
	tasks := scope.Tasks(s.data.ListTasks())
	dir := directory.New(s.data.ListUsers(), s.data.ListBranches())

	tasks = s.applyFilters(tasks, params.Filters, dir)
	rows := s.toRows(tasks, dir)
	sortRows(rows, params.Sort, params.Desc)

	return transport.ListResponse{Page: paging.Slice(rows, params.Page, params.PageSize)}
}

func (s *Service) applyFilters(tasks []domain.Task, f transport.Filters, dir *directory.Directory) []domain.Task {
	search := strings.ToLower(f.Search)
	branchSet := uuidSet(f.Branches)
	advisorSet := uuidSet(f.Advisors)

	out := tasks[:0]
	for _, t := range tasks {
		switch f.View {
		case transport.ViewCustomer:
			if !t.IsCustomerLinked() {
				continue
			}
		case transport.ViewPersonal:
			if t.IsCustomerLinked() {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if len(advisorSet) > 0 && !advisorSet[t.PrimaryContactPerson] {
			continue
		}
		if len(branchSet) > 0 {
			branchID := dir.BranchForAdvisor(t.PrimaryContactPerson)
			if branchID == nil || !branchSet[*branchID] {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func (s *Service) toRows(tasks []domain.Task, dir *directory.Directory) []transport.Row {
	rows := make([]transport.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, transport.Row{
			ID:           t.ID,
			Description:  t.Description,
			Status:       string(t.Status),
			AssignedTo:   t.PrimaryContactPerson,
			AssigneeName: dir.AdvisorName(t.PrimaryContactPerson),
			BranchName:   dir.BranchNameForAdvisor(t.PrimaryContactPerson),
			TaskType:     taskTypeLabel(t),
			ClientName:   s.clientName(t),
			MemberID:     t.MemberID,
			LeadID:       t.LeadID,
			Expected:     t.ExpectedCompletionAt,
			CreatedAt:    t.CreatedAt,
			Source:       string(t.Type),
		})
	}
	return rows
}

// taskTypeLabel is derived from linkage, not from the stored Manual/Auto
// source field.
func taskTypeLabel(t domain.Task) string {
	if t.IsCustomerLinked() {
		return transport.TypeCustomer
	}
	return transport.TypePersonal
}

func (s *Service) clientName(t domain.Task) string {
	if t.MemberID != nil {
		if m, err := s.data.GetMember(*t.MemberID); err == nil {
			return m.Name
		}
	}
	if t.LeadID != nil {
		if l, err := s.data.GetLead(*t.LeadID); err == nil {
			return l.Name
		}
	}
	if t.IsCustomerLinked() {
		return directory.NotAvailable
	}
	return ""
}

// Create validates and stores a single task.
func (s *Service) Create(ctx context.Context, scope visibility.Scope, req transport.CreateTaskRequest) (domain.Task, error) {
	if strings.TrimSpace(req.Description) == "" {
		return domain.Task{}, apperr.Validation("task description is required")
	}
	if req.MemberID != nil && req.LeadID != nil {
		return domain.Task{}, apperr.Validation("a task links to a member or a lead, not both")
	}
	if !scope.IsAdmin() && req.MemberID == nil && req.LeadID == nil {
		return domain.Task{}, apperr.Validation("a related member or lead is required")
	}

	assignee := scope.UserID
	if req.AssignedTo != nil {
		assignee = *req.AssignedTo
	} else if scope.IsAdmin() {
		return domain.Task{}, apperr.Validation("an assigned advisor is required")
	}

	if err := s.checkLinkage(req.MemberID, req.LeadID); err != nil {
		return domain.Task{}, err
	}

	t := domain.Task{
		ID:                      uuid.New(),
		Description:             strings.TrimSpace(req.Description),
		Status:                  domain.TaskAssigned,
		PrimaryContactPerson:    assignee,
		AlternateContactPersons: req.Alternates,
		MemberID:                req.MemberID,
		LeadID:                  req.LeadID,
		ExpectedCompletionAt:    req.Expected,
		CreatedAt:               s.now(),
		CreatedBy:               scope.UserID,
		Type:                    domain.TaskManual,
		IsShared:                req.IsShared,
	}
	s.data.CreateTask(t)
	s.publishCreated(ctx, t)
	return t, nil
}

// BulkCreate fans a template out to one independent task per target advisor
// and returns every created id.
func (s *Service) BulkCreate(ctx context.Context, scope visibility.Scope, req transport.BulkCreateRequest) ([]uuid.UUID, error) {
	if !scope.IsAdmin() {
		return nil, apperr.Forbidden("bulk task creation is admin only")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("task description is required")
	}
	if req.MemberID != nil && req.LeadID != nil {
		return nil, apperr.Validation("a task links to a member or a lead, not both")
	}
	if err := s.checkLinkage(req.MemberID, req.LeadID); err != nil {
		return nil, err
	}

	dir := directory.New(s.data.ListUsers(), s.data.ListBranches())
	var targets []uuid.UUID
	switch req.Target {
	case transport.TargetAllAdvisors:
		targets = dir.Advisors()
	case transport.TargetBranches:
		if len(req.BranchIDs) == 0 {
			return nil, apperr.Validation("at least one branch is required")
		}
		targets = dir.AdvisorsInBranches(req.BranchIDs)
	default:
		return nil, apperr.Validation("invalid bulk target")
	}
	if len(targets) == 0 {
		return nil, apperr.Validation("no advisors match the selected target")
	}

	ids := make([]uuid.UUID, 0, len(targets))
	for _, advisorID := range targets {
		t := domain.Task{
			ID:                   uuid.New(),
			Description:          strings.TrimSpace(req.Description),
			Status:               domain.TaskAssigned,
			PrimaryContactPerson: advisorID,
			MemberID:             req.MemberID,
			LeadID:               req.LeadID,
			ExpectedCompletionAt: req.Expected,
			CreatedAt:            s.now(),
			CreatedBy:            scope.UserID,
			Type:                 domain.TaskManual,
		}
		s.data.CreateTask(t)
		s.publishCreated(ctx, t)
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// Reassign moves a task to a new owner, recording the actor in the audit
// trail.
func (s *Service) Reassign(ctx context.Context, scope visibility.Scope, taskID, toAdvisorID uuid.UUID) (domain.Task, error) {
	t, err := s.data.GetTask(taskID)
	if err != nil {
		return domain.Task{}, apperr.NotFound("task not found")
	}
	if !scope.CanSeeTask(t) {
		return domain.Task{}, apperr.Forbidden("task belongs to another advisor")
	}
	if _, err := userByID(s.data.ListUsers(), toAdvisorID); err != nil {
		return domain.Task{}, apperr.Validation("target advisor does not exist")
	}
	if t.PrimaryContactPerson == toAdvisorID {
		return domain.Task{}, apperr.Validation("task is already assigned to that advisor")
	}

	from := t.PrimaryContactPerson
	t.PrimaryContactPerson = toAdvisorID
	if err := s.data.UpdateTask(t); err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "reassign task", err)
	}

	s.data.AppendReassignment(domain.TaskReassignment{
		ID:            uuid.New(),
		TaskID:        t.ID,
		FromAdvisorID: from,
		ToAdvisorID:   toAdvisorID,
		PerformedBy:   scope.UserID,
		PerformedAt:   s.now(),
	})
	s.bus.Publish(ctx, events.TaskReassigned{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        t.ID,
		FromAdvisorID: from,
		ToAdvisorID:   toAdvisorID,
		PerformedBy:   scope.UserID,
	})
	return t, nil
}

// Reassignments returns the audit trail of a task, newest last.
func (s *Service) Reassignments(scope visibility.Scope, taskID uuid.UUID) ([]domain.TaskReassignment, error) {
	t, err := s.data.GetTask(taskID)
	if err != nil {
		return nil, apperr.NotFound("task not found")
	}
	if !scope.CanSeeTask(t) {
		return nil, apperr.Forbidden("task belongs to another advisor")
	}
	return s.data.ListReassignments(taskID), nil
}

// UpdateStatus transitions a task's status.
func (s *Service) UpdateStatus(ctx context.Context, scope visibility.Scope, taskID uuid.UUID, status string) (domain.Task, error) {
	if !domain.ValidTaskStatuses[domain.TaskStatus(status)] {
		return domain.Task{}, apperr.Validation("invalid task status")
	}
	t, err := s.data.GetTask(taskID)
	if err != nil {
		return domain.Task{}, apperr.NotFound("task not found")
	}
	if !scope.CanSeeTask(t) {
		return domain.Task{}, apperr.Forbidden("task belongs to another advisor")
	}

	old := t.Status
	t.Status = domain.TaskStatus(status)
	if err := s.data.UpdateTask(t); err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "update task status", err)
	}
	s.bus.Publish(ctx, events.TaskStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    t.ID,
		OldStatus: string(old),
		NewStatus: status,
		ChangedBy: scope.UserID,
	})
	return t, nil
}

func (s *Service) checkLinkage(memberID, leadID *uuid.UUID) error {
	if memberID != nil {
		if _, err := s.data.GetMember(*memberID); err != nil {
			return apperr.Validation("related member does not exist")
		}
	}
	if leadID != nil {
		if _, err := s.data.GetLead(*leadID); err != nil {
			return apperr.Validation("related lead does not exist")
		}
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, t domain.Task) {
	s.bus.Publish(ctx, events.TaskCreated{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     t.ID,
		AssignedTo: t.PrimaryContactPerson,
		MemberID:   t.MemberID,
		LeadID:     t.LeadID,
		TaskType:   string(t.Type),
	})
}

func userByID(users []domain.User, id uuid.UUID) (domain.User, error) {
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperr.NotFound("user not found")
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

func sortRows(rows []transport.Row, key transport.SortKey, desc bool) {
	less := lessFunc(key)
	if less == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func lessFunc(key transport.SortKey) func(a, b transport.Row) bool {
	switch key {
	case transport.SortAssignedTo:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.AssigneeName) < strings.ToLower(b.AssigneeName)
		}
	case transport.SortStatus:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.Status) < strings.ToLower(b.Status)
		}
	case transport.SortBranch:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.BranchName) < strings.ToLower(b.BranchName)
		}
	case transport.SortTaskType:
		return func(a, b transport.Row) bool {
			return a.TaskType < b.TaskType
		}
	case transport.SortDescription:
		return func(a, b transport.Row) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	case transport.SortExpected:
		return func(a, b transport.Row) bool {
			return timeOrEpoch(a.Expected).Before(timeOrEpoch(b.Expected))
		}
	case transport.SortCreated:
		return func(a, b transport.Row) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		return nil
	}
}

// timeOrEpoch treats a missing date as the epoch so unset dates group at the
// start of an ascending sort.
func timeOrEpoch(t *time.Time) time.Time {
	if t == nil {
		return time.Unix(0, 0).UTC()
	}
	return *t
}
