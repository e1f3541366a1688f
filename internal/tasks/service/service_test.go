package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// recordingBus captures published events synchronously for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	st       *store.Store
	bus      *recordingBus
	svc      *Service
	admin    uuid.UUID
	advisorA uuid.UUID
	advisorB uuid.UUID
	branchA  uuid.UUID
	memberID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		st:       store.New(),
		bus:      &recordingBus{},
		admin:    uuid.New(),
		advisorA: uuid.New(),
		advisorB: uuid.New(),
		branchA:  uuid.New(),
	}
	branchB := uuid.New()
	f.st.PutBranch(domain.Branch{ID: f.branchA, Name: "Andheri"})
	f.st.PutBranch(domain.Branch{ID: branchB, Name: "Borivali"})
	f.st.PutUser(domain.User{ID: f.admin, Name: "Admin", Role: domain.RoleAdmin})
	f.st.PutUser(domain.User{ID: f.advisorA, Name: "Advisor A", Role: domain.RoleAdvisor, BranchID: &f.branchA})
	f.st.PutUser(domain.User{ID: f.advisorB, Name: "Advisor B", Role: domain.RoleAdvisor, BranchID: &branchB})

	f.memberID = uuid.New()
	f.st.PutMember(domain.Member{ID: f.memberID, Name: "Ravi Sharma", AssignedTo: []uuid.UUID{f.advisorA}})

	f.svc = New(f.st, f.bus, clock)
	return f
}

func (f *fixture) createTask(t *testing.T, assignee uuid.UUID, memberID *uuid.UUID) domain.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), visibility.Admin(f.admin), transport.CreateTaskRequest{
		Description: "follow up",
		AssignedTo:  &assignee,
		MemberID:    memberID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return task
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, visibility.Admin(f.admin), transport.CreateTaskRequest{Description: "   "}); err == nil {
		t.Fatalf("blank description accepted")
	}
	if _, err := f.svc.Create(ctx, visibility.Admin(f.admin), transport.CreateTaskRequest{Description: "x"}); err == nil {
		t.Fatalf("admin create without assignee accepted")
	}
	// Advisors must link a member or lead.
	if _, err := f.svc.Create(ctx, visibility.Advisor(f.advisorA), transport.CreateTaskRequest{Description: "x"}); err == nil {
		t.Fatalf("advisor create without client linkage accepted")
	}

	task, err := f.svc.Create(ctx, visibility.Advisor(f.advisorA), transport.CreateTaskRequest{
		Description: "call back",
		MemberID:    &f.memberID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.PrimaryContactPerson != f.advisorA {
		t.Fatalf("advisor task not self-assigned")
	}
	if task.Status != domain.TaskAssigned || task.Type != domain.TaskManual {
		t.Fatalf("task defaults = %s / %s", task.Status, task.Type)
	}

	missing := uuid.New()
	if _, err := f.svc.Create(ctx, visibility.Admin(f.admin), transport.CreateTaskRequest{
		Description: "x",
		AssignedTo:  &f.advisorA,
		MemberID:    &missing,
	}); err == nil {
		t.Fatalf("dangling member reference accepted")
	}
}

func TestListScopingAndViews(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, f.advisorA, &f.memberID)
	personal := f.createTask(t, f.advisorA, nil)
	f.createTask(t, f.advisorB, nil)

	all := f.svc.List(visibility.Admin(f.admin), ListParams{PageSize: 10})
	if all.TotalCount != 3 {
		t.Fatalf("admin sees %d tasks, want 3", all.TotalCount)
	}

	mine := f.svc.List(visibility.Advisor(f.advisorA), ListParams{PageSize: 10})
	if mine.TotalCount != 2 {
		t.Fatalf("advisor sees %d tasks, want 2", mine.TotalCount)
	}

	// Personal task appears under the personal view and not the customer view.
	res := f.svc.List(visibility.Advisor(f.advisorA), ListParams{
		Filters:  transport.Filters{View: transport.ViewPersonal},
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].ID != personal.ID {
		t.Fatalf("personal view = %d rows", res.TotalCount)
	}
	res = f.svc.List(visibility.Advisor(f.advisorA), ListParams{
		Filters:  transport.Filters{View: transport.ViewCustomer},
		PageSize: 10,
	})
	for _, r := range res.Items {
		if r.ID == personal.ID {
			t.Fatalf("personal task leaked into customer view")
		}
	}
	if res.TotalCount != 1 || res.Items[0].TaskType != transport.TypeCustomer {
		t.Fatalf("customer view = %+v", res.Items)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, f.advisorA, &f.memberID)
	f.createTask(t, f.advisorB, nil)

	res := f.svc.List(visibility.Admin(f.admin), ListParams{
		Filters:  transport.Filters{Branches: []uuid.UUID{f.branchA}},
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].AssignedTo != f.advisorA {
		t.Fatalf("branch filter = %d rows", res.TotalCount)
	}

	res = f.svc.List(visibility.Admin(f.admin), ListParams{
		Filters:  transport.Filters{Advisors: []uuid.UUID{f.advisorB}},
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].AssignedTo != f.advisorB {
		t.Fatalf("advisor filter = %d rows", res.TotalCount)
	}

	res = f.svc.List(visibility.Admin(f.admin), ListParams{
		Filters:  transport.Filters{Search: "FOLLOW"},
		PageSize: 10,
	})
	if res.TotalCount != 2 {
		t.Fatalf("search filter = %d rows, want 2", res.TotalCount)
	}

	res = f.svc.List(visibility.Admin(f.admin), ListParams{
		Filters:  transport.Filters{Status: string(domain.TaskCompleted)},
		PageSize: 10,
	})
	if res.TotalCount != 0 {
		t.Fatalf("status filter = %d rows, want 0", res.TotalCount)
	}
}

func TestListSortMissingDatesFirst(t *testing.T) {
	f := newFixture(t)
	later := testNow.AddDate(0, 0, 5)
	withDate, err := f.svc.Create(context.Background(), visibility.Admin(f.admin), transport.CreateTaskRequest{
		Description: "dated",
		AssignedTo:  &f.advisorA,
		Expected:    &later,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	undated := f.createTask(t, f.advisorA, nil)

	res := f.svc.List(visibility.Admin(f.admin), ListParams{
		Sort:     transport.SortExpected,
		PageSize: 10,
	})
	// Missing dates compare as epoch, so the undated task sorts first.
	if res.Items[0].ID != undated.ID || res.Items[1].ID != withDate.ID {
		t.Fatalf("expected-date sort order wrong: %+v", res.Items)
	}
}

func TestBulkCreateFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.BulkCreate(ctx, visibility.Advisor(f.advisorA), transport.BulkCreateRequest{
		Description: "campaign",
		Target:      transport.TargetAllAdvisors,
	}); err == nil {
		t.Fatalf("non-admin bulk create accepted")
	}

	ids, err := f.svc.BulkCreate(ctx, visibility.Admin(f.admin), transport.BulkCreateRequest{
		Description: "campaign",
		Target:      transport.TargetAllAdvisors,
	})
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("fan-out created %d tasks, want one per advisor", len(ids))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate task id in fan-out")
		}
		seen[id] = true
		if _, err := f.st.GetTask(id); err != nil {
			t.Fatalf("fan-out task %s not stored", id)
		}
	}
	if got := len(f.bus.named(events.TaskCreated{}.EventName())); got != 2 {
		t.Fatalf("published %d created events, want 2", got)
	}

	branchIDs, err := f.svc.BulkCreate(ctx, visibility.Admin(f.admin), transport.BulkCreateRequest{
		Description: "branch push",
		Target:      transport.TargetBranches,
		BranchIDs:   []uuid.UUID{f.branchA},
	})
	if err != nil {
		t.Fatalf("BulkCreate branches: %v", err)
	}
	if len(branchIDs) != 1 {
		t.Fatalf("branch fan-out created %d tasks, want 1", len(branchIDs))
	}
}

func TestReassignAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.advisorA, &f.memberID)

	if _, err := f.svc.Reassign(ctx, visibility.Advisor(f.advisorB), task.ID, f.advisorB); err == nil {
		t.Fatalf("foreign advisor reassigned someone else's task")
	}

	updated, err := f.svc.Reassign(ctx, visibility.Admin(f.admin), task.ID, f.advisorB)
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if updated.PrimaryContactPerson != f.advisorB {
		t.Fatalf("owner not changed")
	}

	trail, err := f.svc.Reassignments(visibility.Admin(f.admin), task.ID)
	if err != nil {
		t.Fatalf("Reassignments: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("audit trail has %d entries, want 1", len(trail))
	}
	rec := trail[0]
	if rec.FromAdvisorID != f.advisorA || rec.ToAdvisorID != f.advisorB || rec.PerformedBy != f.admin {
		t.Fatalf("audit record = %+v", rec)
	}
	if !rec.PerformedAt.Equal(testNow) {
		t.Fatalf("PerformedAt = %v, want injected clock", rec.PerformedAt)
	}

	if got := len(f.bus.named(events.TaskReassigned{}.EventName())); got != 1 {
		t.Fatalf("published %d reassigned events, want 1", got)
	}

	if _, err := f.svc.Reassign(ctx, visibility.Admin(f.admin), task.ID, f.advisorB); err == nil {
		t.Fatalf("no-op reassignment accepted")
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, f.advisorA, nil)

	if _, err := f.svc.UpdateStatus(ctx, visibility.Admin(f.admin), task.ID, "Bogus"); err == nil {
		t.Fatalf("invalid status accepted")
	}
	if _, err := f.svc.UpdateStatus(ctx, visibility.Advisor(f.advisorB), task.ID, string(domain.TaskCompleted)); err == nil {
		t.Fatalf("foreign advisor updated someone else's task")
	}

	updated, err := f.svc.UpdateStatus(ctx, visibility.Advisor(f.advisorA), task.ID, string(domain.TaskCompleted))
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.TaskCompleted {
		t.Fatalf("status = %s", updated.Status)
	}
}
