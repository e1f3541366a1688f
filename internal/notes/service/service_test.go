package service

import (
	"context"
	"testing"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/internal/notes/transport"
	taskstransport "finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"

	"github.com/google/uuid"
)

type stubTasks struct {
	created []taskstransport.CreateTaskRequest
}

func (s *stubTasks) Create(_ context.Context, _ visibility.Scope, req taskstransport.CreateTaskRequest) (domain.Task, error) {
	s.created = append(s.created, req)
	return domain.Task{ID: uuid.New(), Description: req.Description}, nil
}

type stubAudio struct{}

func (stubAudio) PresignedPut(_ context.Context, key string) (string, error) {
	return "https://minio.local/put/" + key, nil
}

func (stubAudio) PresignedGet(_ context.Context, key string) (string, error) {
	return "https://minio.local/get/" + key, nil
}

type stubSummarizer struct {
	result   transport.Summary
	fallback bool
}

func (s *stubSummarizer) SummarizeTranscript(context.Context, string) (transport.Summary, bool) {
	return s.result, s.fallback
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

type fixture struct {
	st         *store.Store
	tasks      *stubTasks
	summarizer *stubSummarizer
	svc        *Service
	advisor    uuid.UUID
	other      uuid.UUID
	memberID   uuid.UUID
	leadID     uuid.UUID
	noteA      uuid.UUID
	noteB      uuid.UUID
	noteLead   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		st:         store.New(),
		tasks:      &stubTasks{},
		summarizer: &stubSummarizer{},
		advisor:    uuid.New(),
		other:      uuid.New(),
	}

	day := func(d int) time.Time {
		return time.Date(2025, 5, d, 10, 0, 0, 0, time.UTC)
	}

	f.memberID = uuid.New()
	f.noteA = uuid.New()
	f.noteB = uuid.New()
	f.st.PutMember(domain.Member{
		ID:         f.memberID,
		Name:       "Ravi Sharma",
		AssignedTo: []uuid.UUID{f.advisor},
		VoiceNotes: []domain.VoiceNote{
			{ID: f.noteA, Summary: "Discussed health top-up", TranscriptSnippet: "wants higher coverage", RecordedAt: day(1), ActionItems: []string{"send brochure", "schedule call"}},
			{ID: f.noteB, Summary: "Premium payment reminder", RecordedAt: day(20)},
		},
	})

	f.leadID = uuid.New()
	f.noteLead = uuid.New()
	f.st.PutLead(domain.Lead{
		ID:         f.leadID,
		Name:       "Meena Kumari",
		AssignedTo: f.advisor,
		VoiceNotes: []domain.VoiceNote{
			{ID: f.noteLead, Summary: "Interested in term plan", RecordedAt: day(10)},
		},
	})

	// Another advisor's member, out of scope.
	f.st.PutMember(domain.Member{
		ID:         uuid.New(),
		Name:       "Foreign",
		AssignedTo: []uuid.UUID{f.other},
		VoiceNotes: []domain.VoiceNote{{ID: uuid.New(), Summary: "hidden", RecordedAt: day(15)}},
	})

	f.svc = New(f.st, f.tasks, stubAudio{}, f.summarizer, nopBus{})
	return f
}

func TestListFlatRecentFirstScoped(t *testing.T) {
	f := newFixture(t)

	res := f.svc.List(visibility.Advisor(f.advisor), ListParams{PageSize: 10})
	if res.TotalCount != 3 {
		t.Fatalf("advisor sees %d notes, want 3", res.TotalCount)
	}
	want := []uuid.UUID{f.noteB, f.noteLead, f.noteA}
	for i, id := range want {
		if res.Items[i].NoteID != id {
			t.Fatalf("flat order[%d] = %s, want %s", i, res.Items[i].NoteID, id)
		}
	}

	admin := f.svc.List(visibility.Admin(uuid.New()), ListParams{PageSize: 10})
	if admin.TotalCount != 4 {
		t.Fatalf("admin sees %d notes, want 4", admin.TotalCount)
	}
}

func TestListAdvancedFilters(t *testing.T) {
	f := newFixture(t)
	scope := visibility.Advisor(f.advisor)

	res := f.svc.List(scope, ListParams{
		Filters:  transport.Filters{Advanced: true, Keyword: "COVERAGE"},
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].NoteID != f.noteA {
		t.Fatalf("keyword filter = %d rows", res.TotalCount)
	}

	// End date is inclusive of the whole day.
	end := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	res = f.svc.List(scope, ListParams{
		Filters:  transport.Filters{Advanced: true, DateEnd: &end},
		PageSize: 10,
	})
	if res.TotalCount != 2 {
		t.Fatalf("date filter = %d rows, want 2 (noteA and lead note)", res.TotalCount)
	}
}

func TestListMatchedOverridesFilters(t *testing.T) {
	f := newFixture(t)
	scope := visibility.Advisor(f.advisor)

	matched := []uuid.UUID{f.noteB}
	res := f.svc.List(scope, ListParams{
		Filters:  transport.Filters{Advanced: true, Keyword: "coverage"},
		Matched:  &matched,
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].NoteID != f.noteB {
		t.Fatalf("match set should override filters, got %d rows", res.TotalCount)
	}

	empty := []uuid.UUID{}
	res = f.svc.List(scope, ListParams{Matched: &empty, PageSize: 10})
	if res.TotalCount != 0 {
		t.Fatalf("empty match set = %d rows, want 0", res.TotalCount)
	}
}

func TestListGroupedPaginatesGroups(t *testing.T) {
	f := newFixture(t)

	res := f.svc.ListGrouped(visibility.Advisor(f.advisor), ListParams{PageSize: 1})
	if res.TotalCount != 2 {
		t.Fatalf("grouped TotalCount = %d, want 2 clients", res.TotalCount)
	}
	if len(res.Items) != 1 {
		t.Fatalf("page size over groups not applied")
	}
	// Most recent note belongs to the member, so the member group leads.
	g := res.Items[0]
	if g.OwnerID != f.memberID || len(g.Notes) != 2 {
		t.Fatalf("first group = %s with %d notes", g.OwnerID, len(g.Notes))
	}
}

func TestAdminAdvisorFilter(t *testing.T) {
	f := newFixture(t)

	res := f.svc.List(visibility.Admin(uuid.New()), ListParams{
		Filters:  transport.Filters{AdvisorID: &f.advisor},
		PageSize: 10,
	})
	if res.TotalCount != 3 {
		t.Fatalf("admin advisor filter = %d rows, want 3", res.TotalCount)
	}

	// The filter is admin only; an advisor scope ignores it.
	res = f.svc.List(visibility.Advisor(f.advisor), ListParams{
		Filters:  transport.Filters{AdvisorID: &f.other},
		PageSize: 10,
	})
	if res.TotalCount != 3 {
		t.Fatalf("advisor scope should ignore advisor filter, got %d", res.TotalCount)
	}
}

func TestConvertActionItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := visibility.Advisor(f.advisor)

	taskID, err := f.svc.ConvertActionItem(ctx, scope, transport.OwnerMember, f.memberID, f.noteA, "send brochure")
	if err != nil {
		t.Fatalf("ConvertActionItem: %v", err)
	}
	if taskID == uuid.Nil {
		t.Fatalf("no task id returned")
	}
	if len(f.tasks.created) != 1 {
		t.Fatalf("created %d tasks, want 1", len(f.tasks.created))
	}
	req := f.tasks.created[0]
	if req.Description != "send brochure" || req.MemberID == nil || *req.MemberID != f.memberID {
		t.Fatalf("task request = %+v", req)
	}

	m, err := f.st.GetMember(f.memberID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	items := m.VoiceNotes[0].ActionItems
	if len(items) != 1 || items[0] != "schedule call" {
		t.Fatalf("action items after convert = %v", items)
	}
}

func TestConvertActionItemBadReferenceLeavesNoTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope := visibility.Advisor(f.advisor)

	if _, err := f.svc.ConvertActionItem(ctx, scope, transport.OwnerMember, f.memberID, uuid.New(), "send brochure"); err == nil {
		t.Fatalf("nonexistent note converted")
	}
	if _, err := f.svc.ConvertActionItem(ctx, scope, transport.OwnerMember, f.memberID, f.noteA, "no such item"); err == nil {
		t.Fatalf("nonexistent item converted")
	}
	if len(f.tasks.created) != 0 {
		t.Fatalf("failed conversions left %d tasks behind", len(f.tasks.created))
	}
}

func TestDismissActionItemIdempotent(t *testing.T) {
	f := newFixture(t)
	scope := visibility.Advisor(f.advisor)

	if err := f.svc.DismissActionItem(scope, transport.OwnerMember, f.memberID, f.noteA, "schedule call"); err != nil {
		t.Fatalf("DismissActionItem: %v", err)
	}
	// Dismissing the same item again is a no-op, not an error.
	if err := f.svc.DismissActionItem(scope, transport.OwnerMember, f.memberID, f.noteA, "schedule call"); err != nil {
		t.Fatalf("second dismiss: %v", err)
	}

	if err := f.svc.DismissActionItem(visibility.Advisor(f.other), transport.OwnerMember, f.memberID, f.noteA, "x"); err == nil {
		t.Fatalf("foreign advisor dismissed a note")
	}
}

func TestSummarizePersistsResult(t *testing.T) {
	f := newFixture(t)
	f.summarizer.result = transport.Summary{
		Summary:     "Wants higher health coverage before renewal",
		Tags:        []string{"health", "renewal"},
		ActionItems: []string{"send top-up quote"},
	}

	res, err := f.svc.Summarize(context.Background(), visibility.Advisor(f.advisor), transport.OwnerMember, f.memberID, f.noteA, "long transcript")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Fallback {
		t.Fatalf("unexpected fallback")
	}

	m, _ := f.st.GetMember(f.memberID)
	n := m.VoiceNotes[0]
	if n.Summary != f.summarizer.result.Summary {
		t.Fatalf("summary not written, got %q", n.Summary)
	}
	if len(n.Tags) != 2 || len(n.ActionItems) != 1 {
		t.Fatalf("tags/items not written: %v %v", n.Tags, n.ActionItems)
	}
}

func TestSummarizeFallbackNotPersisted(t *testing.T) {
	f := newFixture(t)
	f.summarizer.result = transport.Summary{Summary: "first line"}
	f.summarizer.fallback = true

	res, err := f.svc.Summarize(context.Background(), visibility.Advisor(f.advisor), transport.OwnerMember, f.memberID, f.noteA, "first line\nrest")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !res.Fallback || res.Result.Summary != "first line" {
		t.Fatalf("fallback result = %+v", res)
	}

	m, _ := f.st.GetMember(f.memberID)
	if m.VoiceNotes[0].Summary != "Discussed health top-up" {
		t.Fatalf("degraded summary overwrote the note: %q", m.VoiceNotes[0].Summary)
	}

	if _, err := f.svc.Summarize(context.Background(), visibility.Advisor(f.other), transport.OwnerMember, f.memberID, f.noteA, "x"); err == nil {
		t.Fatalf("foreign advisor summarized a note")
	}
}

func TestAudioURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.UploadURL(ctx, visibility.Advisor(f.advisor), transport.UploadURLRequest{
		OwnerType: transport.OwnerMember,
		OwnerID:   f.memberID,
		NoteID:    f.noteA,
	})
	if err != nil {
		t.Fatalf("UploadURL: %v", err)
	}
	if res.Key == "" || res.URL == "" {
		t.Fatalf("empty presign result: %+v", res)
	}

	m, _ := f.st.GetMember(f.memberID)
	if m.VoiceNotes[0].AudioKey != res.Key {
		t.Fatalf("audio key not recorded on note")
	}

	dl, err := f.svc.DownloadURL(ctx, res.Key)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if dl.URL == "" {
		t.Fatalf("empty download url")
	}
}
