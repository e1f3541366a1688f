// Package service implements the voice-note aggregation pipeline and the
// action-item lifecycle.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/paging"
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/internal/notes/transport"
	taskstransport "finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Collections is the read/write surface the notes module needs from the store.
type Collections interface {
	ListMembers() []domain.Member
	ListLeads() []domain.Lead
	GetMember(id uuid.UUID) (domain.Member, error)
	GetLead(id uuid.UUID) (domain.Lead, error)
	RemoveNoteActionItem(owner store.NoteOwner, noteID uuid.UUID, item string) error
	SetNoteAudioKey(owner store.NoteOwner, noteID uuid.UUID, key string) error
	SetNoteSummary(owner store.NoteOwner, noteID uuid.UUID, summary string, tags, actionItems []string) error
}

// TaskCreator is the slice of the tasks module used by action-item
// conversion.
type TaskCreator interface {
	Create(ctx context.Context, scope visibility.Scope, req taskstransport.CreateTaskRequest) (domain.Task, error)
}

// AudioStore issues presigned URLs for voice-note recordings.
type AudioStore interface {
	PresignedPut(ctx context.Context, key string) (string, error)
	PresignedGet(ctx context.Context, key string) (string, error)
}

// Summarizer condenses a raw transcript into a structured summary. A
// fallback result carries the first transcript line with the flag raised,
// never an error.
type Summarizer interface {
	SummarizeTranscript(ctx context.Context, transcript string) (transport.Summary, bool)
}

// Service owns note listing and the action-item lifecycle.
type Service struct {
	data       Collections
	tasks      TaskCreator
	audio      AudioStore
	summarizer Summarizer
	bus        events.Bus
}

func New(data Collections, tasks TaskCreator, audio AudioStore, summarizer Summarizer, bus events.Bus) *Service {
	return &Service{data: data, tasks: tasks, audio: audio, summarizer: summarizer, bus: bus}
}

// ListParams bundles the user-controlled knobs of a note listing request.
// When Matched is set the advanced filters are ignored: a listing is driven
// either by an AI match or by filters, never both.
type ListParams struct {
	Filters  transport.Filters
	Matched  *[]uuid.UUID
	Page     int
	PageSize int
}

// List returns the flat listing, always most-recent-first.
func (s *Service) List(scope visibility.Scope, params ListParams) transport.ListResponse {
	rows := s.collect(scope, params)
	return transport.ListResponse{Page: paging.Slice(rows, params.Page, params.PageSize)}
}

// ListGrouped returns the listing grouped by client, paginated over groups.
func (s *Service) ListGrouped(scope visibility.Scope, params ListParams) transport.GroupedResponse {
	rows := s.collect(scope, params)

	index := map[uuid.UUID]int{}
	var groups []transport.Group
	for _, r := range rows {
		i, ok := index[r.OwnerID]
		if !ok {
			i = len(groups)
			index[r.OwnerID] = i
			groups = append(groups, transport.Group{
				OwnerType:  r.OwnerType,
				OwnerID:    r.OwnerID,
				ClientName: r.ClientName,
			})
		}
		groups[i].Notes = append(groups[i].Notes, r)
	}

	return transport.GroupedResponse{Page: paging.Slice(groups, params.Page, params.PageSize)}
}

// ScopedRows exposes the scoped, unfiltered note set for the AI search
// endpoint.
func (s *Service) ScopedRows(scope visibility.Scope) []transport.Row {
	return s.collect(scope, ListParams{})
}

func (s *Service) collect(scope visibility.Scope, params ListParams) []transport.Row {
	var rows []transport.Row
	for _, m := range scope.Members(s.data.ListMembers()) {
		for _, n := range m.VoiceNotes {
			rows = append(rows, toRow(n, transport.OwnerMember, m.ID, m.Name))
		}
	}
	for _, l := range scope.Leads(s.data.ListLeads()) {
		for _, n := range l.VoiceNotes {
			rows = append(rows, toRow(n, transport.OwnerLead, l.ID, l.Name))
		}
	}

	if scope.IsAdmin() && params.Filters.AdvisorID != nil {
		rows = s.filterByAdvisor(rows, *params.Filters.AdvisorID)
	}

	if params.Matched != nil {
		rows = intersect(rows, *params.Matched)
	} else if params.Filters.Advanced {
		rows = applyFilters(rows, params.Filters)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RecordedAt.After(rows[j].RecordedAt)
	})
	return rows
}

func toRow(n domain.VoiceNote, ownerType transport.OwnerType, ownerID uuid.UUID, clientName string) transport.Row {
	return transport.Row{
		NoteID:            n.ID,
		OwnerType:         ownerType,
		OwnerID:           ownerID,
		ClientName:        clientName,
		Summary:           n.Summary,
		TranscriptSnippet: n.TranscriptSnippet,
		RecordedAt:        n.RecordedAt,
		Tags:              n.Tags,
		Status:            n.Status,
		ActionItems:       n.ActionItems,
		HasAudio:          n.AudioKey != "",
		AudioKey:          n.AudioKey,
	}
}

func (s *Service) filterByAdvisor(rows []transport.Row, advisorID uuid.UUID) []transport.Row {
	out := rows[:0]
	for _, r := range rows {
		switch r.OwnerType {
		case transport.OwnerMember:
			if m, err := s.data.GetMember(r.OwnerID); err == nil && m.AssignedToAdvisor(advisorID) {
				out = append(out, r)
			}
		case transport.OwnerLead:
			if l, err := s.data.GetLead(r.OwnerID); err == nil && l.AssignedTo == advisorID {
				out = append(out, r)
			}
		}
	}
	return out
}

func intersect(rows []transport.Row, matched []uuid.UUID) []transport.Row {
	set := make(map[uuid.UUID]bool, len(matched))
	for _, id := range matched {
		set[id] = true
	}
	out := rows[:0]
	for _, r := range rows {
		if set[r.NoteID] {
			out = append(out, r)
		}
	}
	return out
}

func applyFilters(rows []transport.Row, f transport.Filters) []transport.Row {
	keyword := strings.ToLower(f.Keyword)
	out := rows[:0]
	for _, r := range rows {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(r.Summary), keyword) &&
			!strings.Contains(strings.ToLower(r.TranscriptSnippet), keyword) {
			continue
		}
		if f.DateStart != nil && r.RecordedAt.Before(*f.DateStart) {
			continue
		}
		if f.DateEnd != nil && r.RecordedAt.After(endOfDay(*f.DateEnd)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// endOfDay makes the upper bound of a date filter inclusive of the whole day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// ConvertActionItem turns one action item into a task linked to the note's
// client, then removes the item from the note. The note and item are checked
// up front so a bad reference aborts before any task is created.
func (s *Service) ConvertActionItem(ctx context.Context, scope visibility.Scope, ownerType transport.OwnerType, ownerID, noteID uuid.UUID, item string) (uuid.UUID, error) {
	owner, err := s.checkOwner(scope, ownerType, ownerID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.findActionItem(ownerType, ownerID, noteID, item); err != nil {
		return uuid.Nil, err
	}

	req := taskstransport.CreateTaskRequest{
		Description: item,
		AssignedTo:  &scope.UserID,
	}
	if ownerType == transport.OwnerMember {
		req.MemberID = &ownerID
	} else {
		req.LeadID = &ownerID
	}

	task, err := s.tasks.Create(ctx, scope, req)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.data.RemoveNoteActionItem(owner, noteID, item); err != nil {
		return uuid.Nil, apperr.NotFound("note not found")
	}

	s.bus.Publish(ctx, events.ActionItemConverted{
		BaseEvent: events.NewBaseEvent(),
		NoteID:    noteID,
		TaskID:    task.ID,
		MemberID:  req.MemberID,
		LeadID:    req.LeadID,
	})
	return task.ID, nil
}

// Summarize condenses a transcript and writes the result onto the note.
// Degraded summaries are returned to the caller but not persisted, so a
// model outage never overwrites a good summary with a truncated one.
func (s *Service) Summarize(ctx context.Context, scope visibility.Scope, ownerType transport.OwnerType, ownerID, noteID uuid.UUID, transcript string) (transport.SummarizeResponse, error) {
	owner, err := s.checkOwner(scope, ownerType, ownerID)
	if err != nil {
		return transport.SummarizeResponse{}, err
	}

	result, fallback := s.summarizer.SummarizeTranscript(ctx, transcript)
	if !fallback {
		if err := s.data.SetNoteSummary(owner, noteID, result.Summary, result.Tags, result.ActionItems); err != nil {
			return transport.SummarizeResponse{}, apperr.NotFound("note not found")
		}
	}
	return transport.SummarizeResponse{Result: result, Fallback: fallback}, nil
}

// DismissActionItem removes one action item without creating a task.
// Dismissing an item that is already gone is a no-op.
func (s *Service) DismissActionItem(scope visibility.Scope, ownerType transport.OwnerType, ownerID, noteID uuid.UUID, item string) error {
	owner, err := s.checkOwner(scope, ownerType, ownerID)
	if err != nil {
		return err
	}
	if err := s.data.RemoveNoteActionItem(owner, noteID, item); err != nil {
		return apperr.NotFound("note not found")
	}
	return nil
}

// UploadURL issues a presigned PUT for a note recording and records the
// object key on the note.
func (s *Service) UploadURL(ctx context.Context, scope visibility.Scope, req transport.UploadURLRequest) (transport.UploadURLResponse, error) {
	owner, err := s.checkOwner(scope, req.OwnerType, req.OwnerID)
	if err != nil {
		return transport.UploadURLResponse{}, err
	}

	key := fmt.Sprintf("%s/%s/%s.webm", req.OwnerType, req.OwnerID, req.NoteID)
	url, err := s.audio.PresignedPut(ctx, key)
	if err != nil {
		return transport.UploadURLResponse{}, apperr.Wrap(apperr.KindInternal, "presign audio upload", err)
	}
	if err := s.data.SetNoteAudioKey(owner, req.NoteID, key); err != nil {
		return transport.UploadURLResponse{}, apperr.NotFound("note not found")
	}
	return transport.UploadURLResponse{URL: url, Key: key}, nil
}

// DownloadURL issues a presigned GET for a stored recording.
func (s *Service) DownloadURL(ctx context.Context, key string) (transport.DownloadURLResponse, error) {
	url, err := s.audio.PresignedGet(ctx, key)
	if err != nil {
		return transport.DownloadURLResponse{}, apperr.Wrap(apperr.KindInternal, "presign audio download", err)
	}
	return transport.DownloadURLResponse{URL: url}, nil
}

// findActionItem confirms the note exists and still carries the item.
func (s *Service) findActionItem(ownerType transport.OwnerType, ownerID, noteID uuid.UUID, item string) error {
	var notes []domain.VoiceNote
	switch ownerType {
	case transport.OwnerMember:
		m, err := s.data.GetMember(ownerID)
		if err != nil {
			return apperr.NotFound("member not found")
		}
		notes = m.VoiceNotes
	case transport.OwnerLead:
		l, err := s.data.GetLead(ownerID)
		if err != nil {
			return apperr.NotFound("lead not found")
		}
		notes = l.VoiceNotes
	}
	for _, n := range notes {
		if n.ID != noteID {
			continue
		}
		for _, existing := range n.ActionItems {
			if existing == item {
				return nil
			}
		}
		return apperr.NotFound("action item not found")
	}
	return apperr.NotFound("note not found")
}

func (s *Service) checkOwner(scope visibility.Scope, ownerType transport.OwnerType, ownerID uuid.UUID) (store.NoteOwner, error) {
	switch ownerType {
	case transport.OwnerMember:
		m, err := s.data.GetMember(ownerID)
		if err != nil {
			return store.NoteOwner{}, apperr.NotFound("member not found")
		}
		if !scope.CanSeeMember(m) {
			return store.NoteOwner{}, apperr.Forbidden("member belongs to another advisor")
		}
		return store.NoteOwner{MemberID: &ownerID}, nil
	case transport.OwnerLead:
		l, err := s.data.GetLead(ownerID)
		if err != nil {
			return store.NoteOwner{}, apperr.NotFound("lead not found")
		}
		if !scope.CanSeeLead(l) {
			return store.NoteOwner{}, apperr.Forbidden("lead belongs to another advisor")
		}
		return store.NoteOwner{LeadID: &ownerID}, nil
	default:
		return store.NoteOwner{}, apperr.Validation("owner scope must be member or lead")
	}
}
