// Package store holds the loaded CRM collections behind a mutex. It keeps the
// repository shape (typed errors, params structs, narrow accessors) so the
// pipeline services stay decoupled from how collections are held; the data
// itself is in memory, loaded once from a seed fixture, and mutated only
// through the operations below.
package store

import (
	"errors"
	"sync"

	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store owns all CRM collections. Read accessors return copies; the collections
// preserve load order, which the pipelines rely on for stable tie-breaking.
type Store struct {
	mu            sync.RWMutex
	members       []domain.Member
	memberIndex   map[uuid.UUID]int
	leads         []domain.Lead
	leadIndex     map[uuid.UUID]int
	tasks         []domain.Task
	taskIndex     map[uuid.UUID]int
	users         []domain.User
	userIndex     map[uuid.UUID]int
	branches      []domain.Branch
	branchIndex   map[uuid.UUID]int
	leadSources   []domain.LeadSourceMaster
	reassignments []domain.TaskReassignment
}

// New creates an empty store.
func New() *Store {
	return &Store{
		memberIndex: make(map[uuid.UUID]int),
		leadIndex:   make(map[uuid.UUID]int),
		taskIndex:   make(map[uuid.UUID]int),
		userIndex:   make(map[uuid.UUID]int),
		branchIndex: make(map[uuid.UUID]int),
	}
}

// ----------------------------------------------------------------------------
// Members
// ----------------------------------------------------------------------------

// ListMembers returns a copy of the member collection in load order. Nested
// slices are copied too, so a returned snapshot never changes under a
// concurrent mutation.
func (s *Store) ListMembers() []domain.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Member, len(s.members))
	for i, m := range s.members {
		out[i] = copyMember(m)
	}
	return out
}

// GetMember returns the member with the given id.
func (s *Store) GetMember(id uuid.UUID) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.memberIndex[id]
	if !ok {
		return domain.Member{}, ErrNotFound
	}
	return copyMember(s.members[i]), nil
}

// PutMember inserts or replaces a member.
func (s *Store) PutMember(m domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.memberIndex[m.ID]; ok {
		s.members[i] = m
		return
	}
	s.memberIndex[m.ID] = len(s.members)
	s.members = append(s.members, m)
}

// ----------------------------------------------------------------------------
// Leads
// ----------------------------------------------------------------------------

// ListLeads returns a copy of the lead collection in load order.
func (s *Store) ListLeads() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lead, len(s.leads))
	for i, l := range s.leads {
		out[i] = copyLead(l)
	}
	return out
}

// GetLead returns the lead with the given id.
func (s *Store) GetLead(id uuid.UUID) (domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.leadIndex[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return copyLead(s.leads[i]), nil
}

// PutLead inserts or replaces a lead.
func (s *Store) PutLead(l domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.leadIndex[l.ID]; ok {
		s.leads[i] = l
		return
	}
	s.leadIndex[l.ID] = len(s.leads)
	s.leads = append(s.leads, l)
}

// ----------------------------------------------------------------------------
// Tasks
// ----------------------------------------------------------------------------

// ListTasks returns a copy of the task collection in creation order.
func (s *Store) ListTasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = copyTask(t)
	}
	return out
}

// GetTask returns the task with the given id.
func (s *Store) GetTask(id uuid.UUID) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.taskIndex[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return copyTask(s.tasks[i]), nil
}

// CreateTask appends a new task.
func (s *Store) CreateTask(t domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskIndex[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, t)
}

// UpdateTask replaces an existing task.
func (s *Store) UpdateTask(t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.taskIndex[t.ID]
	if !ok {
		return ErrNotFound
	}
	s.tasks[i] = t
	return nil
}

// AppendReassignment records a task ownership change for audit.
func (s *Store) AppendReassignment(r domain.TaskReassignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reassignments = append(s.reassignments, r)
}

// ListReassignments returns the audit trail for a task, oldest first.
func (s *Store) ListReassignments(taskID uuid.UUID) []domain.TaskReassignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TaskReassignment
	for _, r := range s.reassignments {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Users, branches, lead sources
// ----------------------------------------------------------------------------

// ListUsers returns a copy of the user collection.
func (s *Store) ListUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.users...)
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.userIndex[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return s.users[i], nil
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.userIndex[u.ID]; ok {
		s.users[i] = u
		return
	}
	s.userIndex[u.ID] = len(s.users)
	s.users = append(s.users, u)
}

// ListBranches returns a copy of the branch collection.
func (s *Store) ListBranches() []domain.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Branch(nil), s.branches...)
}

// GetBranch returns the branch with the given id.
func (s *Store) GetBranch(id uuid.UUID) (domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.branchIndex[id]
	if !ok {
		return domain.Branch{}, ErrNotFound
	}
	return s.branches[i], nil
}

// PutBranch inserts or replaces a branch.
func (s *Store) PutBranch(b domain.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.branchIndex[b.ID]; ok {
		s.branches[i] = b
		return
	}
	s.branchIndex[b.ID] = len(s.branches)
	s.branches = append(s.branches, b)
}

// ListLeadSources returns a copy of the lead-source master list.
func (s *Store) ListLeadSources() []domain.LeadSourceMaster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LeadSourceMaster(nil), s.leadSources...)
}

// SetLeadSources replaces the lead-source master list.
func (s *Store) SetLeadSources(nodes []domain.LeadSourceMaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leadSources = append([]domain.LeadSourceMaster(nil), nodes...)
}

// SetPolicyPayment records extracted payment details against one policy.
func (s *Store) SetPolicyPayment(memberID, policyID uuid.UUID, payment domain.PaymentDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.members {
		if s.members[i].ID != memberID {
			continue
		}
		for j := range s.members[i].Policies {
			if s.members[i].Policies[j].ID == policyID {
				s.members[i].Policies[j].Payment = &payment
				return nil
			}
		}
		return ErrNotFound
	}
	return ErrNotFound
}

// ----------------------------------------------------------------------------
// Voice notes
// ----------------------------------------------------------------------------

// NoteOwner addresses a voice note's parent entity.
type NoteOwner struct {
	MemberID *uuid.UUID
	LeadID   *uuid.UUID
}

// RemoveNoteActionItem deletes one action item from a note. Removing an item
// that is already absent is a no-op, so dismissal stays idempotent.
func (s *Store) RemoveNoteActionItem(owner NoteOwner, noteID uuid.UUID, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.notesForOwnerLocked(owner)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].ID != noteID {
			continue
		}
		notes[i].ActionItems = removeItem(notes[i].ActionItems, item)
		return nil
	}
	return ErrNotFound
}

// SetNoteAudioKey attaches an uploaded audio object key to a note.
func (s *Store) SetNoteAudioKey(owner NoteOwner, noteID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.notesForOwnerLocked(owner)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].ID == noteID {
			notes[i].AudioKey = key
			return nil
		}
	}
	return ErrNotFound
}

// SetNoteSummary replaces a note's generated summary, tags and action items.
func (s *Store) SetNoteSummary(owner NoteOwner, noteID uuid.UUID, summary string, tags, actionItems []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.notesForOwnerLocked(owner)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].ID == noteID {
			notes[i].Summary = summary
			notes[i].Tags = tags
			notes[i].ActionItems = actionItems
			return nil
		}
	}
	return ErrNotFound
}

// AppendNote adds a voice note to a member or lead.
func (s *Store) AppendNote(owner NoteOwner, note domain.VoiceNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case owner.MemberID != nil:
		i, ok := s.memberIndex[*owner.MemberID]
		if !ok {
			return ErrNotFound
		}
		s.members[i].VoiceNotes = append(s.members[i].VoiceNotes, note)
	case owner.LeadID != nil:
		i, ok := s.leadIndex[*owner.LeadID]
		if !ok {
			return ErrNotFound
		}
		s.leads[i].VoiceNotes = append(s.leads[i].VoiceNotes, note)
	default:
		return ErrNotFound
	}
	return nil
}

// notesForOwnerLocked returns the live note slice for in-place mutation.
// Caller must hold the write lock.
func (s *Store) notesForOwnerLocked(owner NoteOwner) ([]domain.VoiceNote, error) {
	switch {
	case owner.MemberID != nil:
		i, ok := s.memberIndex[*owner.MemberID]
		if !ok {
			return nil, ErrNotFound
		}
		return s.members[i].VoiceNotes, nil
	case owner.LeadID != nil:
		i, ok := s.leadIndex[*owner.LeadID]
		if !ok {
			return nil, ErrNotFound
		}
		return s.leads[i].VoiceNotes, nil
	default:
		return nil, ErrNotFound
	}
}

// copyMember clones the nested slices and pointers a member carries, so
// snapshots handed to callers stay detached from the live collection.
func copyMember(m domain.Member) domain.Member {
	m.AssignedTo = append([]uuid.UUID(nil), m.AssignedTo...)
	m.Policies = copyPolicies(m.Policies)
	m.VoiceNotes = copyNotes(m.VoiceNotes)
	return m
}

func copyLead(l domain.Lead) domain.Lead {
	l.VoiceNotes = copyNotes(l.VoiceNotes)
	return l
}

func copyTask(t domain.Task) domain.Task {
	t.AlternateContactPersons = append([]uuid.UUID(nil), t.AlternateContactPersons...)
	return t
}

func copyPolicies(policies []domain.Policy) []domain.Policy {
	out := append([]domain.Policy(nil), policies...)
	for i := range out {
		if out[i].Commission != nil {
			c := *out[i].Commission
			out[i].Commission = &c
		}
		if out[i].Payment != nil {
			p := *out[i].Payment
			out[i].Payment = &p
		}
	}
	return out
}

func copyNotes(notes []domain.VoiceNote) []domain.VoiceNote {
	out := append([]domain.VoiceNote(nil), notes...)
	for i := range out {
		out[i].Tags = append([]string(nil), out[i].Tags...)
		out[i].ActionItems = append([]string(nil), out[i].ActionItems...)
	}
	return out
}

// removeItem returns a fresh slice; compacting in place would overwrite the
// backing array while earlier snapshots may still reference it.
func removeItem(items []string, target string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}
