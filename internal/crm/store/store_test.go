package store

import (
	"testing"
	"time"

	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

func seededStore(t *testing.T) (*Store, domain.Member) {
	t.Helper()

	st := New()
	m := domain.Member{
		ID:         uuid.New(),
		Name:       "Ravi Sharma",
		AssignedTo: []uuid.UUID{uuid.New()},
		Policies: []domain.Policy{{
			ID:          uuid.New(),
			PolicyType:  "Health",
			Premium:     12000,
			RenewalDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
			HolderType:  domain.HolderIndividual,
		}},
		VoiceNotes: []domain.VoiceNote{{
			ID:          uuid.New(),
			Summary:     "Discussed top-up",
			Tags:        []string{"health"},
			ActionItems: []string{"call back", "send quote", "book visit"},
		}},
	}
	st.PutMember(m)
	return st, m
}

func TestListMembersSnapshotDetachedFromMutations(t *testing.T) {
	st, m := seededStore(t)
	noteID := m.VoiceNotes[0].ID

	snapshot := st.ListMembers()
	before := append([]string(nil), snapshot[0].VoiceNotes[0].ActionItems...)

	owner := NoteOwner{MemberID: &m.ID}
	if err := st.RemoveNoteActionItem(owner, noteID, "call back"); err != nil {
		t.Fatalf("RemoveNoteActionItem: %v", err)
	}
	if err := st.SetNoteSummary(owner, noteID, "rewritten", []string{"x"}, nil); err != nil {
		t.Fatalf("SetNoteSummary: %v", err)
	}
	if err := st.SetPolicyPayment(m.ID, m.Policies[0].ID, domain.PaymentDetails{TransactionID: "TXN-1"}); err != nil {
		t.Fatalf("SetPolicyPayment: %v", err)
	}

	got := snapshot[0].VoiceNotes[0]
	if len(got.ActionItems) != len(before) {
		t.Fatalf("snapshot action items changed: %v, want %v", got.ActionItems, before)
	}
	for i := range before {
		if got.ActionItems[i] != before[i] {
			t.Fatalf("snapshot action items changed: %v, want %v", got.ActionItems, before)
		}
	}
	if got.Summary != "Discussed top-up" {
		t.Fatalf("snapshot summary changed: %q", got.Summary)
	}
	if snapshot[0].Policies[0].Payment != nil {
		t.Fatalf("snapshot policy gained a payment")
	}

	live, err := st.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if len(live.VoiceNotes[0].ActionItems) != 2 || live.VoiceNotes[0].Summary != "rewritten" {
		t.Fatalf("mutation lost: %+v", live.VoiceNotes[0])
	}
	if live.Policies[0].Payment == nil {
		t.Fatalf("payment mutation lost")
	}
}

func TestGetMemberCopyDoesNotWriteBack(t *testing.T) {
	st, m := seededStore(t)

	got, err := st.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	got.VoiceNotes[0].ActionItems[0] = "tampered"
	got.Policies[0].Premium = 1

	again, err := st.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if again.VoiceNotes[0].ActionItems[0] != "call back" || again.Policies[0].Premium != 12000 {
		t.Fatalf("caller mutation leaked into the store: %+v", again)
	}
}
