package leadsource

import (
	"testing"

	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

func TestRootCategoryWalksToRoot(t *testing.T) {
	rootID := uuid.New()
	midID := uuid.New()
	leafID := uuid.New()

	r := NewResolver([]domain.LeadSourceMaster{
		{ID: rootID, Name: "Referral"},
		{ID: midID, Name: "Client Referral", ParentID: &rootID},
		{ID: leafID, Name: "Family of Client", ParentID: &midID},
	})

	if got := r.RootCategory(&leafID); got != "Referral" {
		t.Fatalf("expected root category Referral, got %q", got)
	}
	if got := r.RootCategory(&rootID); got != "Referral" {
		t.Fatalf("expected root node to resolve to itself, got %q", got)
	}
}

func TestRootCategoryUnknownCases(t *testing.T) {
	knownID := uuid.New()
	missingID := uuid.New()
	r := NewResolver([]domain.LeadSourceMaster{{ID: knownID, Name: "Walk-in"}})

	if got := r.RootCategory(nil); got != Unknown {
		t.Fatalf("nil source id: expected %q, got %q", Unknown, got)
	}
	if got := r.RootCategory(&missingID); got != Unknown {
		t.Fatalf("unresolvable id: expected %q, got %q", Unknown, got)
	}
}

func TestRootCategoryDanglingParentStopsAtLastGoodNode(t *testing.T) {
	ghostID := uuid.New()
	nodeID := uuid.New()

	r := NewResolver([]domain.LeadSourceMaster{
		{ID: nodeID, Name: "Campaign", ParentID: &ghostID},
	})

	// A parent id that resolves to nothing ends the walk at the current node.
	if got := r.RootCategory(&nodeID); got != "Campaign" {
		t.Fatalf("expected Campaign, got %q", got)
	}
}

func TestRootCategoryTerminatesOnCycle(t *testing.T) {
	aID := uuid.New()
	bID := uuid.New()

	r := NewResolver([]domain.LeadSourceMaster{
		{ID: aID, Name: "A", ParentID: &bID},
		{ID: bID, Name: "B", ParentID: &aID},
	})

	if got := r.RootCategory(&aID); got != Unknown {
		t.Fatalf("cyclic chain: expected %q, got %q", Unknown, got)
	}

	selfID := uuid.New()
	r = NewResolver([]domain.LeadSourceMaster{
		{ID: selfID, Name: "Self", ParentID: &selfID},
	})
	if got := r.RootCategory(&selfID); got != Unknown {
		t.Fatalf("self-referencing chain: expected %q, got %q", Unknown, got)
	}
}
