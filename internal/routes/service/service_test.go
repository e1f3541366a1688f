package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/routes/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/apperr"
	"finroots_crm_backend/platform/geo"
)

type memberMap map[uuid.UUID]domain.Member

func (m memberMap) GetMember(id uuid.UUID) (domain.Member, error) {
	member, ok := m[id]
	if !ok {
		return domain.Member{}, apperr.NotFound("not found")
	}
	return member, nil
}

type stubPlanner struct {
	plan     transport.Plan
	fallback bool
	got      []transport.Stop
}

func (s *stubPlanner) PlanRoute(_ context.Context, stops []transport.Stop) (transport.Plan, bool) {
	s.got = stops
	return s.plan, s.fallback
}

func ptr(v float64) *float64 { return &v }

func fixtureMembers(advisorID uuid.UUID) (memberMap, []uuid.UUID) {
	// Mumbai, Pune and Nashik, visited from Mumbai. Pune is closer to Mumbai
	// than Nashik is, so nearest-neighbour should visit Pune second.
	mumbai := domain.Member{
		ID: uuid.New(), Name: "Ravi", City: "Mumbai",
		Lat: ptr(19.076), Lng: ptr(72.8777),
		AssignedTo: []uuid.UUID{advisorID},
	}
	nashik := domain.Member{
		ID: uuid.New(), Name: "Anita", City: "Nashik",
		Lat: ptr(19.9975), Lng: ptr(73.7898),
		AssignedTo: []uuid.UUID{advisorID},
	}
	pune := domain.Member{
		ID: uuid.New(), Name: "Suresh", City: "Pune",
		Lat: ptr(18.5204), Lng: ptr(73.8567),
		AssignedTo: []uuid.UUID{advisorID},
	}

	members := memberMap{mumbai.ID: mumbai, nashik.ID: nashik, pune.ID: pune}
	return members, []uuid.UUID{mumbai.ID, nashik.ID, pune.ID}
}

func TestPlanFallbackOrdersByNearestNeighbour(t *testing.T) {
	advisorID := uuid.New()
	members, ids := fixtureMembers(advisorID)
	svc := New(members, &stubPlanner{fallback: true})

	resp, err := svc.Plan(context.Background(), visibility.Advisor(advisorID), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Fallback {
		t.Fatal("expected fallback")
	}
	if len(resp.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(resp.Stops))
	}
	if resp.Stops[0].City != "Mumbai" || resp.Stops[1].City != "Pune" || resp.Stops[2].City != "Nashik" {
		t.Fatalf("unexpected order: %s, %s, %s", resp.Stops[0].City, resp.Stops[1].City, resp.Stops[2].City)
	}
	if resp.TotalKm <= 0 {
		t.Fatalf("expected positive path length, got %v", resp.TotalKm)
	}
}

func TestPlanAppliesPlannerOrder(t *testing.T) {
	advisorID := uuid.New()
	members, ids := fixtureMembers(advisorID)

	planner := &stubPlanner{
		plan: transport.Plan{
			Summary:    "Head north first.",
			Landmarks:  []string{"Nashik Road"},
			OrderedIDs: []uuid.UUID{ids[1], ids[2], ids[0]},
		},
	}
	svc := New(members, planner)

	resp, err := svc.Plan(context.Background(), visibility.Advisor(advisorID), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Fallback {
		t.Fatal("expected planner order, got fallback")
	}
	if resp.Stops[0].MemberID != ids[1] || resp.Stops[1].MemberID != ids[2] || resp.Stops[2].MemberID != ids[0] {
		t.Fatalf("planner order not applied: %+v", resp.Stops)
	}
	if resp.Summary != "Head north first." {
		t.Fatalf("unexpected summary %q", resp.Summary)
	}
}

func TestPlanSkipsMembersWithoutCoordinates(t *testing.T) {
	advisorID := uuid.New()
	members, ids := fixtureMembers(advisorID)

	noCoords := domain.Member{ID: uuid.New(), Name: "Deepak", AssignedTo: []uuid.UUID{advisorID}}
	members[noCoords.ID] = noCoords

	svc := New(members, &stubPlanner{fallback: true})

	resp, err := svc.Plan(context.Background(), visibility.Advisor(advisorID), append(ids, noCoords.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(resp.Stops))
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != noCoords.ID {
		t.Fatalf("expected member without coordinates to be skipped, got %v", resp.Skipped)
	}
}

func TestPlanResolvesDigipinCoordinates(t *testing.T) {
	advisorID := uuid.New()

	code, err := geo.EncodeDigipin(19.076, 72.8777)
	if err != nil {
		t.Fatalf("encode digipin: %v", err)
	}

	m := domain.Member{ID: uuid.New(), Name: "Ravi", City: "Mumbai", Digipin: code, AssignedTo: []uuid.UUID{advisorID}}
	svc := New(memberMap{m.ID: m}, &stubPlanner{fallback: true})

	resp, err := svc.Plan(context.Background(), visibility.Advisor(advisorID), []uuid.UUID{m.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Stops) != 1 {
		t.Fatalf("expected digipin member to resolve, skipped=%v", resp.Skipped)
	}
	if geo.Haversine(resp.Stops[0].Lat, resp.Stops[0].Lng, 19.076, 72.8777) > 5 {
		t.Fatalf("decoded cell too far from encoded point: %+v", resp.Stops[0])
	}
}

func TestPlanRejectsForeignMembers(t *testing.T) {
	advisorID := uuid.New()
	other := domain.Member{ID: uuid.New(), Name: "Deepak", Lat: ptr(19.0), Lng: ptr(73.0), AssignedTo: []uuid.UUID{uuid.New()}}
	svc := New(memberMap{other.ID: other}, &stubPlanner{fallback: true})

	_, err := svc.Plan(context.Background(), visibility.Advisor(advisorID), []uuid.UUID{other.ID})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
