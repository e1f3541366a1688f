package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/analytics/transport"
	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/visibility"
)

var testNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fixture struct {
	advisorID uuid.UUID
	members   []domain.Member
	sources   []domain.LeadSourceMaster
}

func (f fixture) ListMembers() []domain.Member               { return f.members }
func (f fixture) ListLeadSources() []domain.LeadSourceMaster { return f.sources }

type stubForecaster struct {
	points   []transport.GrowthPoint
	fallback bool
}

func (s stubForecaster) ForecastGrowth(_ context.Context, _ []transport.GrowthPoint) ([]transport.GrowthPoint, bool) {
	return s.points, s.fallback
}

func seedFixture() fixture {
	advisorID := uuid.New()
	rootID := uuid.New()
	childID := uuid.New()
	spocID := uuid.New()

	sources := []domain.LeadSourceMaster{
		{ID: rootID, Name: "Referral"},
		{ID: childID, Name: "Family Referral", ParentID: &rootID},
	}

	members := []domain.Member{
		{
			ID:         spocID,
			Name:       "Ravi Kumar",
			State:      "Maharashtra",
			Active:     true,
			AssignedTo: []uuid.UUID{advisorID},
			IsSPOC:     true,
			LeadSource: domain.LeadSourceRef{SourceID: &childID},
			Policies: []domain.Policy{
				{ID: uuid.New(), PolicyType: "Health", Premium: 1000, RenewalDate: time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC), HolderType: domain.HolderIndividual},
				{ID: uuid.New(), PolicyType: "Term", Premium: 2000, RenewalDate: time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC), HolderType: domain.HolderFamily},
			},
		},
		{
			ID:         uuid.New(),
			Name:       "Anita Kumar",
			State:      "Maharashtra",
			Active:     true,
			AssignedTo: []uuid.UUID{advisorID},
			SPOCID:     &spocID,
			Policies: []domain.Policy{
				{ID: uuid.New(), PolicyType: "Term", Premium: 5000, RenewalDate: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), HolderType: domain.HolderFamily},
				{ID: uuid.New(), PolicyType: "Motor", Premium: 3000, RenewalDate: time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), HolderType: domain.HolderIndividual},
			},
		},
		{
			ID:         uuid.New(),
			Name:       "Suresh Patil",
			Active:     true,
			AssignedTo: []uuid.UUID{advisorID},
			LeadSource: domain.LeadSourceRef{SourceID: &rootID},
		},
	}

	return fixture{advisorID: advisorID, members: members, sources: sources}
}

func TestOverviewTotalsExcludeFamilyPoliciesOnDependents(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	overview := svc.Overview(visibility.Advisor(fx.advisorID))

	if overview.TotalCustomers != 3 {
		t.Fatalf("expected 3 customers, got %d", overview.TotalCustomers)
	}
	// Anita's Family policy is hidden; the 5000 premium must not count.
	if overview.TotalPolicies != 3 {
		t.Fatalf("expected 3 visible policies, got %d", overview.TotalPolicies)
	}
	if overview.TotalPremium != 6000 {
		t.Fatalf("expected total premium 6000, got %v", overview.TotalPremium)
	}
	if overview.AvgPoliciesPerCust != 1.0 {
		t.Fatalf("expected 1.0 policies per customer, got %v", overview.AvgPoliciesPerCust)
	}
}

func TestRenewalHistogramWrapsByCalendarMonth(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	overview := svc.Overview(visibility.Advisor(fx.advisorID))

	if len(overview.RenewalsByMonth) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(overview.RenewalsByMonth))
	}
	if overview.RenewalsByMonth[0].Month != "Jun" {
		t.Fatalf("expected first bucket Jun, got %q", overview.RenewalsByMonth[0].Month)
	}

	counts := map[string]int{}
	for _, b := range overview.RenewalsByMonth {
		counts[b.Month] = b.Count
	}
	// Jun: Ravi's Family (visible, SPOC). Jul: Ravi's Health.
	// May: Anita's Motor, wrapped from next year. Sep: her hidden Family, zero.
	if counts["Jun"] != 1 || counts["Jul"] != 1 || counts["May"] != 1 {
		t.Fatalf("unexpected bucket counts: %v", counts)
	}
	if counts["Sep"] != 0 {
		t.Fatalf("hidden family policy leaked into Sep bucket: %v", counts)
	}
}

func TestLeadSourceBreakdownResolvesRootCategory(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	overview := svc.Overview(visibility.Advisor(fx.advisorID))

	if len(overview.LeadSourceBreakdown) != 2 {
		t.Fatalf("expected 2 categories, got %+v", overview.LeadSourceBreakdown)
	}
	if overview.LeadSourceBreakdown[0].Category != "Referral" || overview.LeadSourceBreakdown[0].Count != 2 {
		t.Fatalf("expected Referral x2 first, got %+v", overview.LeadSourceBreakdown[0])
	}
	if overview.LeadSourceBreakdown[1].Category != "Unknown" || overview.LeadSourceBreakdown[1].Count != 1 {
		t.Fatalf("expected Unknown x1, got %+v", overview.LeadSourceBreakdown[1])
	}
}

func TestStateCountsSortDescendingWithUnknownFallback(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	overview := svc.Overview(visibility.Advisor(fx.advisorID))

	if len(overview.StateCounts) != 2 {
		t.Fatalf("expected 2 states, got %+v", overview.StateCounts)
	}
	if overview.StateCounts[0].State != "Maharashtra" || overview.StateCounts[0].Count != 2 {
		t.Fatalf("expected Maharashtra x2 first, got %+v", overview.StateCounts[0])
	}
	if overview.StateCounts[1].State != "Unknown" {
		t.Fatalf("expected empty state to render as Unknown, got %+v", overview.StateCounts[1])
	}
}

func TestGrowthSeriesEndsAtCurrentTotal(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	overview := svc.Overview(visibility.Advisor(fx.advisorID))

	series := overview.CustomerGrowth
	if len(series) != 6 {
		t.Fatalf("expected 6 points, got %d", len(series))
	}
	if series[0].Month != "Jan" || series[5].Month != "Jun" {
		t.Fatalf("expected Jan..Jun labels, got %q..%q", series[0].Month, series[5].Month)
	}
	if series[5].Count != 3 {
		t.Fatalf("expected series to end at member total 3, got %d", series[5].Count)
	}
	for i := 1; i < len(series); i++ {
		if series[i].Count < series[i-1].Count {
			t.Fatalf("series not cumulative at %d: %+v", i, series)
		}
	}
}

func TestForecastSplicesAtLastHistoricalPoint(t *testing.T) {
	fx := seedFixture()
	projected := []transport.GrowthPoint{
		{Month: "Jul", Count: 4},
		{Month: "Aug", Count: 5},
		{Month: "Sep", Count: 6},
	}
	svc := New(fx, stubForecaster{points: projected}, fixedNow)

	resp := svc.Forecast(context.Background(), visibility.Advisor(fx.advisorID))

	if resp.Fallback {
		t.Fatal("expected forecast, got fallback")
	}
	if len(resp.Forecast) != 4 {
		t.Fatalf("expected anchor + 3 points, got %d", len(resp.Forecast))
	}
	anchor := resp.Forecast[0]
	last := resp.History[len(resp.History)-1]
	if anchor != last {
		t.Fatalf("forecast does not start at last historical point: %+v vs %+v", anchor, last)
	}
	if resp.Forecast[3].Count != 6 {
		t.Fatalf("expected projection to end at 6, got %+v", resp.Forecast[3])
	}
}

func TestForecastFallbackReturnsHistoryOnly(t *testing.T) {
	fx := seedFixture()
	svc := New(fx, stubForecaster{fallback: true}, fixedNow)

	resp := svc.Forecast(context.Background(), visibility.Advisor(fx.advisorID))

	if !resp.Fallback {
		t.Fatal("expected fallback")
	}
	if len(resp.Forecast) != 0 {
		t.Fatalf("expected empty forecast, got %+v", resp.Forecast)
	}
	if len(resp.History) != 6 {
		t.Fatalf("expected 6 historical points, got %d", len(resp.History))
	}
}
