package ai

import (
	"context"

	analyticstransport "finroots_crm_backend/internal/analytics/transport"
	"finroots_crm_backend/internal/crm/domain"
	notestransport "finroots_crm_backend/internal/notes/transport"
	routestransport "finroots_crm_backend/internal/routes/transport"

	"github.com/google/uuid"
)

// MemberSearcher adapts the gateway to the members handler contract, which
// wants the flattened (value, fallback) shape.
type MemberSearcher struct {
	Gateway *Gateway
}

func (s MemberSearcher) SearchMemberIDs(ctx context.Context, query string, candidates []domain.Member) ([]uuid.UUID, bool) {
	r := s.Gateway.SearchMemberIDs(ctx, query, candidates)
	return r.Value, r.Fallback
}

// NoteMatcher adapts the gateway to the notes handler contract.
type NoteMatcher struct {
	Gateway *Gateway
}

func (m NoteMatcher) MatchNotes(ctx context.Context, query string, candidates []notestransport.Row) (map[uuid.UUID][]string, bool) {
	r := m.Gateway.MatchNotes(ctx, query, candidates)
	return r.Value, r.Fallback
}

// NoteSummarizer adapts the gateway to the notes service contract.
type NoteSummarizer struct {
	Gateway *Gateway
}

func (s NoteSummarizer) SummarizeTranscript(ctx context.Context, transcript string) (notestransport.Summary, bool) {
	r := s.Gateway.SummarizeTranscript(ctx, transcript)
	return notestransport.Summary{
		Summary:     r.Value.Summary,
		Tags:        r.Value.Tags,
		ActionItems: r.Value.ActionItems,
	}, r.Fallback
}

// RoutePlanner adapts the gateway to the routes service contract.
type RoutePlanner struct {
	Gateway *Gateway
}

func (p RoutePlanner) PlanRoute(ctx context.Context, stops []routestransport.Stop) (routestransport.Plan, bool) {
	in := make([]RouteStop, len(stops))
	for i, s := range stops {
		in[i] = RouteStop{ID: s.MemberID, Name: s.Name, Lat: s.Lat, Lng: s.Lng}
	}

	r := p.Gateway.PlanRoute(ctx, in)

	return routestransport.Plan{
		Summary:    r.Value.Summary,
		Landmarks:  r.Value.Landmarks,
		OrderedIDs: r.Value.OrderedIDs,
	}, r.Fallback
}

// PaymentExtractor adapts the gateway to the policies handler contract.
type PaymentExtractor struct {
	Gateway *Gateway
}

func (e PaymentExtractor) ExtractPayment(ctx context.Context, text string) (domain.PaymentDetails, bool) {
	r := e.Gateway.ExtractPayment(ctx, text)
	return r.Value, r.Fallback
}

// GrowthForecaster adapts the gateway to the analytics forecaster contract,
// translating between the analytics and gateway point types.
type GrowthForecaster struct {
	Gateway *Gateway
}

func (f GrowthForecaster) ForecastGrowth(ctx context.Context, history []analyticstransport.GrowthPoint) ([]analyticstransport.GrowthPoint, bool) {
	in := make([]GrowthPoint, len(history))
	for i, p := range history {
		in[i] = GrowthPoint{Month: p.Month, Count: p.Count}
	}

	r := f.Gateway.ForecastGrowth(ctx, in)

	out := make([]analyticstransport.GrowthPoint, len(r.Value))
	for i, p := range r.Value {
		out[i] = analyticstransport.GrowthPoint{Month: p.Month, Count: p.Count}
	}
	return out, r.Fallback
}
