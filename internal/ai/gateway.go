// Package ai is the gateway to the Gemini model. Every capability returns a
// tagged Result: a missing credential or a malformed model answer degrades
// to the capability's fallback value, and no entry point ever returns an
// error to its caller.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	notestransport "finroots_crm_backend/internal/notes/transport"
	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const reasonDisabled = "credential missing"

// NoteSummary is the structured output of transcript summarization.
type NoteSummary struct {
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	ActionItems []string `json:"actionItems"`
}

// RouteStop is one geocoded visit candidate for route planning.
type RouteStop struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Lat  float64   `json:"lat"`
	Lng  float64   `json:"lng"`
}

// RoutePlan is the structured output of route planning.
type RoutePlan struct {
	Summary    string      `json:"summary"`
	Landmarks  []string    `json:"landmarks"`
	OrderedIDs []uuid.UUID `json:"orderedIds"`
}

// GrowthPoint is one month of the growth series.
type GrowthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Gateway wraps the model behind fallback-first capability calls.
type Gateway struct {
	gen generator
	log *logger.Logger
}

// NewGateway builds the gateway. Without a credential the gateway still
// works: every capability returns its fallback immediately, without touching
// the network.
func NewGateway(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (*Gateway, error) {
	g := &Gateway{log: log}
	if !cfg.IsAIEnabled() {
		log.Warn("ai gateway disabled, all capabilities degrade to fallbacks")
		return g, nil
	}
	gen, err := newGenaiGenerator(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
	if err != nil {
		return nil, err
	}
	g.gen = gen
	return g, nil
}

// SearchMemberIDs answers a natural-language member query with the ids of
// matching candidates. Fallback: empty set.
func (g *Gateway) SearchMemberIDs(ctx context.Context, query string, candidates []domain.Member) Result[[]uuid.UUID] {
	fallback := []uuid.UUID{}
	if g.gen == nil {
		return degrade(g, "member_search", fallback, reasonDisabled)
	}

	var sb strings.Builder
	sb.WriteString("Select the customers matching this query. Respond with a JSON array of id strings, nothing else. Query: ")
	sb.WriteString(query)
	sb.WriteString("\nCustomers:\n")
	for _, m := range candidates {
		fmt.Fprintf(&sb, "- id=%s name=%q city=%q tier=%q policies=%s\n", m.ID, m.Name, m.City, m.Tier, policyTypes(m))
	}

	raw, err := g.gen.generate(ctx, sb.String())
	if err != nil {
		return degrade(g, "member_search", fallback, err.Error())
	}

	var idStrings []string
	if err := decodeJSON(raw, &idStrings); err != nil {
		return degrade(g, "member_search", fallback, err.Error())
	}

	known := make(map[uuid.UUID]bool, len(candidates))
	for _, m := range candidates {
		known[m.ID] = true
	}
	ids := []uuid.UUID{}
	for _, s := range idStrings {
		id, err := uuid.Parse(s)
		if err != nil || !known[id] {
			continue
		}
		ids = append(ids, id)
	}
	g.log.AIEvent("member_search", false, "")
	return Ok(ids)
}

// MatchNotes answers a natural-language note query with matched note ids and
// the snippets the model quoted. Fallback: empty map.
func (g *Gateway) MatchNotes(ctx context.Context, query string, candidates []notestransport.Row) Result[map[uuid.UUID][]string] {
	fallback := map[uuid.UUID][]string{}
	if g.gen == nil {
		return degrade(g, "note_match", fallback, reasonDisabled)
	}

	var sb strings.Builder
	sb.WriteString("Select the voice notes relevant to this query. Respond with a JSON object mapping note id to an array of quoted snippets, nothing else. Query: ")
	sb.WriteString(query)
	sb.WriteString("\nNotes:\n")
	for _, n := range candidates {
		fmt.Fprintf(&sb, "- id=%s client=%q summary=%q transcript=%q\n", n.NoteID, n.ClientName, n.Summary, n.TranscriptSnippet)
	}

	raw, err := g.gen.generate(ctx, sb.String())
	if err != nil {
		return degrade(g, "note_match", fallback, err.Error())
	}

	var parsed map[string][]string
	if err := decodeJSON(raw, &parsed); err != nil {
		return degrade(g, "note_match", fallback, err.Error())
	}

	known := make(map[uuid.UUID]bool, len(candidates))
	for _, n := range candidates {
		known[n.NoteID] = true
	}
	matches := map[uuid.UUID][]string{}
	for s, snippets := range parsed {
		id, err := uuid.Parse(s)
		if err != nil || !known[id] {
			continue
		}
		matches[id] = snippets
	}
	g.log.AIEvent("note_match", false, "")
	return Ok(matches)
}

// SummarizeTranscript condenses a raw transcript into a summary, tags and
// action items. Fallback: the transcript's first line as summary, nothing
// else.
func (g *Gateway) SummarizeTranscript(ctx context.Context, transcript string) Result[NoteSummary] {
	fallback := NoteSummary{Summary: firstLine(transcript)}
	if g.gen == nil {
		return degrade(g, "note_summary", fallback, reasonDisabled)
	}

	prompt := "Summarize this customer call transcript. Respond with JSON " +
		`{"summary": string, "tags": [string], "actionItems": [string]}, nothing else.` +
		"\nTranscript:\n" + transcript

	raw, err := g.gen.generate(ctx, prompt)
	if err != nil {
		return degrade(g, "note_summary", fallback, err.Error())
	}
	var out NoteSummary
	if err := decodeJSON(raw, &out); err != nil {
		return degrade(g, "note_summary", fallback, err.Error())
	}
	g.log.AIEvent("note_summary", false, "")
	return Ok(out)
}

// PlanRoute orders geocoded visit stops into a day plan. Fallback: the stops
// in their given order with a placeholder summary.
func (g *Gateway) PlanRoute(ctx context.Context, stops []RouteStop) Result[RoutePlan] {
	fallback := RoutePlan{Summary: "Visit stops in listed order.", OrderedIDs: stopIDs(stops)}
	if g.gen == nil {
		return degrade(g, "route_plan", fallback, reasonDisabled)
	}

	var sb strings.Builder
	sb.WriteString("Plan an efficient visiting order for these stops. Respond with JSON ")
	sb.WriteString(`{"summary": string, "landmarks": [string], "orderedIds": [string]}, nothing else.`)
	sb.WriteString("\nStops:\n")
	for _, s := range stops {
		fmt.Fprintf(&sb, "- id=%s name=%q lat=%.5f lng=%.5f\n", s.ID, s.Name, s.Lat, s.Lng)
	}

	raw, err := g.gen.generate(ctx, sb.String())
	if err != nil {
		return degrade(g, "route_plan", fallback, err.Error())
	}
	var out RoutePlan
	if err := decodeJSON(raw, &out); err != nil {
		return degrade(g, "route_plan", fallback, err.Error())
	}
	g.log.AIEvent("route_plan", false, "")
	return Ok(out)
}

// ForecastGrowth extends a monthly series three months forward. Fallback:
// empty series, which callers splice as "no forecast".
func (g *Gateway) ForecastGrowth(ctx context.Context, history []GrowthPoint) Result[[]GrowthPoint] {
	fallback := []GrowthPoint{}
	if g.gen == nil {
		return degrade(g, "growth_forecast", fallback, reasonDisabled)
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return degrade(g, "growth_forecast", fallback, err.Error())
	}
	prompt := "Given this monthly cumulative customer count series, forecast the next 3 months. " +
		`Respond with a JSON array of exactly 3 {"month": "YYYY-MM", "count": number} objects, nothing else.` +
		"\nSeries: " + string(payload)

	raw, err := g.gen.generate(ctx, prompt)
	if err != nil {
		return degrade(g, "growth_forecast", fallback, err.Error())
	}
	var out []GrowthPoint
	if err := decodeJSON(raw, &out); err != nil {
		return degrade(g, "growth_forecast", fallback, err.Error())
	}
	g.log.AIEvent("growth_forecast", false, "")
	return Ok(out)
}

// ExtractPayment pulls structured payment details out of free text, such as
// a bank SMS or email. Fallback: zero-value details with status "Unknown".
func (g *Gateway) ExtractPayment(ctx context.Context, text string) Result[domain.PaymentDetails] {
	fallback := domain.PaymentDetails{Status: "Unknown"}
	if g.gen == nil {
		return degrade(g, "payment_extract", fallback, reasonDisabled)
	}

	prompt := "Extract the premium payment details from this text. Respond with JSON " +
		`{"transactionId": string, "amount": number, "date": "RFC3339", "status": string, "statusReason": string}, nothing else.` +
		"\nText:\n" + text

	raw, err := g.gen.generate(ctx, prompt)
	if err != nil {
		return degrade(g, "payment_extract", fallback, err.Error())
	}
	var parsed struct {
		TransactionID string  `json:"transactionId"`
		Amount        float64 `json:"amount"`
		Date          string  `json:"date"`
		Status        string  `json:"status"`
		StatusReason  string  `json:"statusReason"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return degrade(g, "payment_extract", fallback, err.Error())
	}
	out := domain.PaymentDetails{
		TransactionID: parsed.TransactionID,
		Amount:        parsed.Amount,
		Status:        parsed.Status,
		StatusReason:  parsed.StatusReason,
	}
	if ts, err := time.Parse(time.RFC3339, parsed.Date); err == nil {
		out.Date = ts
	}
	g.log.AIEvent("payment_extract", false, "")
	return Ok(out)
}

// degrade logs the degraded call and wraps the capability's fallback value.
func degrade[T any](g *Gateway, capability string, value T, reason string) Result[T] {
	g.log.AIEvent(capability, true, reason)
	return Degraded(value, reason)
}

func decodeJSON(raw string, out interface{}) error {
	return json.Unmarshal([]byte(stripFences(raw)), out)
}

// stripFences tolerates models that wrap JSON in a markdown code block even
// in JSON mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func policyTypes(m domain.Member) string {
	types := make([]string, 0, len(m.Policies))
	for _, p := range m.Policies {
		types = append(types, p.PolicyType)
	}
	return strings.Join(types, ",")
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return strings.TrimSpace(text)
}

func stopIDs(stops []RouteStop) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}
