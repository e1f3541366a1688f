package ai

import (
	"context"
	"errors"
	"testing"

	"finroots_crm_backend/internal/crm/domain"
	notestransport "finroots_crm_backend/internal/notes/transport"
	"finroots_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) generate(context.Context, string) (string, error) {
	f.calls++
	return f.response, f.err
}

type disabledConfig struct{}

func (disabledConfig) GetGeminiAPIKey() string { return "" }
func (disabledConfig) GetGeminiModel() string  { return "gemini-2.0-flash" }
func (disabledConfig) IsAIEnabled() bool       { return false }

func testGateway(gen generator) *Gateway {
	return &Gateway{gen: gen, log: logger.New("test")}
}

func TestDisabledGatewaySkipsNetwork(t *testing.T) {
	g, err := NewGateway(context.Background(), disabledConfig{}, logger.New("test"))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	res := g.SearchMemberIDs(context.Background(), "gold members", []domain.Member{{ID: uuid.New()}})
	if !res.Fallback {
		t.Fatalf("disabled gateway returned ok result")
	}
	if len(res.Value) != 0 {
		t.Fatalf("fallback value = %v, want empty set", res.Value)
	}

	sum := g.SummarizeTranscript(context.Background(), "first line\nrest")
	if !sum.Fallback || sum.Value.Summary != "first line" {
		t.Fatalf("summary fallback = %+v", sum)
	}
}

func TestSearchMemberIDsFiltersUnknownIDs(t *testing.T) {
	known := uuid.New()
	gen := &fakeGenerator{response: `["` + known.String() + `", "` + uuid.New().String() + `", "not-a-uuid"]`}
	g := testGateway(gen)

	res := g.SearchMemberIDs(context.Background(), "query", []domain.Member{{ID: known, Name: "Ravi"}})
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	if len(res.Value) != 1 || res.Value[0] != known {
		t.Fatalf("ids = %v, want only the known candidate", res.Value)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times", gen.calls)
	}
}

func TestMalformedResponseDegrades(t *testing.T) {
	g := testGateway(&fakeGenerator{response: "I cannot answer that."})

	res := g.SearchMemberIDs(context.Background(), "query", nil)
	if !res.Fallback || len(res.Value) != 0 {
		t.Fatalf("malformed response did not degrade: %+v", res)
	}

	notes := g.MatchNotes(context.Background(), "query", nil)
	if !notes.Fallback || len(notes.Value) != 0 {
		t.Fatalf("malformed note match did not degrade: %+v", notes)
	}
}

func TestGeneratorErrorDegrades(t *testing.T) {
	g := testGateway(&fakeGenerator{err: errors.New("quota exceeded")})

	res := g.ForecastGrowth(context.Background(), []GrowthPoint{{Month: "2025-01", Count: 10}})
	if !res.Fallback || len(res.Value) != 0 {
		t.Fatalf("generator error did not degrade: %+v", res)
	}
	if res.Reason != "quota exceeded" {
		t.Fatalf("reason = %q", res.Reason)
	}
}

func TestMatchNotesParsesSnippets(t *testing.T) {
	noteID := uuid.New()
	g := testGateway(&fakeGenerator{
		response: "```json\n{\"" + noteID.String() + `": ["wants higher coverage"]}` + "\n```",
	})

	res := g.MatchNotes(context.Background(), "coverage", []notestransport.Row{{NoteID: noteID}})
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	snippets := res.Value[noteID]
	if len(snippets) != 1 || snippets[0] != "wants higher coverage" {
		t.Fatalf("snippets = %v", snippets)
	}
}

func TestPlanRouteFallbackKeepsGivenOrder(t *testing.T) {
	stops := []RouteStop{
		{ID: uuid.New(), Name: "A"},
		{ID: uuid.New(), Name: "B"},
	}
	g, err := NewGateway(context.Background(), disabledConfig{}, logger.New("test"))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	res := g.PlanRoute(context.Background(), stops)
	if !res.Fallback {
		t.Fatalf("disabled gateway returned ok result")
	}
	if len(res.Value.OrderedIDs) != 2 || res.Value.OrderedIDs[0] != stops[0].ID {
		t.Fatalf("fallback order = %v", res.Value.OrderedIDs)
	}
}

func TestExtractPayment(t *testing.T) {
	g := testGateway(&fakeGenerator{
		response: `{"transactionId": "TXN42", "amount": 12000, "date": "2025-05-01T10:00:00Z", "status": "Success", "statusReason": ""}`,
	})

	res := g.ExtractPayment(context.Background(), "Rs 12000 received, ref TXN42")
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	if res.Value.TransactionID != "TXN42" || res.Value.Amount != 12000 || res.Value.Status != "Success" {
		t.Fatalf("payment = %+v", res.Value)
	}
	if res.Value.Date.IsZero() {
		t.Fatalf("date not parsed")
	}
}
