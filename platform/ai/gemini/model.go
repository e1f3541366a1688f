// Package gemini adapts the Google Gemini API to the ADK model.LLM
// interface.
package gemini

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Config for the Gemini model.
type Config struct {
	APIKey string
	Model  string
}

// Model implements model.LLM over the genai client.
type Model struct {
	config Config
	client *genai.Client
}

func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &Model{config: cfg, client: client}, nil
}

func (m *Model) Name() string {
	return m.config.Model
}

// GenerateContent forwards the ADK request to Gemini. Streaming is not
// supported; the full response arrives as a single event.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.client.Models.GenerateContent(ctx, m.config.Model, req.Contents, req.Config)
		if err != nil {
			yield(nil, err)
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			yield(nil, errors.New("gemini returned no candidates"))
			return
		}
		yield(&model.LLMResponse{Content: resp.Candidates[0].Content}, nil)
	}
}
