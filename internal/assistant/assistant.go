// Package assistant hosts the advisor-facing chat agent. It wraps an ADK
// llmagent with tools over the customer roster and the tasks module, so an
// advisor can ask things like "create a follow-up for Ravi next week" in
// plain language.
package assistant

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/google/uuid"

	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/ai/gemini"
	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"
)

const systemPrompt = `You are a CRM assistant for insurance advisors. You help advisors look up
their customers and create follow-up tasks.

Guidelines:
- Use the FindMembers tool to look up customers before creating tasks for them.
- Use the CreateTask tool with the member id returned by FindMembers.
- If a customer lookup returns no matches, say so instead of guessing.
- Keep answers short and factual. Do not invent policy or customer details.`

// Assistant runs the chat agent. A nil Assistant (AI disabled) is valid and
// answers every chat with a fallback reply.
type Assistant struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	deps           *ToolDependencies
	appName        string
	log            *logger.Logger
}

// New builds the chat agent. Returns (nil, nil) when AI is disabled so the
// module can still register its routes and degrade per request.
func New(ctx context.Context, cfg config.AIConfig, members MemberReader, tasks TaskCreator, log *logger.Logger) (*Assistant, error) {
	if !cfg.IsAIEnabled() {
		log.Warn("assistant disabled, chat will return fallback replies")
		return nil, nil
	}

	model, err := gemini.NewModel(ctx, gemini.Config{APIKey: cfg.GetGeminiAPIKey(), Model: cfg.GetGeminiModel()})
	if err != nil {
		return nil, fmt.Errorf("build gemini model: %w", err)
	}

	deps := &ToolDependencies{Members: members, Tasks: tasks}
	tools, err := buildTools(deps)
	if err != nil {
		return nil, err
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "CRMAssistant",
		Model:       model,
		Description: "CRM assistant that looks up an advisor's customers and creates follow-up tasks on their behalf.",
		Instruction: systemPrompt,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant agent: %w", err)
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        "crm_assistant",
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant runner: %w", err)
	}

	return &Assistant{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		deps:           deps,
		appName:        "crm_assistant",
		log:            log,
	}, nil
}

const fallbackReply = "The assistant is currently unavailable. You can still create tasks and search customers manually."

// Chat runs one message through the agent under the caller's scope and
// returns the agent's reply. It never returns an AI failure to the caller;
// outages degrade to a canned reply.
func (a *Assistant) Chat(ctx context.Context, scope visibility.Scope, message string) (string, bool) {
	if a == nil {
		return fallbackReply, true
	}

	a.deps.SetScope(scope)

	userID := scope.UserID.String()
	sessionID := uuid.New().String()

	cleanup, err := a.createSession(ctx, userID, sessionID)
	if err != nil {
		a.log.AIEvent("assistant_chat", true, err.Error())
		return fallbackReply, true
	}
	defer cleanup()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message},
		},
	}

	reply, err := a.run(ctx, userID, sessionID, userMessage)
	if err != nil {
		a.log.AIEvent("assistant_chat", true, err.Error())
		return fallbackReply, true
	}
	if reply == "" {
		a.log.AIEvent("assistant_chat", true, "empty reply")
		return fallbackReply, true
	}

	a.log.AIEvent("assistant_chat", false, "")
	return reply, false
}

func (a *Assistant) createSession(ctx context.Context, userID, sessionID string) (func(), error) {
	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant session: %w", err)
	}

	cleanup := func() {
		deleteReq := &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		}
		if deleteErr := a.sessionService.Delete(ctx, deleteReq); deleteErr != nil {
			a.log.Warn("failed to delete assistant session", "session_id", sessionID, "error", deleteErr)
		}
	}

	return cleanup, nil
}

func (a *Assistant) run(ctx context.Context, userID, sessionID string, userMessage *genai.Content) (string, error) {
	var output string
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("assistant run failed: %w", err)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output += part.Text
			}
		}
	}

	return output, nil
}
