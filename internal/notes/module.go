// Package notes provides the voice-note bounded context module.
package notes

import (
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/notes/handler"
	"finroots_crm_backend/internal/notes/service"
)

// Module is the notes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the notes module. The task creator is the tasks module's
// create operation, the audio store issues presigned MinIO URLs, and the
// matcher and summarizer are AI gateway capabilities.
func NewModule(st *store.Store, tasks service.TaskCreator, audio service.AudioStore, matcher handler.Matcher, summarizer service.Summarizer, bus events.Bus) *Module {
	svc := service.New(st, tasks, audio, summarizer, bus)
	return &Module{
		handler: handler.New(svc, matcher),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notes"
}

// RegisterRoutes mounts note routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notes"), ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
