// Package members provides the member directory bounded context module.
package members

import (
	"finroots_crm_backend/internal/crm/store"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/members/handler"
	"finroots_crm_backend/internal/members/service"
)

// Module is the members bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the members module. The searcher is the AI gateway's
// semantic member search capability.
func NewModule(st *store.Store, searcher handler.Searcher) *Module {
	svc := service.New(st)
	return &Module{
		handler: handler.New(svc, searcher),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "members"
}

// Service returns the member pipeline for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts member routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/members"), ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
