// Package policies provides the policy renewal bounded context module.
package policies

import (
	"time"

	"finroots_crm_backend/internal/crm/store"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/policies/handler"
	"finroots_crm_backend/internal/policies/service"
)

// Module is the policies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the policies module. The clock is injected so renewal
// classification is reproducible in tests; the extractor is the AI gateway's
// payment extraction capability.
func NewModule(st *store.Store, extractor handler.Extractor, now func() time.Time) *Module {
	svc := service.New(st, st)
	return &Module{
		handler: handler.New(svc, extractor, now),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "policies"
}

// Service returns the policy pipeline for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts policy routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/policies"), ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
