// Package routes provides the field-visit route planning module.
package routes

import (
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/routes/handler"
	"finroots_crm_backend/internal/routes/service"
)

// Module is the routes module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the routes module. The planner is the AI gateway's
// route planning capability.
func NewModule(data service.Collections, planner service.Planner) *Module {
	return &Module{
		handler: handler.New(service.New(data, planner)),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "routes"
}

// RegisterRoutes mounts route-planning routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/routes"), ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
