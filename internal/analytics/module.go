// Package analytics provides the dashboard aggregation module.
package analytics

import (
	"time"

	"finroots_crm_backend/internal/analytics/handler"
	"finroots_crm_backend/internal/analytics/service"
	apphttp "finroots_crm_backend/internal/http"
)

// Module is the analytics module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the analytics module. The forecaster is the AI gateway's
// growth projection capability.
func NewModule(data service.Collections, forecaster service.Forecaster, now func() time.Time) *Module {
	return &Module{
		handler: handler.New(service.New(data, forecaster, now)),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/analytics"), ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
