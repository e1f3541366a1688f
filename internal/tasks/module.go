// Package tasks provides the task management bounded context module.
package tasks

import (
	"time"

	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/tasks/handler"
	"finroots_crm_backend/internal/tasks/service"
	"finroots_crm_backend/platform/validator"
)

// Module is the tasks bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the tasks module.
func NewModule(st *store.Store, bus events.Bus, val *validator.Validator, now func() time.Time) *Module {
	svc := service.New(st, bus, now)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// Service returns the task service for use by other modules, notably the
// notes module's action-item conversion and the renewal scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tasks"))
}

var _ apphttp.Module = (*Module)(nil)
