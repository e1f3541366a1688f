package assistant

import (
	apphttp "finroots_crm_backend/internal/http"
)

type Module struct {
	handler *Handler
}

func NewModule(a *Assistant) *Module {
	return &Module{handler: NewHandler(a)}
}

func (m *Module) Name() string { return "assistant" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/assistant")
	m.handler.RegisterRoutes(group, ctx.AIRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
