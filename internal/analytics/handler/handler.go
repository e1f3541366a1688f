package handler

import (
	"github.com/gin-gonic/gin"

	"finroots_crm_backend/internal/analytics/service"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Overview(c *gin.Context) {
	httpkit.OK(c, h.svc.Overview(scopeFrom(c)))
}

func (h *Handler) Forecast(c *gin.Context) {
	httpkit.OK(c, h.svc.Forecast(c.Request.Context(), scopeFrom(c)))
}

func scopeFrom(c *gin.Context) visibility.Scope {
	id := httpkit.MustGetIdentity(c)
	return visibility.ForRole(id.UserID(), id.Role())
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.GET("/overview", h.Overview)
	rg.GET("/forecast", aiLimiter, h.Forecast)
}
