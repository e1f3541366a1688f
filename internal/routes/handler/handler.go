package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finroots_crm_backend/internal/routes/service"
	"finroots_crm_backend/internal/routes/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Plan(c *gin.Context) {
	var req transport.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "memberIds is required", nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	resp, err := h.svc.Plan(c.Request.Context(), scope, req.MemberIDs)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.POST("/plan", aiLimiter, h.Plan)
}
