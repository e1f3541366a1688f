package handler

import (
	"context"
	"net/http"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/policies/service"
	"finroots_crm_backend/internal/policies/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Extractor is the AI gateway's payment extraction capability.
type Extractor interface {
	ExtractPayment(ctx context.Context, text string) (domain.PaymentDetails, bool)
}

type Handler struct {
	svc       *service.Service
	extractor Extractor
	now       func() time.Time
}

func New(svc *service.Service, extractor Extractor, now func() time.Time) *Handler {
	return &Handler{svc: svc, extractor: extractor, now: now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("/:memberId/:policyId/payment/extract", aiLimiter, h.ExtractPayment)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPoliciesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	filters, sortKey, desc, page, pageSize, err := req.Parse()
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	result := h.svc.List(scope, h.now(), service.ListParams{
		Filters:  filters,
		Sort:     sortKey,
		Desc:     desc,
		Page:     page,
		PageSize: pageSize,
	})

	httpkit.OK(c, result)
}

// ExtractPayment runs free text (a bank SMS, a receipt email) through the
// gateway and records the structured result on the policy. A degraded
// extraction is returned to the caller but not persisted.
func (h *Handler) ExtractPayment(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	policyID, err := uuid.Parse(c.Param("policyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ExtractPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	payment, fallback := h.extractor.ExtractPayment(c.Request.Context(), req.Text)
	if !fallback {
		if err := h.svc.RecordPayment(scope, memberID, policyID, payment); err != nil {
			httpkit.HandleError(c, err)
			return
		}
	}

	httpkit.OK(c, transport.ExtractPaymentResponse{Payment: payment, Fallback: fallback})
}
