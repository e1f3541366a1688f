package handler

import (
	"context"
	"net/http"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/members/service"
	"finroots_crm_backend/internal/members/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Searcher performs the semantic member search. A fallback result is an
// empty id set with the flag raised, never an error.
type Searcher interface {
	SearchMemberIDs(ctx context.Context, query string, candidates []domain.Member) ([]uuid.UUID, bool)
}

type Handler struct {
	svc      *service.Service
	searcher Searcher
}

func New(svc *service.Service, searcher Searcher) *Handler {
	return &Handler{svc: svc, searcher: searcher}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("/ai-search", aiLimiter, h.AISearch)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	status, err := transport.ParseStatus(req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	_, matchedPresent := c.GetQuery("matchedIds")
	matched, err := transport.ParseMatchedIDs(req.MatchedIDs, matchedPresent)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	result := h.svc.List(scope, service.ListParams{
		Status: status,
		Filters: transport.Filters{
			Advanced:    req.Advanced,
			Name:        req.Name,
			City:        req.City,
			Tier:        req.Tier,
			CreatedByMe: req.CreatedByMe,
		},
		Matched:  matched,
		Sort:     transport.SortKey(req.SortBy),
		Desc:     req.SortDesc,
		Page:     req.Page,
		PageSize: req.PageSize,
	})

	httpkit.OK(c, result)
}

func (h *Handler) AISearch(c *gin.Context) {
	var req transport.AISearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	candidates := h.svc.ScopedMembers(scope)
	ids, fallback := h.searcher.SearchMemberIDs(c.Request.Context(), req.Query, candidates)
	if ids == nil {
		ids = []uuid.UUID{}
	}

	httpkit.OK(c, transport.AISearchResponse{IDs: ids, Fallback: fallback})
}
