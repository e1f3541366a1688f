package handler

import (
	"context"
	"net/http"

	"finroots_crm_backend/internal/notes/service"
	"finroots_crm_backend/internal/notes/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Matcher performs the semantic note search. A fallback result is an empty
// match map with the flag raised, never an error.
type Matcher interface {
	MatchNotes(ctx context.Context, query string, candidates []transport.Row) (map[uuid.UUID][]string, bool)
}

type Handler struct {
	svc     *service.Service
	matcher Matcher
}

func New(svc *service.Service, matcher Matcher) *Handler {
	return &Handler{svc: svc, matcher: matcher}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("/ai-search", aiLimiter, h.AISearch)
	rg.POST("/:scope/:ownerId/:noteId/action-items/convert", h.ConvertActionItem)
	rg.POST("/:scope/:ownerId/:noteId/action-items/dismiss", h.DismissActionItem)
	rg.POST("/:scope/:ownerId/:noteId/summarize", aiLimiter, h.Summarize)
	rg.POST("/audio/upload-url", h.UploadURL)
	rg.GET("/audio/*key", h.DownloadURL)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListNotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	start, err := transport.ParseDate(req.DateStart)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	end, err := transport.ParseDate(req.DateEnd)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	var advisorID *uuid.UUID
	if req.Advisor != "" {
		id, err := uuid.Parse(req.Advisor)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid advisor filter", nil)
			return
		}
		advisorID = &id
	}
	_, matchedPresent := c.GetQuery("matchedIds")
	matched, err := transport.ParseMatchedIDs(req.MatchedIDs, matchedPresent)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	params := service.ListParams{
		Filters: transport.Filters{
			Advanced:  req.Advanced,
			Keyword:   req.Keyword,
			DateStart: start,
			DateEnd:   end,
			AdvisorID: advisorID,
		},
		Matched:  matched,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	scope := scopeFrom(c)
	if req.Grouped {
		httpkit.OK(c, h.svc.ListGrouped(scope, params))
		return
	}
	httpkit.OK(c, h.svc.List(scope, params))
}

func (h *Handler) AISearch(c *gin.Context) {
	var req transport.AISearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	candidates := h.svc.ScopedRows(scopeFrom(c))
	matches, fallback := h.matcher.MatchNotes(c.Request.Context(), req.Query, candidates)
	if matches == nil {
		matches = map[uuid.UUID][]string{}
	}

	httpkit.OK(c, transport.AISearchResponse{Matches: matches, Fallback: fallback})
}

func (h *Handler) ConvertActionItem(c *gin.Context) {
	ownerType, ownerID, noteID, item, ok := h.actionItemParams(c)
	if !ok {
		return
	}

	taskID, err := h.svc.ConvertActionItem(c.Request.Context(), scopeFrom(c), ownerType, ownerID, noteID, item)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ConvertResponse{TaskID: taskID})
}

func (h *Handler) DismissActionItem(c *gin.Context) {
	ownerType, ownerID, noteID, item, ok := h.actionItemParams(c)
	if !ok {
		return
	}

	if err := h.svc.DismissActionItem(scopeFrom(c), ownerType, ownerID, noteID, item); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Summarize(c *gin.Context) {
	ownerType, err := transport.ParseOwnerType(c.Param("scope"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	ownerID, err := uuid.Parse(c.Param("ownerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	res, err := h.svc.Summarize(c.Request.Context(), scopeFrom(c), ownerType, ownerID, noteID, req.Transcript)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, res)
}

func (h *Handler) UploadURL(c *gin.Context) {
	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	res, err := h.svc.UploadURL(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, res)
}

func (h *Handler) DownloadURL(c *gin.Context) {
	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	res, err := h.svc.DownloadURL(c.Request.Context(), key)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, res)
}

func (h *Handler) actionItemParams(c *gin.Context) (transport.OwnerType, uuid.UUID, uuid.UUID, string, bool) {
	ownerType, err := transport.ParseOwnerType(c.Param("scope"))
	if err != nil {
		httpkit.HandleError(c, err)
		return "", uuid.Nil, uuid.Nil, "", false
	}
	ownerID, err := uuid.Parse(c.Param("ownerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return "", uuid.Nil, uuid.Nil, "", false
	}
	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return "", uuid.Nil, uuid.Nil, "", false
	}
	var req transport.ActionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return "", uuid.Nil, uuid.Nil, "", false
	}
	return ownerType, ownerID, noteID, req.Item, true
}

func scopeFrom(c *gin.Context) visibility.Scope {
	id := httpkit.MustGetIdentity(c)
	return visibility.ForRole(id.UserID(), id.Role())
}
