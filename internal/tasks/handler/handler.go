package handler

import (
	"net/http"
	"strings"

	"finroots_crm_backend/internal/tasks/service"
	"finroots_crm_backend/internal/tasks/transport"
	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"
	"finroots_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/bulk", h.BulkCreate)
	rg.POST("/:id/reassign", h.Reassign)
	rg.GET("/:id/reassignments", h.ListReassignments)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	view, err := transport.ParseView(req.View)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	branches, err := parseUUIDList(req.Branches)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid branches filter", nil)
		return
	}
	advisors, err := parseUUIDList(req.Advisors)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid advisors filter", nil)
		return
	}

	result := h.svc.List(scopeFrom(c), service.ListParams{
		Filters: transport.Filters{
			View:     view,
			Search:   req.Search,
			Status:   req.Status,
			Branches: branches,
			Advisors: advisors,
		},
		Sort:     transport.SortKey(req.SortBy),
		Desc:     req.SortDesc,
		Page:     req.Page,
		PageSize: req.PageSize,
	})

	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	task, err := h.svc.Create(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, task)
}

func (h *Handler) BulkCreate(c *gin.Context) {
	var req transport.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ids, err := h.svc.BulkCreate(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.BulkCreateResponse{TaskIDs: ids})
}

func (h *Handler) Reassign(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	task, err := h.svc.Reassign(c.Request.Context(), scopeFrom(c), taskID, req.ToAdvisorID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, task)
}

func (h *Handler) ListReassignments(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	history, err := h.svc.Reassignments(scopeFrom(c), taskID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, history)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	task, err := h.svc.UpdateStatus(c.Request.Context(), scopeFrom(c), taskID, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, task)
}

func scopeFrom(c *gin.Context) visibility.Scope {
	id := httpkit.MustGetIdentity(c)
	return visibility.ForRole(id.UserID(), id.Role())
}

func parseUUIDList(value string) ([]uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, p := range strings.Split(value, ",") {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
