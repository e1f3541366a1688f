package assistant

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finroots_crm_backend/internal/visibility"
	"finroots_crm_backend/platform/httpkit"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

type Handler struct {
	assistant *Assistant
}

func NewHandler(assistant *Assistant) *Handler {
	return &Handler{assistant: assistant}
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Message is required", nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	scope := visibility.ForRole(id.UserID(), id.Role())

	reply, fallback := h.assistant.Chat(c.Request.Context(), scope, req.Message)
	httpkit.OK(c, ChatResponse{Reply: reply, Fallback: fallback})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, aiLimiter gin.HandlerFunc) {
	rg.POST("/chat", aiLimiter, h.Chat)
}
