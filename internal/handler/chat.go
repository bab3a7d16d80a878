package handler

import (
	"net/http"

	"roomassist/internal/model"
	"roomassist/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles recommendation chat requests.
type ChatHandler struct {
	engine *service.Engine
}

// NewChatHandler creates a new chat handler
func NewChatHandler(engine *service.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.engine.Query(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recommendation failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
