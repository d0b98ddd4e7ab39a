package editor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

// TransformDTO is the toolbar transform request body.
type TransformDTO struct {
	Content   string `json:"content"`
	Selection Range  `json:"selection"`
	Action    Action `json:"action" binding:"required"`
}

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/editor/transform", authMW, h.transform)
}

func (h *Handler) transform(c *gin.Context) {
	var dto TransformDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "action is required")
		return
	}

	content, sel := Apply(dto.Content, dto.Selection, dto.Action)
	c.JSON(http.StatusOK, gin.H{"content": content, "selection": sel})
}
